package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const ruleChar = "-"

type align int

const (
	alignLeft align = iota
	alignRight
)

type column struct {
	title string
	align align
}

// summaryTable lays out the per-year rows under a header rule. The totals
// row, when present, is set off by a second rule.
type summaryTable struct {
	columns []column
	rows    [][]string
	totals  []string
}

func (t *summaryTable) widths() []int {
	widths := make([]int, len(t.columns))
	measure := func(row []string) {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}
	for i, col := range t.columns {
		widths[i] = runewidth.StringWidth(col.title)
	}
	for _, row := range t.rows {
		measure(row)
	}
	measure(t.totals)
	return widths
}

func (t *summaryTable) lines() []string {
	if len(t.columns) == 0 {
		return nil
	}
	widths := t.widths()
	titles := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, col := range t.columns {
		titles[i] = col.title
		rule[i] = strings.Repeat(ruleChar, widths[i])
	}

	out := make([]string, 0, len(t.rows)+4)
	out = append(out, t.line(titles, widths), strings.Join(rule, " "))
	for _, row := range t.rows {
		out = append(out, t.line(row, widths))
	}
	if t.totals != nil {
		out = append(out, strings.Join(rule, " "), t.line(t.totals, widths))
	}
	return out
}

// line pads each cell to its column and drops trailing blanks.
func (t *summaryTable) line(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", max(width-runewidth.StringWidth(cell), 0))
		if t.columns[i].align == alignRight {
			cells[i] = pad + cell
		} else {
			cells[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(cells, " "), " ")
}

func (t *summaryTable) write(w io.Writer) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
