package stats

import (
	"bytes"
	"testing"
)

func TestSummaryTableAlignsColumns(t *testing.T) {
	table := summaryTable{
		columns: []column{{title: "Year"}, {title: "Accepted", align: alignRight}, {title: "Hardest", align: alignRight}},
		rows:    [][]string{{"2024", "97", "1900"}},
		totals:  []string{"All", "8", "800"},
	}
	want := []string{
		"Year Accepted Hardest",
		"---- -------- -------",
		"2024       97    1900",
		"---- -------- -------",
		"All         8     800",
	}
	lines := table.lines()
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSummaryTableWideRunesAndBlanks(t *testing.T) {
	table := summaryTable{
		columns: []column{{title: "Name"}, {title: "R", align: alignRight}, {title: "Trend"}},
		rows:    [][]string{{"西瓜", "800", ""}, {"ab", "9"}},
	}
	lines := table.lines()
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and two rows, got %q", lines)
	}
	if lines[2] != "西瓜 800" {
		t.Fatalf("unexpected wide row: %q", lines[2])
	}
	if lines[3] != "ab     9" {
		t.Fatalf("unexpected row: %q", lines[3])
	}

	var buf bytes.Buffer
	if err := table.write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "Name   R Trend\n---- --- -----\n西瓜 800\nab     9\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestSummaryTableEmpty(t *testing.T) {
	if lines := (&summaryTable{}).lines(); lines != nil {
		t.Fatalf("expected no lines, got %q", lines)
	}
}
