// Package heatmapui is the interactive terminal heatmap.
package heatmapui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/cfheat/internal/aggregate"
	"github.com/verte-zerg/cfheat/internal/calendar"
	"github.com/verte-zerg/cfheat/internal/canvas"
	"github.com/verte-zerg/cfheat/internal/codeforces"
	"github.com/verte-zerg/cfheat/internal/heatmap"
	"github.com/verte-zerg/cfheat/internal/model"
)

const (
	frameInterval = time.Second / 30
	detailPadding = 1
	// gridTop is the number of header lines above the canvas.
	gridTop = 2
	// cellColumns is the terminal width of one day cell.
	cellColumns = 2
)

var (
	titleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	activeYearStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Underline(true)
	inactiveYearStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	headerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	dateStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	firstSolveStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ADD8E6"))
	repeatSolveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A9A9A9"))
	tooltipStyle      = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
	detailStyles = detailTableStyles()
)

// CacheFactory builds the submission cache for a handle.
type CacheFactory func(handle string) *aggregate.Cache

// Options configures the Model.
type Options struct {
	Handle    string
	Year      int
	NewCache  CacheFactory
	Location  *time.Location
	WeekStart time.Weekday
	Now       func() time.Time
	Canvas    []canvas.Option
	Logger    *zap.Logger
	// LogPath is shown when a history comes back empty.
	LogPath string
}

type loadedMsg struct {
	cache *aggregate.Cache
}

type frameMsg time.Time

// Model implements the Bubble Tea heatmap UI.
type Model struct {
	opts Options

	handle    string
	cache     *aggregate.Cache
	canvas    *canvas.Canvas
	renderer  *heatmap.Renderer
	years     *yearSelect
	cellIndex map[heatmap.ElementID]int
	cursor    int
	// scroll is the first canvas column on screen.
	scroll int

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	details table.Model
	input   textinput.Model

	loading     bool
	animating   bool
	inputMode   bool
	showDetails bool
	inputError  string
	errMsg      string
	width       int
	height      int
}

// NewModel constructs the UI for opts.Handle. Nothing is fetched until Init.
func NewModel(opts Options) (*Model, error) {
	handle := strings.TrimSpace(opts.Handle)
	if handle == "" {
		return nil, errors.New("handle is required")
	}
	if opts.NewCache == nil {
		return nil, errors.New("cache factory is required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	m := &Model{
		opts:    opts,
		years:   &yearSelect{value: opts.Year},
		keys:    keys,
		help:    help.New(),
		spinner: s,
		input:   newHandleInput(),
		cursor:  -1,
	}
	m.details = table.New(
		table.WithColumns(detailColumns(60)),
		table.WithFocused(true),
		table.WithHeight(6),
	)
	m.details.SetStyles(detailStyles)
	if err := m.bind(handle); err != nil {
		return nil, err
	}
	return m, nil
}

// bind points the model at handle with a fresh canvas and renderer.
func (m *Model) bind(handle string) error {
	cache := m.opts.NewCache(handle)
	if cache == nil {
		return fmt.Errorf("no cache for %q", handle)
	}
	c := canvas.New(m.opts.Canvas...)
	r, err := heatmap.New(c, cache,
		heatmap.WithSelector(m.years),
		heatmap.WithLocation(m.opts.Location),
		heatmap.WithWeekStart(m.opts.WeekStart),
		heatmap.WithClock(m.opts.Now),
		heatmap.WithLogger(m.opts.Logger))
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}
	m.handle = handle
	m.cache = cache
	m.canvas = c
	m.renderer = r
	m.cellIndex = nil
	m.cursor = -1
	m.scroll = 0
	m.loading = true
	m.errMsg = ""
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) load() tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		cache.Get(context.Background())
		return loadedMsg{cache: cache}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// animate starts the frame loop unless it is already running.
func (m *Model) animate() tea.Cmd {
	if m.animating || !m.canvas.Animating() {
		return nil
	}
	m.animating = true
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layoutDetails()
		if !m.loading {
			m.scrollToCursor()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadedMsg:
		if msg.cache != m.cache {
			return m, nil
		}
		m.loading = false
		if err := m.renderer.Render(context.Background(), m.years.value); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.afterRender()
		return m, m.animate()
	case frameMsg:
		if m.canvas.Animating() {
			return m, m.tick()
		}
		m.animating = false
		return m, nil
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		if m.inputMode {
			return m.updateInput(msg)
		}
		if m.showDetails {
			return m.updateDetails(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.loading {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-7)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(7)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Older):
		return m, m.switchYear(m.years.step(1))
	case key.Matches(msg, m.keys.Newer):
		return m, m.switchYear(m.years.step(-1))
	case key.Matches(msg, m.keys.Rolling):
		return m, m.switchYear(m.years.choose(model.RollingYear))
	case key.Matches(msg, m.keys.Details):
		m.openDetails()
	case key.Matches(msg, m.keys.Handle):
		m.inputMode = true
		m.inputError = ""
		m.input.SetValue("")
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// switchYear runs after the selector fired; the renderer has already redrawn.
func (m *Model) switchYear(changed bool) tea.Cmd {
	if !changed {
		return nil
	}
	m.afterRender()
	return m.animate()
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.loading || m.inputMode || m.showDetails {
		return m, nil
	}
	col, row := msg.X+m.scroll, msg.Y-gridTop
	m.canvas.MoveTo(col, row)
	if id, ok := m.canvas.ElementAt(col, row); ok {
		if i, ok := m.cellIndex[id]; ok {
			m.cursor = i
			m.canvas.SetCursor(id)
			if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
				m.openDetails()
			}
		}
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputMode = false
		m.inputError = ""
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		handle := strings.TrimSpace(m.input.Value())
		if !codeforces.ValidHandle(handle) {
			m.inputError = "Handles are 1-24 letters, digits, '_', '-' or '.'"
			return m, nil
		}
		m.inputMode = false
		m.inputError = ""
		m.input.Blur()
		if strings.EqualFold(handle, m.handle) {
			return m, nil
		}
		m.years.value = model.RollingYear
		if err := m.bind(handle); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.opts.Logger.Info("switched handle", zap.String("handle", handle))
		return m, tea.Batch(m.spinner.Tick, m.load())
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.Back, m.keys.Details) || msg.String() == "q" {
		m.showDetails = false
		return m, nil
	}
	var cmd tea.Cmd
	m.details, cmd = m.details.Update(msg)
	return m, cmd
}

// afterRender indexes the new cells and puts the cursor on today, or on the
// last day of a past year.
func (m *Model) afterRender() {
	grid := m.renderer.Grid()
	m.cellIndex = make(map[heatmap.ElementID]int, len(grid.Cells))
	for i := range grid.Cells {
		if id, ok := m.renderer.CellElement(i); ok {
			m.cellIndex[id] = i
		}
	}
	m.cursor = len(grid.Cells) - 1
	today := m.opts.Now().In(m.opts.Location).Format(model.DateLayout)
	for i, cell := range grid.Cells {
		if cell.Key == today {
			m.cursor = i
			break
		}
	}
	m.focusCursor()
}

func (m *Model) moveCursor(delta int) {
	cells := len(m.renderer.Grid().Cells)
	if cells == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= cells {
		return
	}
	m.cursor = next
	m.focusCursor()
}

func (m *Model) focusCursor() {
	id, ok := m.renderer.CellElement(m.cursor)
	if !ok {
		m.canvas.SetCursor(-1)
		return
	}
	m.canvas.Focus(id)
	m.canvas.SetCursor(id)
	m.scrollToCursor()
}

// scrollToCursor shifts the visible columns so the cursor cell stays on
// screen when the grid is wider than the terminal.
func (m *Model) scrollToCursor() {
	total, _ := m.canvas.Size()
	if m.width <= 0 || total <= m.width {
		m.scroll = 0
		return
	}
	if id, ok := m.renderer.CellElement(m.cursor); ok {
		if col, _, ok := m.canvas.Position(id); ok {
			if col < m.scroll {
				m.scroll = col
			}
			if end := col + cellColumns; end > m.scroll+m.width {
				m.scroll = end - m.width
			}
		}
	}
	m.scroll = minInt(maxInt(m.scroll, 0), total-m.width)
}

func (m *Model) cursorCell() (calendar.Cell, bool) {
	cells := m.renderer.Grid().Cells
	if m.cursor < 0 || m.cursor >= len(cells) {
		return calendar.Cell{}, false
	}
	return cells[m.cursor], true
}

// cursorTooltip returns the tooltip when it belongs to the cursor's day.
func (m *Model) cursorTooltip() (heatmap.Tooltip, bool) {
	cell, ok := m.cursorCell()
	if !ok {
		return heatmap.Tooltip{}, false
	}
	tip := m.renderer.Tooltip()
	if !tip.Visible || tip.Key != cell.Key {
		return heatmap.Tooltip{}, false
	}
	return tip, true
}

func (m *Model) openDetails() {
	tip, ok := m.cursorTooltip()
	if !ok {
		return
	}
	rows := make([]table.Row, 0, len(tip.Entries))
	for _, e := range tip.Entries {
		kind := "first"
		if e.Duplicate {
			kind = "repeat"
		}
		rows = append(rows, table.Row{e.Name, fmt.Sprintf("%d", e.Rating), kind, e.Link})
	}
	m.details.SetRows(rows)
	m.details.GotoTop()
	m.layoutDetails()
	m.showDetails = true
}

// layoutDetails sizes the table to the modal body. SetHeight counts the
// header lines, so they are added on top of the rows.
func (m *Model) layoutDetails() {
	width := maxInt(modalWidth(m.width)-6, 40)
	m.details.SetColumns(detailColumns(width))
	m.details.SetWidth(width)
	header := lipgloss.Height(detailStyles.Header.Render("Problem"))
	rows := maxInt(len(m.details.Rows()), 1)
	if m.height > 0 {
		rows = minInt(rows, maxInt(m.height-10-header, 1))
	}
	m.details.SetHeight(rows + header)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.loading {
		return fitLines(m.renderLoading(), m.width, m.height)
	}
	if m.inputMode {
		return fitLines(m.renderHandleModal(), m.width, m.height)
	}
	if m.showDetails {
		return fitLines(m.renderDetails(), m.width, m.height)
	}

	sections := []string{
		m.renderHeader(),
		"",
		m.canvas.View(m.scroll, m.width),
		"",
		m.renderDay(),
	}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	body := strings.Join(sections, "\n")
	footer := m.help.View(m.keys)
	footerHeight := lipgloss.Height(footer)
	bodyHeight := maxInt(m.height-footerHeight, 0)
	return fitLines(body, m.width, bodyHeight) + "\n" + fitLines(footer, m.width, footerHeight)
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render("cfheat") + " " + dateStyle.Render(m.handle) + "  "
	return title + m.years.View(m.width-lipgloss.Width(title))
}

func (m *Model) renderDay() string {
	cell, ok := m.cursorCell()
	if !ok {
		return ""
	}
	heading := dateStyle.Render(cell.Date.Format("Monday, 2 Jan 2006"))
	tip, ok := m.cursorTooltip()
	if !ok {
		return heading + "\n" + headerStyle.Render("No accepted submissions")
	}
	lines := []string{heading}
	for _, e := range tip.Entries {
		if e.Duplicate {
			lines = append(lines, repeatSolveStyle.Render(truncateLine(e.Label()+" (repeat)", m.width-4)))
			continue
		}
		lines = append(lines, firstSolveStyle.Render(truncateLine(e.Label(), m.width-4)))
	}
	return tooltipStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatus() string {
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	res := m.renderer.Result()
	if len(res.Index) > 1 {
		return ""
	}
	msg := "No accepted submissions found for " + m.handle + "."
	if m.opts.LogPath != "" {
		msg += " Fetch errors are logged to " + m.opts.LogPath
	}
	return headerStyle.Render(truncateLine(msg, m.width))
}

func (m *Model) renderLoading() string {
	box := modalStyle.Render(fmt.Sprintf("%s Fetching submissions for %s...", m.spinner.View(), m.handle))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderHandleModal() string {
	body := []string{
		dateStyle.Render("Switch Handle"),
		m.input.View(),
		headerStyle.Render("Enter to load / Esc to cancel"),
	}
	if m.inputError != "" {
		body = append(body, errorStyle.Render(m.inputError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderDetails() string {
	cell, _ := m.cursorCell()
	body := []string{
		dateStyle.Render(cell.Date.Format("Monday, 2 Jan 2006")),
		m.details.View(),
		headerStyle.Render("Esc to close"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func newHandleInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "Handle: "
	input.CharLimit = 24
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// detailColumns splits width between the columns. Every cell carries one
// column of right padding.
func detailColumns(width int) []table.Column {
	rating := 6
	kind := 7
	rest := maxInt(width-detailPadding*4-rating-kind, 20)
	name := rest * 2 / 5
	return []table.Column{
		{Title: "Problem", Width: name},
		{Title: "Rating", Width: rating},
		{Title: "Solve", Width: kind},
		{Title: "Link", Width: rest - name},
	}
}

func detailTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, detailPadding, 0, 0)
	styles.Cell = styles.Cell.
		Padding(0, detailPadding, 0, 0)
	styles.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func modalWidth(width int) int {
	if width <= 0 {
		return 60
	}
	return minInt(maxInt(width-8, 30), 100)
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
