package calendar

// Point is a surface coordinate. Text points are baselines.
type Point struct {
	X, Y int
}

// Layout places grid elements on a drawing surface.
type Layout struct {
	Width, Height int
	CellSize      int
	CellGap       int
	GridX, GridY  int
	MonthX        int
	MonthY        int
	DayLabelX     int
	DayLabelY     int
}

// DefaultLayout matches the host site's heatmap dimensions.
var DefaultLayout = Layout{
	Width:     850,
	Height:    200,
	CellSize:  15,
	CellGap:   2,
	GridX:     35,
	GridY:     20,
	MonthX:    45,
	MonthY:    12,
	DayLabelX: 30,
	DayLabelY: 30,
}

// CellOrigin is the top-left corner of a cell.
func (l Layout) CellOrigin(c Cell) Point {
	return Point{
		X: c.Week*l.CellSize + l.GridX,
		Y: int(c.Weekday)*l.CellSize + l.GridY,
	}
}

// CellExtent is the drawn width and height of a cell.
func (l Layout) CellExtent() int {
	return l.CellSize - l.CellGap
}

// MonthPoint is the baseline of a month label.
func (l Layout) MonthPoint(m MonthLabel) Point {
	return Point{X: m.Week*l.CellSize + l.MonthX, Y: l.MonthY}
}

// DayPoint is the right-aligned baseline of a day label.
func (l Layout) DayPoint(d DayLabel) Point {
	return Point{X: l.DayLabelX, Y: int(d.Weekday)*l.CellSize + l.DayLabelY}
}

// GridBounds returns the origin and size covering weeks columns.
func (l Layout) GridBounds(weeks int) (Point, int, int) {
	return Point{X: l.GridX, Y: l.GridY}, weeks * l.CellSize, 7 * l.CellSize
}
