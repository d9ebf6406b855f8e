// Package heatmap draws a submission calendar onto an abstract surface.
package heatmap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/cfheat/internal/aggregate"
	"github.com/verte-zerg/cfheat/internal/calendar"
	"github.com/verte-zerg/cfheat/internal/model"
	"github.com/verte-zerg/cfheat/internal/rating"
)

// DefaultTransition is the recolor animation length.
const DefaultTransition = 200 * time.Millisecond

// RollingLabel names the rolling selector option.
const RollingLabel = "Last 365 days"

// ErrNoSurface is returned when a renderer is built without a surface.
var ErrNoSurface = errors.New("heatmap: drawing surface is required")

// ErrNoSource is returned when a renderer is built without a data source.
var ErrNoSource = errors.New("heatmap: data source is required")

// ErrInvalidYear is returned for selectors outside the supported range.
var ErrInvalidYear = errors.New("heatmap: invalid year selector")

var frameFill = rating.RGBA(255, 255, 255, 0)

// Source provides the aggregated history.
type Source interface {
	Get(ctx context.Context) aggregate.Result
}

// Renderer composes grid geometry with aggregated data.
type Renderer struct {
	surface    Surface
	selector   Selector
	source     Source
	classifier *rating.Classifier
	layout     calendar.Layout
	weekStart  time.Weekday
	location   *time.Location
	now        func() time.Time
	transition time.Duration
	logger     *zap.Logger

	active  int
	grid    calendar.Grid
	cellIDs []ElementID
	frameID ElementID
	result  aggregate.Result
	options []YearOption
	tooltip Tooltip
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSelector attaches a year-selection control.
func WithSelector(s Selector) Option {
	return func(r *Renderer) { r.selector = s }
}

// WithClassifier replaces the rating classifier.
func WithClassifier(c *rating.Classifier) Option {
	return func(r *Renderer) {
		if c != nil {
			r.classifier = c
		}
	}
}

// WithLayout replaces the surface geometry.
func WithLayout(l calendar.Layout) Option {
	return func(r *Renderer) { r.layout = l }
}

// WithWeekStart sets the rolling grid's first weekday.
func WithWeekStart(wd time.Weekday) Option {
	return func(r *Renderer) { r.weekStart = wd }
}

// WithLocation sets the zone of "today".
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTransition sets the recolor animation length.
func WithTransition(d time.Duration) Option {
	return func(r *Renderer) { r.transition = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// validator is implemented by surfaces and sources that can report a nil
// receiver hidden in a non-nil interface.
type validator interface {
	Valid() bool
}

func present(v any) bool {
	if v == nil {
		return false
	}
	if c, ok := v.(validator); ok {
		return c.Valid()
	}
	return true
}

// New constructs a Renderer. A missing surface or source is rejected,
// including typed nil pointers whose types implement Valid.
func New(surface Surface, source Source, opts ...Option) (*Renderer, error) {
	if !present(surface) {
		return nil, ErrNoSurface
	}
	if !present(source) {
		return nil, ErrNoSource
	}
	r := &Renderer{
		surface:    surface,
		source:     source,
		classifier: rating.Default(),
		layout:     calendar.DefaultLayout,
		weekStart:  calendar.DefaultWeekStart,
		location:   time.Local,
		now:        time.Now,
		transition: DefaultTransition,
		logger:     zap.NewNop(),
		frameID:    -1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.selector != nil {
		r.selector.OnChange(func(v int) {
			if err := r.Render(context.Background(), v); err != nil {
				r.logger.Warn("failed to switch year", zap.Int("year", v), zap.Error(err))
			}
		})
	}
	return r, nil
}

// Render rebuilds the grid for selector and colors it. The surface is reset
// first so nothing from a previous selection survives.
func (r *Renderer) Render(ctx context.Context, selector int) error {
	if selector < 0 || selector > 9999 {
		return fmt.Errorf("%w: %d", ErrInvalidYear, selector)
	}
	today := r.now().In(r.location)
	r.active = selector
	r.grid = calendar.ComputeGrid(selector, today, calendar.Options{WeekStart: r.weekStart, Location: r.location})
	r.tooltip = Tooltip{}
	r.layoutSurface()

	r.result = r.source.Get(ctx)
	days := r.result.Days(selector)
	titler, _ := r.surface.(Titler)
	painted := 0
	for i, cell := range r.grid.Cells {
		id := r.cellIDs[i]
		bucket := days[cell.Key]
		if bucket == nil || len(bucket.Problems) == 0 {
			r.surface.SetFill(id, rating.Neutral, r.transition)
			continue
		}
		painted++
		r.surface.SetFill(id, r.classifier.Classify(bucket.Problems), r.transition)
		b := bucket
		r.surface.OnEnter(id, func() { r.show(b) })
		if titler != nil {
			titler.SetTitle(id, NewTooltip(b).String())
		}
	}
	r.surface.OnLeave(r.frameID, r.hide)

	r.options = YearOptions(r.result.FirstYear, today.Year())
	if r.selector != nil {
		r.selector.SetOptions(r.options)
		r.selector.SetValue(selector)
	}
	r.logger.Debug("rendered heatmap",
		zap.Int("selector", selector),
		zap.Int("cells", len(r.grid.Cells)),
		zap.Int("active_days", painted))
	return nil
}

func (r *Renderer) layoutSurface() {
	l := r.layout
	r.surface.Reset(l.Width, l.Height)
	origin, w, h := l.GridBounds(r.grid.Weeks())
	r.frameID = r.surface.Rect(Rect{X: origin.X, Y: origin.Y, Width: w, Height: h, Fill: frameFill})
	for _, m := range r.grid.Months {
		p := l.MonthPoint(m)
		r.surface.Text(Text{X: p.X, Y: p.Y, Content: m.Label})
	}
	for _, d := range r.grid.DayLabels {
		p := l.DayPoint(d)
		r.surface.Text(Text{X: p.X, Y: p.Y, Content: d.Label, Anchor: AnchorEnd})
	}
	r.cellIDs = make([]ElementID, len(r.grid.Cells))
	size := l.CellExtent()
	for i, cell := range r.grid.Cells {
		p := l.CellOrigin(cell)
		r.cellIDs[i] = r.surface.Rect(Rect{X: p.X, Y: p.Y, Width: size, Height: size, Fill: rating.Neutral})
	}
}

func (r *Renderer) show(b *model.DayBucket) {
	r.tooltip = NewTooltip(b)
}

func (r *Renderer) hide() {
	r.tooltip.Visible = false
}

// Active returns the current selector.
func (r *Renderer) Active() int {
	return r.active
}

// Grid returns the current grid.
func (r *Renderer) Grid() calendar.Grid {
	return r.grid
}

// CellElement returns the surface element of the i-th grid cell.
func (r *Renderer) CellElement(i int) (ElementID, bool) {
	if i < 0 || i >= len(r.cellIDs) {
		return 0, false
	}
	return r.cellIDs[i], true
}

// FrameElement returns the element spanning the whole grid.
func (r *Renderer) FrameElement() ElementID {
	return r.frameID
}

// Result returns the data of the last render.
func (r *Renderer) Result() aggregate.Result {
	return r.result
}

// Options returns the year options of the last render.
func (r *Renderer) Options() []YearOption {
	return r.options
}

// Tooltip returns the current tooltip state.
func (r *Renderer) Tooltip() Tooltip {
	return r.tooltip
}

// YearOptions lists the rolling option followed by every year from current
// down to first.
func YearOptions(first, current int) []YearOption {
	opts := []YearOption{{Value: model.RollingYear, Label: RollingLabel}}
	if first > current {
		first = current
	}
	for y := current; y >= first; y-- {
		opts = append(opts, YearOption{Value: y, Label: fmt.Sprintf("%d", y)})
	}
	return opts
}
