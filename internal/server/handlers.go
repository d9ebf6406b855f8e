package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/verte-zerg/cfheat/internal/codeforces"
	"github.com/verte-zerg/cfheat/internal/heatmap"
	"github.com/verte-zerg/cfheat/internal/model"
	"github.com/verte-zerg/cfheat/internal/rating"
	"github.com/verte-zerg/cfheat/internal/svg"
)

type jsonResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	ErrMsg string `json:"message,omitempty"`
}

type heatmapJSON struct {
	Handle    string       `json:"handle"`
	Year      int          `json:"year"`
	FirstYear int          `json:"firstYear"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Years     []int        `json:"years"`
	Days      []dayJSON    `json:"days"`
	Tiers     []tierJSON   `json:"tiers"`
	Neutral   string       `json:"neutral"`
	Loaded    bool         `json:"loaded"`
	Options   []optionJSON `json:"options"`
}

type dayJSON struct {
	Date     string        `json:"date"`
	Color    string        `json:"color"`
	Problems []problemJSON `json:"problems"`
}

type problemJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Link      string `json:"link"`
	Duplicate bool   `json:"duplicate"`
}

type tierJSON struct {
	MinRating int    `json:"minRating"`
	Color     string `json:"color"`
}

type optionJSON struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, jsonResponse{Status: "success", Data: map[string]int{"handles": s.caches.Size()}})
}

func (s *Server) heatmap(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := path.Ext(file)
	handle := strings.TrimSuffix(file, ext)
	if !codeforces.ValidHandle(handle) {
		writeError(w, http.StatusBadRequest, "invalid handle")
		return
	}
	if ext != ".svg" && ext != ".json" {
		writeError(w, http.StatusNotFound, "unknown format (use .svg or .json)")
		return
	}
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc := svg.New()
	cache := s.cache(handle)
	renderer, err := heatmap.New(doc, cache,
		heatmap.WithLocation(s.location),
		heatmap.WithWeekStart(s.weekStart),
		heatmap.WithClock(s.now),
		heatmap.WithLogger(s.logger))
	if err != nil {
		s.logger.Error("failed to build renderer", zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	if err := renderer.Render(r.Context(), year); err != nil {
		if errors.Is(err, heatmap.ErrInvalidYear) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to render heatmap", zap.String("handle", handle), zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if ext == ".json" {
		writeJSON(w, http.StatusOK, jsonResponse{Status: "success", Data: buildHeatmapJSON(handle, cache.Loaded(), renderer)})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := doc.WriteTo(w); err != nil {
		s.logger.Warn("failed to write svg", zap.Error(err))
	}
}

func buildHeatmapJSON(handle string, loaded bool, r *heatmap.Renderer) heatmapJSON {
	grid := r.Grid()
	res := r.Result()
	days := res.Days(r.Active())
	classifier := rating.Default()

	out := heatmapJSON{
		Handle:    handle,
		Year:      r.Active(),
		FirstYear: res.FirstYear,
		Start:     grid.Start.Format(model.DateLayout),
		End:       grid.End.Format(model.DateLayout),
		Neutral:   rating.Neutral.Hex(),
		Loaded:    loaded,
		Days:      []dayJSON{},
	}
	for year := range res.Index {
		if year != model.RollingYear {
			out.Years = append(out.Years, year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out.Years)))
	for _, cell := range grid.Cells {
		bucket := days[cell.Key]
		if bucket == nil || len(bucket.Problems) == 0 {
			continue
		}
		day := dayJSON{Date: cell.Key, Color: classifier.Classify(bucket.Problems).CSS()}
		for _, p := range bucket.Problems {
			day.Problems = append(day.Problems, problemJSON{
				ID:        p.ProblemID,
				Name:      p.Name,
				Rating:    p.Rating,
				Link:      p.Link,
				Duplicate: p.IsDuplicate,
			})
		}
		out.Days = append(out.Days, day)
	}
	for _, tier := range classifier.Tiers() {
		out.Tiers = append(out.Tiers, tierJSON{MinRating: tier.MinRating, Color: tier.Color.CSS()})
	}
	for _, opt := range r.Options() {
		out.Options = append(out.Options, optionJSON{Value: opt.Value, Label: opt.Label})
	}
	return out
}

func parseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.RollingYear, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid year (use an integer, 0 for the last 365 days)")
	}
	return year, nil
}

func writeJSON(w http.ResponseWriter, status int, resp jsonResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, jsonResponse{Status: "error", ErrMsg: msg})
}
