package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/cfheat/internal/aggregate"
	"github.com/verte-zerg/cfheat/internal/model"
)

var testNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*httptest.Server
	fetches atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{}
	fetcher := aggregate.FetcherFunc(func(_ context.Context, handle string) ([]model.RawSubmission, error) {
		ts.fetches.Add(1)
		if handle == "broken" {
			return nil, errors.New("upstream down")
		}
		return []model.RawSubmission{
			{ID: 1, ContestID: "1", Index: "A", Name: "Alpha", Rating: 800, Verdict: "OK", CreatedAt: time.Date(2023, 4, 1, 10, 0, 0, 0, time.UTC)},
			{ID: 2, ContestID: "2", Index: "B", Name: "Beta", Rating: 1900, Verdict: "OK", CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
			{ID: 3, ContestID: "1", Index: "A", Name: "Alpha", Rating: 800, Verdict: "OK", CreatedAt: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)},
		}, nil
	})
	clock := func() time.Time { return testNow }
	srv := New(func(handle string) *aggregate.Cache {
		return aggregate.NewCache(fetcher, handle, aggregate.WithLocation(time.UTC), aggregate.WithClock(clock))
	}, WithLocation(time.UTC), WithClock(clock))
	ts.Server = httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"success"`)
}

func TestSVGHeatmap(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/heatmap/tourist.svg?year=2024")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "<svg"))
	assert.Equal(t, 367, strings.Count(body, "<rect "))
	assert.Contains(t, body, "Beta (1900)")
}

func TestJSONHeatmapSharesCache(t *testing.T) {
	ts := newTestServer(t)
	_, _ = get(t, ts.URL+"/heatmap/tourist.svg")
	resp, body := get(t, ts.URL+"/heatmap/Tourist.json?year=2024")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), ts.fetches.Load())

	var decoded struct {
		Status string      `json:"status"`
		Data   heatmapJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, "success", decoded.Status)
	assert.Equal(t, 2024, decoded.Data.Year)
	assert.Equal(t, 2023, decoded.Data.FirstYear)
	assert.Equal(t, []int{2024, 2023}, decoded.Data.Years)
	require.Len(t, decoded.Data.Days, 1)
	day := decoded.Data.Days[0]
	assert.Equal(t, "2024-03-01", day.Date)
	require.Len(t, day.Problems, 2)
	assert.True(t, day.Problems[1].Duplicate)
	require.Len(t, decoded.Data.Options, 3)
	assert.Equal(t, 0, decoded.Data.Options[0].Value)
	assert.Len(t, decoded.Data.Tiers, 10)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/heatmap/tourist.svg?year=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "invalid year")

	resp, _ = get(t, ts.URL+"/heatmap/tourist.svg?year=-4")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/heatmap/bad%20handle.svg")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, ts.URL+"/heatmap/tourist.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(0), ts.fetches.Load())
}

func TestUpstreamFailureServesEmptyGrid(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/heatmap/broken.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decoded struct {
		Data heatmapJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Empty(t, decoded.Data.Days)
	assert.Equal(t, aggregate.DefaultFallbackYear, decoded.Data.FirstYear)
	assert.True(t, decoded.Data.Loaded)
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://codeforces.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

type lifecycleServer struct {
	*httptest.Server
	srv     *Server
	offset  atomic.Int64
	fetches atomic.Int32
}

// newLifecycleServer fails the first fetch and succeeds afterwards.
func newLifecycleServer(t *testing.T, opts ...Option) *lifecycleServer {
	t.Helper()
	ls := &lifecycleServer{}
	fetcher := aggregate.FetcherFunc(func(_ context.Context, handle string) ([]model.RawSubmission, error) {
		if ls.fetches.Add(1) == 1 {
			return nil, errors.New("upstream down")
		}
		return []model.RawSubmission{
			{ID: 1, ContestID: "1", Index: "A", Name: "Alpha", Rating: 800, Verdict: "OK", CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		}, nil
	})
	clock := func() time.Time { return testNow.Add(time.Duration(ls.offset.Load())) }
	opts = append([]Option{WithLocation(time.UTC), WithClock(clock)}, opts...)
	ls.srv = New(func(handle string) *aggregate.Cache {
		return aggregate.NewCache(fetcher, handle, aggregate.WithLocation(time.UTC), aggregate.WithClock(clock))
	}, opts...)
	ls.Server = httptest.NewServer(ls.srv.Handler())
	t.Cleanup(ls.Close)
	return ls
}

func (ls *lifecycleServer) advance(d time.Duration) {
	ls.offset.Add(int64(d))
}

func (ls *lifecycleServer) days(t *testing.T, handle string) int {
	t.Helper()
	resp, body := get(t, ls.URL+"/heatmap/"+handle+".json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decoded struct {
		Data heatmapJSON `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	return len(decoded.Data.Days)
}

func TestFailedHistoryIsRetried(t *testing.T) {
	ls := newLifecycleServer(t, WithRetryAfter(time.Minute), WithTTL(time.Hour))

	assert.Equal(t, 0, ls.days(t, "tourist"))
	assert.Equal(t, 0, ls.days(t, "tourist"))
	assert.Equal(t, int32(1), ls.fetches.Load(), "failures are kept until the retry window passes")

	ls.advance(time.Minute)
	assert.Equal(t, 1, ls.days(t, "tourist"))
	assert.Equal(t, int32(2), ls.fetches.Load())

	ls.advance(30 * time.Minute)
	assert.Equal(t, 1, ls.days(t, "tourist"))
	assert.Equal(t, int32(2), ls.fetches.Load())

	ls.advance(time.Hour)
	assert.Equal(t, 1, ls.days(t, "tourist"))
	assert.Equal(t, int32(3), ls.fetches.Load(), "successful histories refresh after the TTL")
}

func TestHandleCountIsBounded(t *testing.T) {
	ls := newLifecycleServer(t, WithMaxHandles(3), WithTTL(time.Hour))
	for _, handle := range []string{"h1", "h2", "h3", "h4"} {
		_ = ls.days(t, handle)
		ls.advance(time.Second)
	}
	assert.Equal(t, 3, ls.srv.caches.Size())
	_, ok := ls.srv.caches.Load("h1")
	assert.False(t, ok, "the oldest handle is evicted")
	_, ok = ls.srv.caches.Load("h4")
	assert.True(t, ok)

	_, body := get(t, ls.URL+"/healthz")
	assert.Contains(t, body, `"handles":3`)

	ls.advance(2 * time.Hour)
	_ = ls.days(t, "h5")
	assert.Equal(t, 1, ls.srv.caches.Size(), "expired entries are swept first")
}
