package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/cfheat/internal/config"
	"github.com/verte-zerg/cfheat/internal/model"
)

const statusBody = `{"status":"OK","result":[
{"id":2,"contestId":2,"creationTimeSeconds":1709287200,"verdict":"OK","problem":{"contestId":2,"index":"B","name":"Beta","rating":1900}},
{"id":1,"contestId":1,"creationTimeSeconds":1680343200,"verdict":"OK","problem":{"contestId":1,"index":"A","name":"Alpha","rating":800}}
]}`

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	t.Setenv(config.HandleEnv, "")
	return dir
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user.status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statusBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExportWritesSVG(t *testing.T) {
	dir := isolate(t)
	api := newAPI(t)
	path := filepath.Join(dir, "tourist.svg")

	if _, err := execute(t, "export", "tourist", "--year", "2024", "--timezone", "utc",
		"--api-url", api.URL, "--out", path, "--log-level", "error"); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read svg: %v", err)
	}
	doc := string(data)
	if !strings.HasPrefix(doc, "<svg") {
		t.Fatalf("expected an svg document, got %q", doc[:20])
	}
	if got := strings.Count(doc, "<rect "); got != 367 {
		t.Fatalf("expected frame plus 366 cells, got %d", got)
	}
	if !strings.Contains(doc, "Beta (1900)") {
		t.Fatalf("expected a tooltip title for Beta")
	}
}

func TestSummaryCommand(t *testing.T) {
	isolate(t)
	api := newAPI(t)
	out, err := execute(t, "summary", "tourist", "--timezone", "utc", "--api-url", api.URL, "--log-level", "error")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "Summary for tourist") || !strings.Contains(out, "2024") || !strings.Contains(out, "2023") {
		t.Fatalf("unexpected summary:\n%s", out)
	}
}

func TestPrintPlain(t *testing.T) {
	isolate(t)
	api := newAPI(t)
	out, err := execute(t, "print", "tourist", "--year", "2023", "--timezone", "utc", "--api-url", api.URL, "--log-level", "error")
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.HasPrefix(out, "tourist  2023") {
		t.Fatalf("unexpected title: %q", strings.SplitN(out, "\n", 2)[0])
	}
	if strings.Count(out, "■") != 1 {
		t.Fatalf("expected one active day in 2023:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain output must not carry escape codes")
	}
}

func TestHandleFromEnvAndConfig(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config", "cfheat", "config.toml")
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "[profile]\nhandle = \"petr\"\n[heatmap]\nyear = 2022\nweek-start = \"mon\"\n[api]\ntimeout = \"5s\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--year", "2021"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := resolveConfig(cmd, nil, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Handle != "petr" || cfg.Year != 2021 || cfg.WeekStart != time.Monday || cfg.APITimeout != 5*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv(config.HandleEnv, "tourist")
	cfg, err = resolveConfig(newRootCmd(), nil, true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Handle != "tourist" || cfg.Year != 2022 {
		t.Fatalf("expected env handle and file year, got %+v", cfg)
	}

	cfg, err = resolveConfig(newRootCmd(), []string{"Um_nik"}, true)
	if err != nil || cfg.Handle != "Um_nik" {
		t.Fatalf("expected argument handle, got %+v (%v)", cfg, err)
	}
}

func TestHandleRequired(t *testing.T) {
	isolate(t)
	if _, err := resolveConfig(newRootCmd(), nil, true); err == nil {
		t.Fatalf("expected missing handle error")
	}
	if _, err := resolveConfig(newRootCmd(), nil, false); err != nil {
		t.Fatalf("serve needs no handle: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	base := model.Config{Handle: "tourist", FallbackYear: 2015, APIBaseURL: "https://codeforces.com", APITimeout: time.Second}
	if err := validateConfig(base); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	bad := []model.Config{base, base, base, base, base}
	bad[0].Handle = "bad handle"
	bad[1].Year = -1
	bad[2].FallbackYear = 0
	bad[3].APITimeout = -time.Second
	bad[4].APIBaseURL = " "
	for i, cfg := range bad {
		if err := validateConfig(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template should decode: %v", err)
	}
}

func TestServeRejectsBadLimits(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "serve", "--max-handles", "0", "--log-level", "error"); err == nil {
		t.Fatalf("expected an error for --max-handles 0")
	}
}
