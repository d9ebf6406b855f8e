package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]string{"": "info", "DEBUG": "debug", "warning": "warn", "error": "error"} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got.String())
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfheat.log")
	l, err := New(Options{Level: "info", Encoding: "json", Output: path})
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("fetched", zap.String("handle", "tourist"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
	assert.Contains(t, out, `"msg":"fetched"`)
	assert.Contains(t, out, `"handle":"tourist"`)
	assert.Contains(t, out, `"ts":`)
}

func TestNewRejectsBadEncoding(t *testing.T) {
	_, err := New(Options{Encoding: "xml"})
	require.Error(t, err)
}
