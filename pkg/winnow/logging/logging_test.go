package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"WARN", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"trace", LevelInfo, true},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidLevel, "ParseLevel(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseLevel(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseLevel(%q)", tt.in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "error", LevelError.String())
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	logger := Get("uninitialized-component")
	require.NotNil(t, logger)
	// Must not panic.
	logger.Info("discarded")
	logger.Error("also discarded")
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "winnow.log")
	require.NoError(t, Init(Config{Level: "debug", Path: path}))
	t.Cleanup(func() { _ = Close() })

	logger := Get("scanner")
	logger.Info("scan started", "root", "/data")
	logger.Debug("visiting", "path", "/data/a.txt")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "scan started")
	assert.Contains(t, content, "root=/data")
	assert.Contains(t, content, "scanner")
	assert.Contains(t, content, "visiting")
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winnow.log")
	require.NoError(t, Init(Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"chatty": "debug"},
	}))
	t.Cleanup(func() { _ = Close() })

	Get("chatty").Debug("override lets this through")
	Get("quiet-component").Info("default level drops this")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "override lets this through")
	assert.NotContains(t, content, "default level drops this")
}

func TestReinitRebindsExistingLoggers(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	second := filepath.Join(dir, "second.log")

	require.NoError(t, Init(Config{Level: "info", Path: first}))
	logger := Get("session")
	logger.Info("to first")

	require.NoError(t, Init(Config{Level: "info", Path: second}))
	t.Cleanup(func() { _ = Close() })
	logger = Get("session")
	logger.Info("to second")

	firstData, err := os.ReadFile(first)
	require.NoError(t, err)
	secondData, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(firstData), "to first")
	assert.NotContains(t, string(firstData), "to second")
	assert.Contains(t, string(secondData), "to second")
}

func TestInitRejectsBadLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winnow.log")
	assert.Error(t, Init(Config{Level: "loud", Path: path}))
	assert.Error(t, Init(Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"scanner": "shouty"},
	}))
}

func TestWithCarriesContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "winnow.log")
	require.NoError(t, Init(Config{Level: "info", Path: path}))
	t.Cleanup(func() { _ = Close() })

	Get("executor").With("unit", "abc123").Info("moved file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "unit=abc123")
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	assert.Contains(t, path, "winnow")
	assert.Equal(t, "winnow.log", filepath.Base(path))
}
