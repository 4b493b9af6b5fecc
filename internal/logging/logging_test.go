package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lzoffoli-tg/checkupy/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	cfg := config.Default().Log
	cfg.Format = "json"
	cfg.Level = "debug"
	cfg.File = filepath.Join(t.TempDir(), "checkup.log")

	logger, cleanup, err := New(cfg)
	require.NoError(t, err)
	logger.Debug("model loaded", zap.String("path", "m.onnx"))
	cleanup()

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "model loaded", entry["msg"])
	assert.Equal(t, "m.onnx", entry["path"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewFiltersByLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "warn"
	cfg.File = filepath.Join(t.TempDir(), "checkup.log")

	logger, cleanup, err := New(cfg)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept")
	cleanup()

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "WARN")
	assert.Contains(t, string(data), "kept")
}

func TestNewStderr(t *testing.T) {
	logger, cleanup, err := New(config.Default().Log)
	require.NoError(t, err)
	defer cleanup()
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewInvalid(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "loud"
	_, _, err := New(cfg)
	assert.ErrorContains(t, err, "log level")

	cfg = config.Default().Log
	cfg.Format = "xml"
	_, _, err = New(cfg)
	assert.ErrorContains(t, err, "log format")
}
