package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, EngineNative, cfg.Model.Engine)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
model:
  path: models/body.onnx
  engine: onnxruntime
  library: /usr/lib/libonnxruntime.so
  strict: true
  inputs: [height, weight]
  outputs: [fat_mass]
log:
  level: debug
  file: checkup.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "models/body.onnx", cfg.Model.Path)
	assert.Equal(t, EngineOnnxRuntime, cfg.Model.Engine)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", cfg.Model.Library)
	assert.True(t, cfg.Model.Strict)
	assert.Equal(t, []string{"height", "weight"}, cfg.Model.Inputs)
	assert.Equal(t, []string{"fat_mass"}, cfg.Model.Outputs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "checkup.log", cfg.Log.File)
	// Unset keys keep their defaults.
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
model:
  path: a.onnx
  inputs: [a]
  outputs: [x]
`)
	t.Setenv("CHECKUP_MODEL_PATH", "b.onnx")
	t.Setenv("CHECKUP_MODEL_INPUTS", "a,b,c")
	t.Setenv("CHECKUP_LOG_LEVEL", "warn")
	t.Setenv("CHECKUP_LOG_COMPRESS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "b.onnx", cfg.Model.Path)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Model.Inputs)
	assert.Equal(t, []string{"x"}, cfg.Model.Outputs)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Compress)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = Load(writeConfig(t, "model: [unclosed"))
	assert.ErrorContains(t, err, "parse config")

	t.Setenv("CHECKUP_MODEL_STRICT", "maybe")
	_, err = Load("")
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Model.Path = "m.onnx"
		cfg.Model.Inputs = []string{"a", "b"}
		cfg.Model.Outputs = []string{"x"}
		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no path", func(c *Config) { c.Model.Path = "" }, "model.path is required"},
		{"bad engine", func(c *Config) { c.Model.Engine = "tensorflow" }, `model.engine "tensorflow"`},
		{"no inputs", func(c *Config) { c.Model.Inputs = nil }, "model.inputs is empty"},
		{"no outputs", func(c *Config) { c.Model.Outputs = nil }, "model.outputs is empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tc.want)
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}
