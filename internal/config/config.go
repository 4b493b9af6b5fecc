// Package config loads the checkup YAML configuration and applies
// CHECKUP_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Engine names accepted in Model.Engine.
const (
	EngineNative      = "native"
	EngineOnnxRuntime = "onnxruntime"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CHECKUP_"

// Config is the full checkup configuration.
type Config struct {
	Model ModelConfig `yaml:"model" envPrefix:"MODEL_"`
	Log   LogConfig   `yaml:"log" envPrefix:"LOG_"`
}

// ModelConfig selects the model file, the engine and the feature labels.
type ModelConfig struct {
	Path    string   `yaml:"path" env:"PATH"`
	Engine  string   `yaml:"engine" env:"ENGINE"`
	Strict  bool     `yaml:"strict" env:"STRICT"`
	Library string   `yaml:"library" env:"LIBRARY"`
	Inputs  []string `yaml:"inputs" env:"INPUTS" envSeparator:","`
	Outputs []string `yaml:"outputs" env:"OUTPUTS" envSeparator:","`
}

// LogConfig controls the zap logger. File is empty for stderr output.
type LogConfig struct {
	Level      string `yaml:"level" env:"LEVEL"`
	Format     string `yaml:"format" env:"FORMAT"`
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress" env:"COMPRESS"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Engine: EngineNative,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the model section. Log settings are checked when the
// logger is built.
func (c *Config) Validate() error {
	var errs []error
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	switch c.Model.Engine {
	case EngineNative, EngineOnnxRuntime:
	default:
		errs = append(errs, fmt.Errorf("model.engine %q: want %q or %q", c.Model.Engine, EngineNative, EngineOnnxRuntime))
	}
	if len(c.Model.Inputs) == 0 {
		errs = append(errs, errors.New("model.inputs is empty"))
	}
	if len(c.Model.Outputs) == 0 {
		errs = append(errs, errors.New("model.outputs is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
