// Package config loads vexobs configuration from a .vexobs.yaml file in
// the logs root using Viper. Missing files fall back to documented
// defaults so a fresh installation works without any setup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/vexhq/vexobs/pkg/models"
)

// Config holds all tunable settings. The logs root itself is not part of
// the config file: it is resolved from the environment and threaded into
// each component at construction time.
type Config struct {
	// Pricing is the per-model price table used to derive token costs.
	Pricing models.PriceTable `yaml:"pricing"`

	// SlowThresholdMS is the latency above which an operation counts as
	// slow for the performance grade.
	SlowThresholdMS float64 `yaml:"slow_threshold_ms"`

	// DiagLevel controls vexobs's own diagnostic logging (panic, fatal,
	// error, warn, info, debug). It never affects the data plane.
	DiagLevel string `yaml:"diag_level"`
}

// Manager loads and writes configuration files relative to the logs root.
type Manager interface {
	Load() (*Config, error)
	WriteDefault() (string, error)
}

// viperConfigManager implements Manager using Viper for reading the YAML
// configuration file.
type viperConfigManager struct {
	root string
}

// NewManager creates a Manager that reads .vexobs.yaml from the given
// logs root.
func NewManager(root string) Manager {
	return &viperConfigManager{root: root}
}

// Default returns a Config populated with documented defaults.
func Default() *Config {
	return &Config{
		Pricing: models.PriceTable{
			Models: map[string]models.ModelPrice{
				"gpt-4o":           {InputPerMTok: 2.50, OutputPerMTok: 10.00},
				"gpt-4o-mini":      {InputPerMTok: 0.15, OutputPerMTok: 0.60},
				"nomic-embed-text": {InputPerMTok: 0.02, OutputPerMTok: 0.02},
			},
			Default: models.ModelPrice{InputPerMTok: 1.00, OutputPerMTok: 3.00},
		},
		SlowThresholdMS: 10_000,
		DiagLevel:       "warn",
	}
}

// Load reads .vexobs.yaml from the root using Viper. A missing file is not
// an error: defaults are returned.
func (m *viperConfigManager) Load() (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(".vexobs")
	v.SetConfigType("yaml")
	v.AddConfigPath(m.root)

	v.SetDefault("slow_threshold_ms", cfg.SlowThresholdMS)
	v.SetDefault("diag_level", cfg.DiagLevel)
	v.SetDefault("pricing.default.input_per_mtok", cfg.Pricing.Default.InputPerMTok)
	v.SetDefault("pricing.default.output_per_mtok", cfg.Pricing.Default.OutputPerMTok)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .vexobs.yaml: %w", err)
	}

	cfg.SlowThresholdMS = v.GetFloat64("slow_threshold_ms")
	cfg.DiagLevel = v.GetString("diag_level")
	cfg.Pricing.Default.InputPerMTok = v.GetFloat64("pricing.default.input_per_mtok")
	cfg.Pricing.Default.OutputPerMTok = v.GetFloat64("pricing.default.output_per_mtok")

	// Parse the pricing.models map if present, replacing the built-in table.
	if raw := v.GetStringMap("pricing.models"); len(raw) > 0 {
		parsed := make(map[string]models.ModelPrice, len(raw))
		for name, item := range raw {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			var price models.ModelPrice
			if in, ok := toFloat(entry["input_per_mtok"]); ok {
				price.InputPerMTok = in
			}
			if out, ok := toFloat(entry["output_per_mtok"]); ok {
				price.OutputPerMTok = out
			}
			parsed[name] = price
		}
		cfg.Pricing.Models = parsed
	}

	if cfg.SlowThresholdMS <= 0 {
		return nil, fmt.Errorf("config validation failed: slow_threshold_ms must be positive, got %v", cfg.SlowThresholdMS)
	}

	return cfg, nil
}

// WriteDefault writes a .vexobs.yaml containing the default configuration
// and returns its path. An existing file is never overwritten.
func (m *viperConfigManager) WriteDefault() (string, error) {
	path := filepath.Join(m.root, ".vexobs.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists at %s", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshalling default config: %w", err)
	}

	if err := os.MkdirAll(m.root, 0o700); err != nil {
		return "", fmt.Errorf("creating logs root: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}
	return path, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
