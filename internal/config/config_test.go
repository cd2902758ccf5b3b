package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := NewManager(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if cfg.SlowThresholdMS != 10_000 {
		t.Errorf("expected default slow threshold 10000, got %v", cfg.SlowThresholdMS)
	}
	if cfg.DiagLevel != "warn" {
		t.Errorf("expected default diag level warn, got %q", cfg.DiagLevel)
	}
	if cfg.Pricing.Default.InputPerMTok != 1.00 {
		t.Errorf("expected default input price 1.00, got %v", cfg.Pricing.Default.InputPerMTok)
	}
	if _, ok := cfg.Pricing.Models["gpt-4o"]; !ok {
		t.Error("expected built-in gpt-4o pricing entry")
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	root := t.TempDir()
	content := `slow_threshold_ms: 5000
diag_level: debug
pricing:
  default:
    input_per_mtok: 2.0
    output_per_mtok: 6.0
  models:
    my-local-model:
      input_per_mtok: 0.1
      output_per_mtok: 0.2
`
	if err := os.WriteFile(filepath.Join(root, ".vexobs.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewManager(root).Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if cfg.SlowThresholdMS != 5000 {
		t.Errorf("expected slow threshold 5000, got %v", cfg.SlowThresholdMS)
	}
	if cfg.DiagLevel != "debug" {
		t.Errorf("expected diag level debug, got %q", cfg.DiagLevel)
	}
	if cfg.Pricing.Default.OutputPerMTok != 6.0 {
		t.Errorf("expected default output price 6.0, got %v", cfg.Pricing.Default.OutputPerMTok)
	}
	price, ok := cfg.Pricing.Models["my-local-model"]
	if !ok {
		t.Fatal("expected my-local-model pricing entry")
	}
	if price.InputPerMTok != 0.1 || price.OutputPerMTok != 0.2 {
		t.Errorf("unexpected model price: %+v", price)
	}
}

func TestLoad_RejectsNonPositiveThreshold(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".vexobs.yaml"), []byte("slow_threshold_ms: -1\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := NewManager(root).Load(); err == nil {
		t.Fatal("expected validation error for negative threshold")
	}
}

func TestWriteDefault(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)

	path, err := m.WriteDefault()
	if err != nil {
		t.Fatalf("writing default: %v", err)
	}
	if path != filepath.Join(root, ".vexobs.yaml") {
		t.Errorf("unexpected path: %s", path)
	}

	// Written defaults round-trip through Load.
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("loading written defaults: %v", err)
	}
	if cfg.SlowThresholdMS != 10_000 {
		t.Errorf("expected threshold 10000 after round trip, got %v", cfg.SlowThresholdMS)
	}

	// A second write must refuse to clobber.
	if _, err := m.WriteDefault(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}
