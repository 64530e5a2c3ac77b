package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Defaults() should validate, got %v", err)
	}
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ante.yaml")
	if err := os.WriteFile(path, []byte("defaulting:\n  int_width: 64\n  int_signed: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaulting.IntWidth != 64 {
		t.Fatalf("expected overridden int_width 64, got %d", cfg.Defaulting.IntWidth)
	}
	if cfg.Limits.MaxMonoDepth != Defaults().Limits.MaxMonoDepth {
		t.Fatalf("expected untouched field to keep its default, got %d", cfg.Limits.MaxMonoDepth)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ante.yaml")
	if err := os.WriteFile(path, []byte("defaulting:\n  int_wdith: 64\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown config key")
	}
}

func TestValidateRejectsBadIntWidth(t *testing.T) {
	cfg := Defaults()
	cfg.Defaulting.IntWidth = 7
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unsupported int width")
	}
}

func TestValidateRejectsUnknownSMTBackend(t *testing.T) {
	cfg := Defaults()
	cfg.SMT = "solver9000"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unknown SMT backend")
	}
}
