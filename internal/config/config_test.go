package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// unset clears an environment variable for the duration of the test.
func unset(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	os.Unsetenv(name)
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "sheetcore.yaml", `
log:
  level: debug
  format: json
server:
  addr: "127.0.0.1:9000"
codec:
  autofit_cap: 80
condfmt:
  debounce: 250ms
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Expected debug/json logging, got %+v", cfg.Log)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Expected addr 127.0.0.1:9000, got %q", cfg.Server.Addr)
	}
	if cfg.Server.MaxUploadBytes != Default().Server.MaxUploadBytes {
		t.Errorf("Expected default upload limit, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Codec.AutofitCap != 80 {
		t.Errorf("Expected autofit cap 80, got %d", cfg.Codec.AutofitCap)
	}
	if cfg.Condfmt.Debounce != 250*time.Millisecond {
		t.Errorf("Expected 250ms debounce, got %v", cfg.Condfmt.Debounce)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "sheetcore.yaml", "log:\n  level: warn\n")
	t.Setenv("SHEETCORE_LOG_LEVEL", "error")
	t.Setenv("SHEETCORE_SERVER_MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Expected level error, got %q", cfg.Log.Level)
	}
	if cfg.Server.MaxUploadBytes != 1024 {
		t.Errorf("Expected 1024, got %d", cfg.Server.MaxUploadBytes)
	}
}

func TestLoadDotEnv(t *testing.T) {
	unset(t, "SHEETCORE_CODEC_META_SHEET_NAME")
	envFile := writeFile(t, ".env", "SHEETCORE_CODEC_META_SHEET_NAME=_meta\n")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Codec.MetaSheetName != "_meta" {
		t.Errorf("Expected meta sheet _meta, got %q", cfg.Codec.MetaSheetName)
	}
}

func TestLoadMissingDotEnv(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Expected a missing .env file to be ignored, got %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"level", map[string]string{"SHEETCORE_LOG_LEVEL": "loud"}},
		{"format", map[string]string{"SHEETCORE_LOG_FORMAT": "xml"}},
		{"upload size", map[string]string{"SHEETCORE_SERVER_MAX_UPLOAD_BYTES": "lots"}},
		{"autofit cap", map[string]string{"SHEETCORE_CODEC_AUTOFIT_CAP": "2"}},
		{"meta sheet name", map[string]string{"SHEETCORE_CODEC_META_SHEET_NAME": "bad/name"}},
		{"debounce", map[string]string{"SHEETCORE_CONDFMT_DEBOUNCE": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load("", ""); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml"), ""); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
