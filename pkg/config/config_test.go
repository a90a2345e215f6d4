package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != "csv" || cfg.TopN != 10 || cfg.HistogramBins != 30 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Fatalf("got timeout %v, want 60s", cfg.HTTPTimeout)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.yaml")
	body := "source: sql\ndsn: sqlite:///tmp/rfm.db\ntop_n: 5\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != "sql" || cfg.DSN != "sqlite:///tmp/rfm.db" || cfg.TopN != 5 || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfm.yaml")
	if err := os.WriteFile(path, []byte("top_n: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RFM_TOP_N", "20")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TopN != 20 {
		t.Fatalf("got top_n %d, want 20", cfg.TopN)
	}
}

func TestLoad_SQLRequiresDSN(t *testing.T) {
	t.Setenv("RFM_SOURCE", "sql")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for sql source without dsn, got nil")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("RFM_SOURCE", "parquet")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown source, got nil")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestRead_DefersValidation(t *testing.T) {
	t.Setenv("RFM_SOURCE", "sql")
	cfg, err := Read("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error before dsn override, got nil")
	}
	cfg.DSN = "sqlite:///tmp/rfm.db"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error after override: %v", err)
	}
}
