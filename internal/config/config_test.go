package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 5000 || cfg.TLSPort != 5443 {
		t.Errorf("unexpected ports %d/%d", cfg.Port, cfg.TLSPort)
	}
	if cfg.LedgerPath != "jugs.csv" {
		t.Errorf("expected jugs.csv, got %q", cfg.LedgerPath)
	}
	if cfg.StorageDriver != DriverCSV {
		t.Errorf("expected csv driver, got %q", cfg.StorageDriver)
	}
	if cfg.CheckInterval != time.Minute || cfg.FailThreshold != 3 {
		t.Errorf("unexpected health config %v/%d", cfg.CheckInterval, cfg.FailThreshold)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.TLSEnabled() {
		t.Error("TLS must be disabled by default")
	}
	if cfg.ConfigFile != "" {
		t.Errorf("expected no config file, got %q", cfg.ConfigFile)
	}
}

func TestLoad_ledgerPathPrecedence(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LEDGER_PATH", "/data/env.csv")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LedgerPath != "/data/env.csv" {
		t.Errorf("expected env path, got %q", cfg.LedgerPath)
	}

	cfg, err = Load("", "arg.csv")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LedgerPath != "arg.csv" {
		t.Errorf("expected positional path to win, got %q", cfg.LedgerPath)
	}
}

func TestLoad_configFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.Mkdir("configs", 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "server:\n  port: 8080\nhealth:\n  check_interval: 30s\nstorage:\n  driver: memory\n"
	if err := os.WriteFile(filepath.Join("configs", "jugtracker.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.CheckInterval != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.CheckInterval)
	}
	if cfg.StorageDriver != DriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.StorageDriver)
	}
	if cfg.ConfigFile == "" {
		t.Error("expected ConfigFile to be recorded")
	}
}

func TestLoad_explicitMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load("nope.yaml", ""); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres"}},
		{"cert without key", map[string]string{"SERVER_TLS_CERT_FILE": "cert.pem"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load("", ""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_tlsEnabled(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SERVER_TLS_CERT_FILE", "cert.pem")
	t.Setenv("SERVER_TLS_KEY_FILE", "key.pem")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.TLSEnabled() {
		t.Error("expected TLS enabled")
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
