package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if got := cfg.Model().Gravity; got != 9.81 {
		t.Errorf("default gravity = %v, want 9.81", got)
	}
}

func TestYAMLProviderOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openchannel.yaml")
	doc := `
server:
  port: 9090
  enable_cors: true
physics:
  gravity: 9.80665
solver:
  max_iterations: 250
storage:
  backend: sqlite
  sqlite_path: /tmp/solutions.db
batch:
  workers: 0
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewYAMLProvider(path).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"port", cfg.Server.Port, 9090},
		{"listen addr kept", cfg.Server.ListenAddr, "0.0.0.0"},
		{"cors", cfg.Server.EnableCORS, true},
		{"gravity", cfg.Physics.Gravity, 9.80665},
		{"density kept", cfg.Physics.Density, 1000.0},
		{"iterations", cfg.Solver.MaxIterations, 250},
		{"backend", cfg.Storage.Backend, StorageSQLite},
		{"sqlite path", cfg.Storage.SQLitePath, "/tmp/solutions.db"},
		{"explicit zero workers", cfg.Batch.Workers, 0},
		{"max problems kept", cfg.Batch.MaxProblems, 500},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEmptyFilenameYieldsDefaults(t *testing.T) {
	cfg, err := NewYAMLProvider("").LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Defaults() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigData)
	}{
		{"bad port", func(c *ConfigData) { c.Server.Port = 70000 }},
		{"cert without key", func(c *ConfigData) { c.Server.Cert = "server.crt" }},
		{"unknown backend", func(c *ConfigData) { c.Storage.Backend = "mongodb" }},
		{"postgres without dsn", func(c *ConfigData) { c.Storage.Backend = StoragePostgres }},
		{"zero gravity", func(c *ConfigData) { c.Physics.Gravity = 0 }},
		{"negative workers", func(c *ConfigData) { c.Batch.Workers = -1 }},
	}
	for _, tt := range tests {
		cfg := Defaults()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("OPENCHANNEL_STORAGE_BACKEND=postgres\nOPENCHANNEL_POSTGRES_DSN=host=db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENCHANNEL_PORT", "8181")
	t.Setenv("OPENCHANNEL_GRAVITY", "9.8")
	t.Setenv("OPENCHANNEL_ENABLE_CORS", "true")
	// godotenv.Load sets variables process-wide; clear them afterwards.
	t.Cleanup(func() {
		os.Unsetenv("OPENCHANNEL_STORAGE_BACKEND")
		os.Unsetenv("OPENCHANNEL_POSTGRES_DSN")
	})

	cfg := Defaults()
	if err := ApplyEnv(cfg, envFile); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Server.Port != 8181 || cfg.Physics.Gravity != 9.8 || !cfg.Server.EnableCORS {
		t.Errorf("environment not applied: %+v", cfg.Server)
	}
	if cfg.Storage.Backend != StoragePostgres || cfg.Storage.PostgresDSN != "host=db" {
		t.Errorf(".env not applied: %+v", cfg.Storage)
	}
}

func TestApplyEnvMissingFileAndBadValue(t *testing.T) {
	cfg := Defaults()
	if err := ApplyEnv(cfg, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}
	t.Setenv("OPENCHANNEL_PORT", "eighty")
	if err := ApplyEnv(cfg, ""); err == nil {
		t.Error("expected a parse error")
	}
}
