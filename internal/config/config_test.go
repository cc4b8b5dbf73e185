package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate runs the test from an empty directory with HOME pointing at it.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := Default()
	if cfg.Server.Port != d.Server.Port {
		t.Errorf("Port = %d, want %d", cfg.Server.Port, d.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.Key != "favourites" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Catalog.Source != "data/properties.json" {
		t.Errorf("Catalog.Source = %q", cfg.Catalog.Source)
	}
	if cfg.Log.Rotation.MaxSize != 128 {
		t.Errorf("Rotation.MaxSize = %d, want 128", cfg.Log.Rotation.MaxSize)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "havenrise.yaml")
	writeFile(t, path, `
server:
  port: 9090
  shutdown_timeout: 3s
  cors_origins:
    - https://havenrise.example
catalog:
  source: s3://listings/properties.json
  s3:
    region: eu-west-2
    path_style: true
storage:
  driver: memory
log:
  level: debug
  json: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://havenrise.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Catalog.S3.Region != "eu-west-2" || !cfg.Catalog.S3.PathStyle {
		t.Errorf("S3 = %+v", cfg.Catalog.S3)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Driver = %q, want memory", cfg.Storage.Driver)
	}
	if !cfg.Log.JSON || cfg.Log.Level != "debug" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	// Unset keys keep their defaults.
	if cfg.Storage.Key != "favourites" {
		t.Errorf("Key = %q, want favourites", cfg.Storage.Key)
	}
}

func TestLoadSearchPath(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), "server:\n  port: 7070\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("HR_SERVER_PORT", "6060")
	t.Setenv("HR_STORAGE_DRIVER", "memory")
	t.Setenv("HR_LOG_FLUENT_ENABLED", "true")
	t.Setenv("HR_CATALOG_TIMEOUT", "5s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Port = %d, want 6060", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Driver = %q, want memory", cfg.Storage.Driver)
	}
	if !cfg.Log.Fluent.Enabled {
		t.Error("expected fluent enabled from env")
	}
	if cfg.Catalog.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Catalog.Timeout)
	}
}

func TestLoadS3CredentialsFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("HR_CATALOG_S3_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("HR_CATALOG_S3_SECRET_ACCESS_KEY", "s3cr3t")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Catalog.S3.AccessKeyID != "AKIDEXAMPLE" {
		t.Errorf("AccessKeyID = %q, want AKIDEXAMPLE", cfg.Catalog.S3.AccessKeyID)
	}
	if cfg.Catalog.S3.SecretAccessKey != "s3cr3t" {
		t.Errorf("SecretAccessKey = %q, want s3cr3t", cfg.Catalog.S3.SecretAccessKey)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "HR_STORAGE_KEY=shortlist\n")
	t.Cleanup(func() { _ = os.Unsetenv("HR_STORAGE_KEY") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Key != "shortlist" {
		t.Errorf("Key = %q, want shortlist", cfg.Storage.Key)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "reading config file"},
		{"unknown driver", "storage:\n  driver: redis\n", "unknown storage.driver"},
		{"postgres without url", "storage:\n  driver: postgres\n", "postgres_url is required"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"empty source", "catalog:\n  source: \"  \"\n", "catalog.source"},
		{"access key without secret", "catalog:\n  s3:\n    access_key_id: AKID\n", "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "config.yaml")
			writeFile(t, path, tt.content)

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLogging(t *testing.T) {
	cfg := Default()
	cfg.Log.File = "/var/log/havenrise.log"
	cfg.Log.Fluent.Enabled = true

	lc := cfg.Logging()
	if lc.File != "/var/log/havenrise.log" || !lc.Fluent.Enabled {
		t.Errorf("Logging() = %+v", lc)
	}
	if lc.Fluent.TagPrefix != "havenrise" || lc.Rotation.MaxBackups != 5 {
		t.Errorf("Logging() = %+v", lc)
	}
}
