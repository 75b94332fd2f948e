package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	ripplerrors "github.com/ripple-dev/ripple/internal/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Session.TTL != DefaultSessionTTL {
		t.Errorf("Session.TTL = %q, want %q", cfg.Session.TTL, DefaultSessionTTL)
	}
	if cfg.Snapshot.Backend != DefaultSnapshotBackend {
		t.Errorf("Snapshot.Backend = %q, want %q", cfg.Snapshot.Backend, DefaultSnapshotBackend)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v, want level=%s format=%s", cfg.Log, DefaultLogLevel, DefaultLogFormat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{
  "name": "thermostat",
  "server": {"addr": ":9000", "readLimit": 65536},
  "engine": {"maxFlushPasses": 50},
  "session": {"ttl": "1h"},
  "snapshot": {"backend": "sql", "sql": {"driver": "pgx", "dsn": "postgres://localhost/ripple"}},
  "log": {"level": "debug", "format": "json"}
}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "thermostat" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Server.ReadLimit != 65536 {
		t.Errorf("Server.ReadLimit = %d, want 65536", cfg.Server.ReadLimit)
	}
	if cfg.Engine.MaxFlushPasses != 50 {
		t.Errorf("Engine.MaxFlushPasses = %d, want 50", cfg.Engine.MaxFlushPasses)
	}
	if cfg.Snapshot.Backend != "sql" {
		t.Errorf("Snapshot.Backend = %q, want sql", cfg.Snapshot.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if got := cfg.SessionTTL(); got != time.Hour {
		t.Errorf("SessionTTL() = %v, want 1h", got)
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "minimal"}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
	if cfg.Snapshot.Backend != DefaultSnapshotBackend {
		t.Errorf("Snapshot.Backend = %q, want default", cfg.Snapshot.Backend)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want default", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load of empty dir succeeded")
	}
	var re *ripplerrors.Error
	if !errors.As(err, &re) {
		t.Fatalf("error is %T, want *errors.Error", err)
	}
	if re.Code != "E040" {
		t.Errorf("code = %q, want E040", re.Code)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load of malformed file succeeded")
	}
	var re *ripplerrors.Error
	if !errors.As(err, &re) {
		t.Fatalf("error is %T, want *errors.Error", err)
	}
	if re.Code != "E041" {
		t.Errorf("code = %q, want E041", re.Code)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"bad ttl", func(c *Config) { c.Session.TTL = "soon" }, "E042"},
		{"negative passes", func(c *Config) { c.Engine.MaxFlushPasses = -1 }, "E042"},
		{"negative read limit", func(c *Config) { c.Server.ReadLimit = -1 }, "E042"},
		{"unknown backend", func(c *Config) { c.Snapshot.Backend = "redis" }, "E060"},
		{"sql without dsn", func(c *Config) { c.Snapshot.Backend = "sql" }, "E042"},
		{"s3 without bucket", func(c *Config) { c.Snapshot.Backend = "s3" }, "E042"},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "E042"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "E042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			var re *ripplerrors.Error
			if !errors.As(err, &re) {
				t.Fatalf("error is %T, want *errors.Error", err)
			}
			if re.Code != tt.code {
				t.Errorf("code = %q, want %q", re.Code, tt.code)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := New()
	cfg.Name = "roundtrip"
	cfg.Server.Addr = ":7070"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded.Name != "roundtrip" || loaded.Server.Addr != ":7070" {
		t.Errorf("reloaded = %q/%q", loaded.Name, loaded.Server.Addr)
	}

	// Save without an explicit path goes back to the loaded location.
	loaded.Name = "updated"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if again.Name != "updated" {
		t.Errorf("Name after Save = %q, want updated", again.Name)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Fatal("Save without a path succeeded")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	found, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	// Resolve symlinks so the comparison survives tmpdir indirection.
	wantRoot, _ := filepath.EvalSymlinks(root)
	gotRoot, _ := filepath.EvalSymlinks(found)
	if gotRoot != wantRoot {
		t.Errorf("FindProjectRoot = %q, want %q", gotRoot, wantRoot)
	}
}

func TestFindProjectRootMissing(t *testing.T) {
	if _, err := FindProjectRoot(t.TempDir()); err == nil {
		t.Fatal("FindProjectRoot found a root where none exists")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Error("Exists true for empty dir")
	}
	writeConfig(t, dir, `{}`)
	if !Exists(dir) {
		t.Error("Exists false after writing config")
	}
}
