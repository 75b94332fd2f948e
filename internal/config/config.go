package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ripple-dev/ripple/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "ripple.json"

	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultSessionTTL is the default snapshot resume window.
	DefaultSessionTTL = "30m"

	// DefaultSnapshotBackend is the snapshot store used when none is
	// configured.
	DefaultSnapshotBackend = "memory"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"
)

// Config represents the complete ripple.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Server contains listener and transport configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Engine contains reactive-graph tuning.
	Engine EngineConfig `json:"engine,omitempty"`

	// Session contains session lifecycle configuration.
	Session SessionConfig `json:"session,omitempty"`

	// Snapshot selects and configures the snapshot store.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener and transport settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `json:"addr,omitempty"`

	// ReadLimit caps inbound WebSocket frames in bytes.
	ReadLimit int64 `json:"readLimit,omitempty"`

	// AllowedOrigins lists Origin header values accepted for WebSocket
	// upgrades. Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// EngineConfig contains reactive-graph tuning.
type EngineConfig struct {
	// MaxFlushPasses bounds how many times a single flush may loop over
	// observers that keep writing values. Zero keeps the engine default.
	MaxFlushPasses int `json:"maxFlushPasses,omitempty"`
}

// SessionConfig contains session lifecycle settings.
type SessionConfig struct {
	// TTL is how long a disconnected session's snapshot stays resumable
	// (e.g., "30m").
	TTL string `json:"ttl,omitempty"`
}

// SnapshotConfig selects the snapshot store backend.
type SnapshotConfig struct {
	// Backend is one of "memory", "sql", or "s3".
	Backend string `json:"backend,omitempty"`

	// SQL configures the SQL backend.
	SQL SQLConfig `json:"sql,omitempty"`

	// S3 configures the S3 backend.
	S3 S3Config `json:"s3,omitempty"`
}

// SQLConfig contains SQL snapshot store settings.
type SQLConfig struct {
	// Driver is the database/sql driver name (e.g., "pgx", "mysql",
	// "sqlite3").
	Driver string `json:"driver,omitempty"`

	// DSN is the data source name passed to the driver.
	DSN string `json:"dsn,omitempty"`

	// Table overrides the snapshot table name.
	Table string `json:"table,omitempty"`
}

// S3Config contains S3 snapshot store settings.
type S3Config struct {
	// Bucket is the bucket snapshots are written to.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix,omitempty"`

	// Region overrides the AWS region from the environment.
	Region string `json:"region,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Session: SessionConfig{
			TTL: DefaultSessionTTL,
		},
		Snapshot: SnapshotConfig{
			Backend: DefaultSnapshotBackend,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for ripple.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E040").
				WithDetail("No ripple.json found in " + filepath.Dir(path)).
				WithSuggestion("Create ripple.json or pass --config with its location")
		}
		return nil, errors.New("E041").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E041").
			WithDetail("Failed to parse ripple.json: " + err.Error()).
			WithSuggestion("Check that ripple.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E041").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E041").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Session.TTL == "" {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = DefaultSnapshotBackend
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Session.TTL); err != nil {
		return errors.New("E042").
			WithDetail("session.ttl " + c.Session.TTL + " is not a duration").
			WithSuggestion(`Use a Go duration string such as "30m" or "1h"`)
	}
	if c.Engine.MaxFlushPasses < 0 {
		return errors.New("E042").
			WithDetail("engine.maxFlushPasses must not be negative")
	}
	if c.Server.ReadLimit < 0 {
		return errors.New("E042").
			WithDetail("server.readLimit must not be negative")
	}

	switch c.Snapshot.Backend {
	case "memory":
	case "sql":
		if c.Snapshot.SQL.Driver == "" || c.Snapshot.SQL.DSN == "" {
			return errors.New("E042").
				WithDetail("snapshot backend sql requires snapshot.sql.driver and snapshot.sql.dsn")
		}
	case "s3":
		if c.Snapshot.S3.Bucket == "" {
			return errors.New("E042").
				WithDetail("snapshot backend s3 requires snapshot.s3.bucket")
		}
	default:
		return errors.New("E060").
			WithDetail("backend " + c.Snapshot.Backend + " is not supported").
			WithSuggestion("Use one of: memory, sql, s3")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E042").
			WithDetail("log.level " + c.Log.Level + " is not one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E042").
			WithDetail("log.format " + c.Log.Format + " is not one of text, json")
	}

	return nil
}

// SessionTTL returns the parsed resume window. Call Validate first;
// unparseable values fall back to the default.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		d, _ = time.ParseDuration(DefaultSessionTTL)
	}
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing ripple.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E040").
				WithDetail("No ripple.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create ripple.json at the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
