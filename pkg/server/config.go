package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ripple-dev/ripple/pkg/snapshot"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultSessionTTL bounds how long a disconnected session's snapshot
	// stays resumable.
	DefaultSessionTTL = 30 * time.Minute

	// DefaultReadLimit caps inbound WebSocket frames.
	DefaultReadLimit = 1 << 20
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Logger receives structured server and session logs.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Store persists session snapshots for resume. Defaults to an
	// in-memory store.
	Store snapshot.Store

	// SessionTTL is how long snapshots of disconnected sessions live.
	SessionTTL time.Duration

	// MaxFlushPasses is forwarded to each session's graph.
	// Zero keeps the engine default.
	MaxFlushPasses int

	// ReadLimit caps inbound frame size in bytes.
	ReadLimit int64

	// CheckOrigin overrides the WebSocket origin check.
	// nil allows same-origin requests only.
	CheckOrigin func(origin string) bool

	// Registry is the Prometheus registry for server metrics.
	// Defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// withDefaults fills in zero-valued fields.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Store == nil {
		c.Store = snapshot.NewMemoryStore()
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.ReadLimit == 0 {
		c.ReadLimit = DefaultReadLimit
	}
	if c.Registry == nil {
		c.Registry = prometheus.DefaultRegisterer
	}
	return c
}
