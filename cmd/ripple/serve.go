package main

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/ripple-dev/ripple/internal/config"
	"github.com/ripple-dev/ripple/internal/errors"
	"github.com/ripple-dev/ripple/pkg/server"
	"github.com/ripple-dev/ripple/pkg/snapshot"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ripple session server",
		Long: `Start the WebSocket session server.

Each connected client gets its own reactive graph running the built-in
thermostat program: write the temp_c or unit cells and receive display
updates. Disconnected sessions persist their inputs to the configured
snapshot store and can resume with ?session=<id>.

Examples:
  ripple serve
  ripple serve --addr=:9000
  ripple serve --config=deploy/ripple.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to ripple.json (default: search from working directory)")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from ripple.json)")

	return cmd
}

func runServe(configPath, addr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Apply command-line overrides
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(thermostatProgram, server.Config{
		Addr:           cfg.Server.Addr,
		Logger:         logger,
		Store:          store,
		SessionTTL:     cfg.SessionTTL(),
		MaxFlushPasses: cfg.Engine.MaxFlushPasses,
		ReadLimit:      cfg.Server.ReadLimit,
		CheckOrigin:    originChecker(cfg.Server.AllowedOrigins),
	})

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Listening on %s", cfg.Server.Addr)
	info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Addr)
	info("Snapshot backend:   %s", cfg.Snapshot.Backend)
	fmt.Println()

	if err := srv.ListenAndServe(ctx); err != nil {
		return errors.New("E080").Wrap(err)
	}
	return nil
}

// loadConfig resolves the configuration: an explicit path, the working
// directory tree, or built-in defaults when no file exists anywhere.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.LoadFromWorkingDir()
	if err == nil {
		return cfg, nil
	}
	var re *errors.Error
	if stderrors.As(err, &re) && re.Code == "E040" {
		warn("No ripple.json found, using defaults")
		return config.New(), nil
	}
	return nil, err
}

// newLogger builds the process logger from the log section.
func newLogger(lc config.LogConfig) *slog.Logger {
	var level slog.Level
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// newSnapshotStore builds the snapshot store selected in the config.
func newSnapshotStore(ctx context.Context, cfg *config.Config) (snapshot.Store, error) {
	switch cfg.Snapshot.Backend {
	case "memory":
		return snapshot.NewMemoryStore(), nil

	case "sql":
		return newSQLStore(ctx, cfg.Snapshot.SQL)

	case "s3":
		return newS3Store(ctx, cfg.Snapshot.S3)

	default:
		return nil, errors.New("E060").
			WithDetail("backend " + cfg.Snapshot.Backend + " is not supported").
			WithSuggestion("Use one of: memory, sql, s3")
	}
}

func newSQLStore(ctx context.Context, sc config.SQLConfig) (snapshot.Store, error) {
	db, err := sql.Open(sc.Driver, sc.DSN)
	if err != nil {
		return nil, errors.New("E061").
			WithDetail("sql.Open with driver " + sc.Driver + " failed").
			Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.New("E061").
			WithDetail("database is not reachable with the configured DSN").
			Wrap(err)
	}

	var opts []snapshot.SQLStoreOption
	if sc.Table != "" {
		opts = append(opts, snapshot.WithSQLTableName(sc.Table))
	}
	dialect, err := sqlDialect(sc.Driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	opts = append(opts, snapshot.WithSQLDialect(dialect))

	// The bundled sqlite driver gets its schema created for free; other
	// databases are expected to be migrated out of band.
	if dialect == snapshot.DialectSQLite {
		if err := createSQLiteSchema(ctx, db, sc.Table); err != nil {
			db.Close()
			return nil, errors.New("E061").Wrap(err)
		}
	}

	return snapshot.NewSQLStore(db, opts...), nil
}

func sqlDialect(driver string) (snapshot.SQLDialect, error) {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return snapshot.DialectPostgreSQL, nil
	case "mysql":
		return snapshot.DialectMySQL, nil
	case "sqlite", "sqlite3":
		return snapshot.DialectSQLite, nil
	default:
		return 0, errors.New("E061").
			WithDetail("driver " + driver + " has no known dialect").
			WithSuggestion("Use pgx, mysql, or sqlite")
	}
}

func createSQLiteSchema(ctx context.Context, db *sql.DB, table string) error {
	if table == "" {
		table = "ripple_snapshots"
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, table))
	return err
}

func newS3Store(ctx context.Context, sc config.S3Config) (snapshot.Store, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if sc.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(sc.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.New("E061").
			WithDetail("AWS configuration could not be loaded from the environment").
			Wrap(err)
	}
	client := s3.NewFromConfig(awsCfg)
	return snapshot.NewS3Store(client, sc.Bucket, sc.Prefix), nil
}

// originChecker returns nil when no origins are configured, keeping the
// transport's same-origin default.
func originChecker(allowed []string) func(string) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(origin)] = true
	}
	return func(origin string) bool {
		return set[strings.ToLower(origin)]
	}
}
