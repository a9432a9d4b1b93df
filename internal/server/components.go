package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/jaxon/internal/config"
	"github.com/morezero/jaxon/internal/demo"
	"github.com/morezero/jaxon/pkg/commsutil"
	"github.com/morezero/jaxon/pkg/db"
	"github.com/morezero/jaxon/pkg/events"
	"github.com/morezero/jaxon/pkg/jaxon"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/upload"
)

const componentsLogPrefix = "server:components"

// newLogger creates a logger writing to outW. It does not set the global
// logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}

// SetupLogging installs the logger described by cfg as the default one.
func SetupLogging(cfg *config.Config, outW io.Writer) {
	slog.SetDefault(newLogger(cfg.LogLevel, cfg.LogFormat, outW))
}

// Components are the long-lived collaborators of the app. Close releases
// them in reverse order of creation.
type Components struct {
	App   *jaxon.App
	Store upload.TempStore
	Pool  *pgxpool.Pool
	NC    *comms.Conn

	closers []func()
}

// Close releases every component.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build creates the upload store, the event publisher and the app described
// by cfg. The demo callables are registered when cfg.Demo is set.
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	c := &Components{}

	opts, err := options.Load(cfg.OptionsFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load options: %w", componentsLogPrefix, err)
	}

	if err := c.openStore(ctx, cfg); err != nil {
		c.Close()
		return nil, err
	}

	var pub events.EventPublisher = &events.NoOpPublisher{}
	if cfg.COMMSURL != "" {
		nc, err := commsutil.Connect(commsutil.ConnectParams{URL: cfg.COMMSURL, Name: cfg.COMMSName})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("%s - failed to connect to COMMS: %w", componentsLogPrefix, err)
		}
		c.NC = nc
		c.closers = append(c.closers, func() { commsutil.Close(nc) })
		pub = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{
			DispatchSubject: cfg.DispatchSubject,
			UploadSubject:   cfg.UploadSubject,
		})
	} else {
		slog.Info(fmt.Sprintf("%s - COMMS_URL not set, events disabled", componentsLogPrefix))
	}

	app, err := jaxon.New(jaxon.Params{
		Options:   opts,
		Publisher: pub,
		Store:     c.Store,
		Signer:    upload.NewSigner([]byte(cfg.UploadSecret)),
		UploadTTL: cfg.UploadTTL,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	if cfg.Demo {
		if err := demo.Register(app); err != nil {
			c.Close()
			return nil, fmt.Errorf("%s - failed to register demo callables: %w", componentsLogPrefix, err)
		}
	}
	c.App = app
	return c, nil
}

func (c *Components) openStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.UploadStore {
	case config.StoreFile:
		store, err := upload.NewFileStore(cfg.UploadStorePath)
		if err != nil {
			return fmt.Errorf("%s - failed to open file store: %w", componentsLogPrefix, err)
		}
		c.Store = store

	case config.StoreSQLite:
		store, err := upload.NewSQLiteStore(cfg.UploadStorePath)
		if err != nil {
			return fmt.Errorf("%s - failed to open sqlite store: %w", componentsLogPrefix, err)
		}
		c.Store = store
		c.closers = append(c.closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn(fmt.Sprintf("%s - failed to close sqlite store: %v", componentsLogPrefix, err))
			}
		})

	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("%s - failed to connect to database: %w", componentsLogPrefix, err)
		}
		c.Pool = pool
		c.closers = append(c.closers, pool.Close)
		if cfg.RunMigrations {
			migrations, err := db.LoadMigrations(cfg.MigrationPath)
			if err != nil {
				return fmt.Errorf("%s - failed to load migrations: %w", componentsLogPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrations); err != nil {
				return fmt.Errorf("%s - failed to run migrations: %w", componentsLogPrefix, err)
			}
		}
		c.Store = db.NewUploadTokenRepository(pool)

	default:
		return fmt.Errorf("%s - unknown upload store %q", componentsLogPrefix, cfg.UploadStore)
	}
	slog.Info(fmt.Sprintf("%s - Upload records stored in %s store", componentsLogPrefix, cfg.UploadStore))
	return nil
}
