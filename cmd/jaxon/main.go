// Package main is the entrypoint of the jaxon server.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/jaxon/internal/config"
	"github.com/morezero/jaxon/internal/server"
	"github.com/morezero/jaxon/pkg/commsutil"
	"github.com/morezero/jaxon/pkg/db"
	"github.com/morezero/jaxon/pkg/events"
)

const usage = `Usage: jaxon [command]
       jaxon serve               Start the HTTP server (demo page, AJAX endpoint, health).
       jaxon script              Print the generated JavaScript bundle.
       jaxon migrate up          Create the upload token table.
       jaxon migrate down        Drop the upload token table.
       jaxon migrate status      Show migration status.
       jaxon ensure-db [name]    Create database if missing (default name: jaxon_test). Uses DATABASE_URL host/user.
       jaxon purge-uploads       Delete expired upload records from the configured store.
       jaxon watch               Print dispatch and upload events published on COMMS_URL.

Commands:
  serve             (default) Start the server.
  script            Print the bundle served at /jaxon/bundle.js.
  migrate up        Run database migrations only.
  migrate down      Drop the upload token table; stored records are lost.
  migrate status    Show current migration status.
  ensure-db [name]  Create database (e.g. jaxon_test) on same host as DATABASE_URL.
  purge-uploads     Delete expired upload records once and exit.
  watch             Follow the event subjects until interrupted.

Environment: UPLOAD_STORE (file, sqlite, postgres), UPLOAD_STORE_PATH, UPLOAD_TOKEN_SECRET,
DATABASE_URL, MIGRATION_PATH, JAXON_OPTIONS_FILE, JAXON_HTTP_ADDR (default :8080),
COMMS_URL, LOG_LEVEL, LOG_FORMAT.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("jaxon migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("jaxon migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("jaxon migrate status: %v", err)
			}
		case "down":
			if err := runMigrateDown(); err != nil {
				log.Fatalf("jaxon migrate down: %v", err)
			}
		default:
			log.Fatalf("jaxon migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "script":
		if err := runScript(os.Stdout); err != nil {
			log.Fatalf("jaxon script: %v", err)
		}
		return
	case "purge-uploads":
		if err := runPurgeUploads(os.Stdout); err != nil {
			log.Fatalf("jaxon purge-uploads: %v", err)
		}
		return
	case "watch":
		if err := runWatch(os.Stdout); err != nil {
			log.Fatalf("jaxon watch: %v", err)
		}
		return
	case "ensure-db":
		dbName := "jaxon_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("jaxon ensure-db: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("jaxon: %v", err)
	}
}

func loadDBConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrateUp() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrations, err := db.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrations); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	applied, err := db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	if err != nil {
		return err
	}
	fmt.Printf("Upload token table present: %v\n", applied)
	return nil
}

func runMigrateDown() error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return db.MigrationDown(ctx, pool)
}

// targetDatabaseURL replaces the database name of databaseURL, keeping the
// query (e.g. sslmode).
func targetDatabaseURL(databaseURL, dbName string) (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is required")
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	u.Path = "/" + dbName
	return u.String(), nil
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	targetURL, err := targetDatabaseURL(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

func buildComponents() (*server.Components, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return nil, err
	}
	server.SetupLogging(cfg, os.Stderr)
	return server.Build(context.Background(), cfg)
}

func runScript(w io.Writer) error {
	comps, err := buildComponents()
	if err != nil {
		return err
	}
	defer comps.Close()

	_, err = fmt.Fprintln(w, comps.App.Bundle())
	return err
}

func runPurgeUploads(w io.Writer) error {
	comps, err := buildComponents()
	if err != nil {
		return err
	}
	defer comps.Close()

	n, err := comps.App.PurgeUploads(context.Background())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Purged %d expired upload record(s).\n", n)
	return err
}

// watchSubjects returns the global dispatch subject and the upload subject.
func watchSubjects(cfg *config.Config) []string {
	dispatch, upload := commsutil.SubjectDispatch, commsutil.SubjectUpload
	if cfg.DispatchSubject != "" {
		dispatch = cfg.DispatchSubject
	}
	if cfg.UploadSubject != "" {
		upload = cfg.UploadSubject
	}
	return []string{dispatch, upload}
}

// watchEvents writes one line per event received on subjects until ctx ends.
func watchEvents(ctx context.Context, nc *comms.Conn, subjects []string, w io.Writer) error {
	var mu sync.Mutex
	for _, subject := range subjects {
		sub, err := events.Subscribe(nc, subject, func(eventType string, event interface{}) {
			data, err := commsutil.EncodePayload(event)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(w, "%s %s\n", eventType, data)
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}
	if err := nc.Flush(); err != nil {
		return fmt.Errorf("flush subscriptions: %w", err)
	}
	<-ctx.Done()
	return nil
}

func runWatch(w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.COMMSURL == "" {
		return fmt.Errorf("COMMS_URL is required")
	}
	nc, err := commsutil.Connect(commsutil.ConnectParams{URL: cfg.COMMSURL, Name: cfg.COMMSName + "-watch"})
	if err != nil {
		return fmt.Errorf("connect COMMS: %w", err)
	}
	defer commsutil.Close(nc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchEvents(ctx, nc, watchSubjects(cfg), w)
}
