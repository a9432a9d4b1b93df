// Package server orchestrates all components: upload store, COMMS events,
// the jaxon app, the HTTP server and the upload purge loop.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/morezero/jaxon/internal/config"
	"github.com/morezero/jaxon/pkg/jaxon"
	"github.com/morezero/jaxon/pkg/version"
)

const logPrefix = "server:server"

// BundlePath serves the generated script.
const BundlePath = "/jaxon/bundle.js"

// Server serves the jaxon app over HTTP.
type Server struct {
	cfg        *config.Config
	app        *jaxon.App
	ping       func(ctx context.Context) error
	httpServer *http.Server
}

// NewServerParams holds the collaborators of a Server.
type NewServerParams struct {
	Config *config.Config
	App    *jaxon.App
	// Ping checks the upload store backend for /health. Nil means always
	// healthy.
	Ping func(ctx context.Context) error
}

// NewServer creates a Server.
func NewServer(p NewServerParams) *Server {
	return &Server{cfg: p.Config, app: p.App, ping: p.Ping}
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	SetupLogging(cfg, os.Stdout)

	slog.Info(fmt.Sprintf("%s - Starting jaxon %s", logPrefix, version.Core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	comps, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer comps.Close()

	var ping func(ctx context.Context) error
	if comps.Pool != nil {
		ping = comps.Pool.Ping
	}
	s := NewServer(NewServerParams{Config: cfg, App: comps.App, Ping: ping})

	go s.purgeLoop(ctx, cfg.PurgeInterval)

	s.httpServer = &http.Server{Addr: cfg.Addr(), Handler: s.routes(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, cfg.Addr()))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	slog.Info(fmt.Sprintf("%s - jaxon is ready, requests on %s", logPrefix, comps.App.RequestURI()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))
	case err := <-errCh:
		slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		cancel()
		return fmt.Errorf("%s - HTTP server failed: %w", logPrefix, err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer shutdownCancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
	}
	cancel()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// routes builds the HTTP handler.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome())
	mux.HandleFunc(BundlePath, s.handleBundle())
	mux.Handle(s.app.RequestURI(), withTimeout(s.app, s.cfg.RequestTimeout))
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	return mux
}

// withTimeout bounds the context of every request served by h.
func withTimeout(h http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
	}
}

// HealthOutput is the body of /health.
type HealthOutput struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Version   string          `json:"version"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := HealthOutput{
			Status:    "healthy",
			Checks:    map[string]bool{"store": true},
			Version:   version.Core,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if s.ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
			defer cancel()
			if err := s.ping(ctx); err != nil {
				slog.Warn(fmt.Sprintf("%s - health check failed: %v", logPrefix, err))
				out.Status = "unhealthy"
				out.Checks["store"] = false
			}
		}
		status := http.StatusOK
		if out.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, out)
	}
}

func (s *Server) handleBundle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		etag := `"` + s.app.BundleHash() + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		if _, err := w.Write([]byte(s.app.Bundle())); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to write bundle: %v", logPrefix, err))
		}
	}
}

// homePageTemplate is the HTML of the demo page.
const homePageTemplate = `<!DOCTYPE html>
<html lang="{{.Language}}">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Jaxon</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    h1, h2 { color: #0066cc; }
    section { margin-bottom: 2rem; }
    pre { background: #f5f5f5; padding: 0.75rem; overflow-x: auto; font-size: 0.85rem; border: 1px solid #eee; }
    .meta { color: #333; font-size: 0.9rem; }
  </style>
  {{if .RuntimeURL}}<script src="{{.RuntimeURL}}"></script>{{end}}
  <script src="{{.BundleURL}}"></script>
</head>
<body>
  <h1>Jaxon</h1>
  <p class="meta">{{.Label}}, requests are posted to <code>{{.RequestURI}}</code>.</p>

  {{if .Demo}}
  <section>
    <h2>Hello</h2>
    <input id="name" placeholder="Your name">
    <button onclick="jaxon_sayHello(document.getElementById('name').value)">Greet</button>
    <p id="greeting"></p>
  </section>

  <section>
    <h2>Cart</h2>
    <input id="item" placeholder="Item">
    <button onclick="Demo.Cart.add(document.getElementById('item').value)">Add</button>
    <button onclick="Demo.Cart.empty()">Empty</button>
    <ul id="cart"></ul>
  </section>

  <section>
    <h2>Upload</h2>
    <form id="upload-form"><input type="file" name="doc" multiple></form>
    <button onclick="Demo.Files.list({ upload: 'upload-form' })">Send</button>
    <ul id="files"></ul>
  </section>
  {{end}}

  <section>
    <h2>Callables</h2>
    {{if not .Callables}}<p>No callable registered.</p>{{else}}
    <ul>{{range .Callables}}<li><code>{{.}}</code></li>{{end}}</ul>
    {{end}}
  </section>

  <section>
    <h2>Generated script</h2>
    <pre>{{.Bundle}}</pre>
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Language   string
	Label      string
	RequestURI string
	RuntimeURL string
	BundleURL  string
	Demo       bool
	Callables  []string
	Bundle     string
}

// handleHome returns an HTTP handler for the demo page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		opts := s.app.Options()
		data := homeData{
			Language:   opts.String("core.language", "en"),
			Label:      version.Label(opts.String("core.version", version.Core)),
			RequestURI: s.app.RequestURI(),
			RuntimeURL: opts.String("core.js.uri", ""),
			BundleURL:  BundlePath,
			Demo:       s.cfg.Demo,
			Callables:  s.app.Callables(),
			Bundle:     s.app.Bundle(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", logPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// purgeLoop deletes expired upload records every interval until ctx ends.
func (s *Server) purgeLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeOnce(ctx)
		}
	}
}

func (s *Server) purgeOnce(ctx context.Context) int64 {
	n, err := s.app.PurgeUploads(ctx)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - purge of upload records failed: %v", logPrefix, err))
		return 0
	}
	return n
}
