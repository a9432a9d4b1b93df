package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/morezero/jaxon/internal/config"
	"github.com/morezero/jaxon/internal/demo"
	"github.com/morezero/jaxon/pkg/jaxon"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/upload"
)

const serverTestPrefix = "server:server_test"

// testServer returns a Server over a demo app with a file upload store.
func testServer(t *testing.T, ping func(context.Context) error) (*Server, *upload.FileStore) {
	t.Helper()
	store, err := upload.NewFileStore(filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatalf("%s - NewFileStore() error: %v", serverTestPrefix, err)
	}
	opts := options.Default()
	opts.Set("upload.default.dir", filepath.Join(t.TempDir(), "files"))
	app, err := jaxon.New(jaxon.Params{Options: opts, Store: store, Signer: upload.NewSigner([]byte("k"))})
	if err != nil {
		t.Fatalf("%s - jaxon.New() error: %v", serverTestPrefix, err)
	}
	if err := demo.Register(app); err != nil {
		t.Fatalf("%s - demo.Register() error: %v", serverTestPrefix, err)
	}
	cfg := &config.Config{
		HealthCheckTimeout: 5 * time.Second,
		RequestTimeout:     5 * time.Second,
		Demo:               true,
	}
	return NewServer(NewServerParams{Config: cfg, App: app, Ping: ping}), store
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		debug         bool
		json          bool
	}{
		{"debug", "text", true, false},
		{"info", "json", false, true},
		{"warn", "text", false, false},
		{"bogus", "", false, false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := newLogger(tt.level, tt.format, &buf)
		if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debug {
			t.Errorf("%s - level %q: debug enabled = %v", serverTestPrefix, tt.level, got)
		}
		logger.Error("probe")
		if isJSON := strings.HasPrefix(buf.String(), "{"); isJSON != tt.json {
			t.Errorf("%s - format %q produced %q", serverTestPrefix, tt.format, buf.String())
		}
	}
}

func TestRoutes_Health(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var out HealthOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s - invalid health body: %v", serverTestPrefix, err)
	}
	if rec.Code != http.StatusOK || out.Status != "healthy" || !out.Checks["store"] {
		t.Errorf("%s - health = %d %+v", serverTestPrefix, rec.Code, out)
	}

	s, _ = testServer(t, func(context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"unhealthy"`) {
		t.Errorf("%s - unhealthy = %d %s", serverTestPrefix, rec.Code, rec.Body.String())
	}
}

func TestRoutes_Ready(t *testing.T) {
	s, _ := testServer(t, nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ready"`) {
		t.Errorf("%s - ready = %d %s", serverTestPrefix, rec.Code, rec.Body.String())
	}
}

func TestRoutes_HomePage(t *testing.T) {
	s, _ := testServer(t, nil)
	h := s.routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - home status = %d", serverTestPrefix, rec.Code)
	}
	for _, want := range []string{"Jaxon Go 1.0.0", "<code>/jaxon</code>", "<code>Demo.Cart.add</code>", `src="/jaxon/bundle.js"`, "jaxon_sayHello = function()"} {
		if !strings.Contains(body, want) {
			t.Errorf("%s - home page misses %q", serverTestPrefix, want)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("%s - /missing status = %d, want 404", serverTestPrefix, rec.Code)
	}
}

func TestRoutes_BundleETag(t *testing.T) {
	s, _ := testServer(t, nil)
	h := s.routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, BundlePath, nil))
	etag := rec.Header().Get("ETag")
	if rec.Code != http.StatusOK || etag == "" || !strings.Contains(rec.Body.String(), "Demo.Cart.add = function()") {
		t.Fatalf("%s - bundle = %d etag=%q", serverTestPrefix, rec.Code, etag)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("%s - Content-Type = %q", serverTestPrefix, ct)
	}

	req := httptest.NewRequest(http.MethodGet, BundlePath, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Errorf("%s - conditional bundle = %d", serverTestPrefix, rec.Code)
	}
}

func TestRoutes_AjaxRequest(t *testing.T) {
	s, _ := testServer(t, nil)
	form := url.Values{"jxnfun": {"sayHello"}, "jxnargs": {`["Bob"]`}}
	req := httptest.NewRequest(http.MethodPost, "/jaxon", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	want := `{"jxnobj":[{"cmd":"node.assign","id":"greeting","prop":"innerHTML","data":"Hello, Bob!"}],"jxnrv":11}`
	if rec.Code != http.StatusOK || rec.Body.String() != want {
		t.Errorf("%s - ajax = %d %s, want %s", serverTestPrefix, rec.Code, rec.Body.String(), want)
	}
}

func TestWithTimeout_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	h := withTimeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}), time.Second)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !hasDeadline {
		t.Errorf("%s - request context has no deadline", serverTestPrefix)
	}
}

func TestPurgeOnce(t *testing.T) {
	s, store := testServer(t, nil)
	ctx := context.Background()
	now := time.Now()
	for id, exp := range map[string]time.Time{
		"0b0e7a3e-7d2f-4c8e-9a54-3f8f7c1d2e01": now.Add(-time.Minute),
		"0b0e7a3e-7d2f-4c8e-9a54-3f8f7c1d2e02": now.Add(time.Hour),
	} {
		if err := store.Save(ctx, id, &upload.StoredRecord{Entries: map[string]string{}, CreatedAt: now, ExpiresAt: exp}); err != nil {
			t.Fatalf("%s - Save() error: %v", serverTestPrefix, err)
		}
	}
	if n := s.purgeOnce(ctx); n != 1 {
		t.Errorf("%s - purgeOnce() = %d, want 1", serverTestPrefix, n)
	}
}

func TestPurgeLoop_StopsWithContext(t *testing.T) {
	s, _ := testServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.purgeLoop(ctx, time.Millisecond)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("%s - purgeLoop did not stop", serverTestPrefix)
	}
}
