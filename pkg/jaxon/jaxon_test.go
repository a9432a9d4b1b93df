package jaxon

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/dispatcher"
	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/plugins/databag"
	"github.com/morezero/jaxon/pkg/plugins/dialog"
	"github.com/morezero/jaxon/pkg/response"
	"github.com/morezero/jaxon/pkg/upload"
)

const testPrefix = "jaxon:jaxon_test"

type Greeter struct{}

func (g *Greeter) Greet(_ context.Context, call *callable.Call) error {
	dialog.From(call.Response).Info("Hi "+call.Args.String(0), "")

	bag := databag.From(call.Response).Bag("user")
	visits, _ := bag.Get("visits", float64(0)).(float64)
	bag.Set("visits", visits+1)
	return nil
}

type body struct {
	Commands []map[string]interface{} `json:"jxnobj"`
	Return   interface{}              `json:"jxnrv"`
	Error    *dispatcher.ErrorDetail  `json:"jxnerr"`
}

func hello(_ context.Context, call *callable.Call) error {
	call.Response.Assign("out", "innerHTML", "Hello "+call.Args.String(0))
	return nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	opts := options.Default()
	opts.Set("core.request.uri", "/ajax")
	opts.Set("upload.default.dir", filepath.Join(t.TempDir(), "files"))

	store, err := upload.NewFileStore(filepath.Join(t.TempDir(), "records"))
	if err != nil {
		t.Fatalf("%s - NewFileStore() error: %v", testPrefix, err)
	}
	app, err := New(Params{
		Options:   opts,
		Store:     store,
		Signer:    upload.NewSigner([]byte("test-secret")),
		UploadTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("%s - New() error: %v", testPrefix, err)
	}
	return app
}

func postForm(t *testing.T, h http.Handler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ajax", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postFile(t *testing.T, h http.Handler, fields map[string]string, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("%s - WriteField() error: %v", testPrefix, err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("%s - CreateFormFile() error: %v", testPrefix, err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("%s - write part: %v", testPrefix, err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("%s - close multipart writer: %v", testPrefix, err)
	}

	req := httptest.NewRequest(http.MethodPost, "/ajax", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) body {
	t.Helper()
	var b body
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("%s - invalid body %q: %v", testPrefix, rec.Body.String(), err)
	}
	return b
}

func TestApp_FunctionCall(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterFunction("hello", hello, nil); err != nil {
		t.Fatalf("%s - RegisterFunction() error: %v", testPrefix, err)
	}

	rec := postForm(t, app, url.Values{"jxnfun": {"hello"}, "jxnargs": {`["World"]`}})
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - status = %d, body %s", testPrefix, rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("%s - Content-Type = %q", testPrefix, ct)
	}
	want := `{"jxnobj":[{"cmd":"node.assign","id":"out","prop":"innerHTML","data":"Hello World"}]}`
	if got := rec.Body.String(); got != want {
		t.Errorf("%s - body = %s, want %s", testPrefix, got, want)
	}
}

func TestApp_ClassCallWithResponsePlugins(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterClass("", &Greeter{}, nil); err != nil {
		t.Fatalf("%s - RegisterClass() error: %v", testPrefix, err)
	}

	rec := postForm(t, app, url.Values{
		"jxncls":  {"Greeter"},
		"jxnmthd": {"greet"},
		"jxnargs": {`["Ann"]`},
		"jxnbags": {`{"user":{"visits":1}}`},
	})
	b := decode(t, rec)
	if rec.Code != http.StatusOK || len(b.Commands) != 2 {
		t.Fatalf("%s - status=%d commands=%v", testPrefix, rec.Code, b.Commands)
	}
	if b.Commands[0]["cmd"] != "dialog.message" {
		t.Errorf("%s - first command = %v", testPrefix, b.Commands[0])
	}
	if b.Commands[1]["cmd"] != "bags.set" {
		t.Fatalf("%s - second command = %v", testPrefix, b.Commands[1])
	}
	bags, _ := b.Commands[1]["data"].(map[string]interface{})
	user, _ := bags["user"].(map[string]interface{})
	if user["visits"] != float64(2) {
		t.Errorf("%s - bags = %v", testPrefix, bags)
	}
}

func TestApp_ErrorEnvelopes(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterFunction("fail", func(_ context.Context, _ *callable.Call) error {
		return errdefs.NewRequestError(errdefs.CodeInvalidArgument, "bad input", map[string]interface{}{"arg": 0})
	}, nil)
	_ = app.RegisterFunction("boom", func(_ context.Context, _ *callable.Call) error {
		panic("boom")
	}, nil)

	tests := []struct {
		name      string
		form      url.Values
		status    int
		code      string
		retryable bool
	}{
		{"unknown function", url.Values{"jxnfun": {"missing"}}, http.StatusBadRequest, errdefs.CodeCallableNotFound, false},
		{"request error", url.Values{"jxnfun": {"fail"}}, http.StatusBadRequest, errdefs.CodeInvalidArgument, false},
		{"bad args", url.Values{"jxnfun": {"fail"}, "jxnargs": {"[oops"}}, http.StatusBadRequest, errdefs.CodeInvalidArgument, false},
		{"panic", url.Values{"jxnfun": {"boom"}}, http.StatusInternalServerError, errdefs.CodeInternal, true},
		{"not handled", url.Values{"other": {"x"}}, http.StatusBadRequest, errdefs.CodeNotHandled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postForm(t, app, tt.form)
			b := decode(t, rec)
			if rec.Code != tt.status {
				t.Errorf("%s - status = %d, want %d", testPrefix, rec.Code, tt.status)
			}
			if b.Error == nil || b.Error.Code != tt.code || b.Error.Retryable != tt.retryable {
				t.Errorf("%s - error = %+v, want code %s", testPrefix, b.Error, tt.code)
			}
			if b.Commands == nil || len(b.Commands) != 0 {
				t.Errorf("%s - jxnobj = %v, want []", testPrefix, b.Commands)
			}
		})
	}
}

func TestApp_Middleware(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterFunction("hello", hello, nil)

	var fellThrough int
	h := app.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fellThrough++
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := postForm(t, h, url.Values{"jxnfun": {"hello"}, "jxnargs": {`["x"]`}})
	if rec.Code != http.StatusOK || fellThrough != 0 {
		t.Errorf("%s - handled request: status=%d fellThrough=%d", testPrefix, rec.Code, fellThrough)
	}

	rec = postForm(t, h, url.Values{"unrelated": {"1"}})
	if rec.Code != http.StatusTeapot || fellThrough != 1 {
		t.Errorf("%s - unhandled request: status=%d fellThrough=%d", testPrefix, rec.Code, fellThrough)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if rec.Code != http.StatusTeapot || fellThrough != 2 {
		t.Errorf("%s - other path: status=%d fellThrough=%d", testPrefix, rec.Code, fellThrough)
	}
}

func TestApp_QualifiedNamesAreUnique(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterFunction("Greeter", hello, nil); err != nil {
		t.Fatalf("%s - RegisterFunction() error: %v", testPrefix, err)
	}

	if err := app.RegisterFunction("Greeter", hello, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - duplicate function: %v, want ConfigurationError", testPrefix, err)
	}
	if err := app.RegisterClass("", &Greeter{}, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - class colliding with function: %v, want ConfigurationError", testPrefix, err)
	}
	if err := app.RegisterClass("", &Greeter{}, callable.Options{callable.OptNamespace: "App"}); err != nil {
		t.Errorf("%s - namespaced class: %v", testPrefix, err)
	}
	if err := app.Register("widget", "w", hello, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - unknown kind: %v, want ConfigurationError", testPrefix, err)
	}

	want := []string{"App.Greeter", "App.Greeter.greet", "Greeter"}
	got := app.Callables()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("%s - Callables() = %v, want %v", testPrefix, got, want)
	}
}

type alertDialog struct{}

func (alertDialog) Name() string { return "dialog" }

func (alertDialog) NewResponsePlugin(_ *response.Response) response.Plugin { return alertDialog{} }

func TestApp_ResponsePluginShadowing(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterPlugin(alertDialog{}, "", 1000); err != nil {
		t.Fatalf("%s - RegisterPlugin() error: %v", testPrefix, err)
	}

	if _, ok := app.Plugins().ResponsePlugin(dialog.PluginName).(alertDialog); !ok {
		t.Errorf("%s - response plugin was not shadowed", testPrefix)
	}
	var gen interface{}
	for _, rec := range app.Plugins().CodeGenerators() {
		if rec.Name == dialog.PluginName {
			gen = rec.Plugin
		}
	}
	if _, ok := gen.(*dialog.Producer); !ok {
		t.Errorf("%s - code generator %T was shadowed", testPrefix, gen)
	}
}

func TestApp_ScriptSealsRegistry(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterFunction("hello", hello, nil)
	_ = app.RegisterClass("", &Greeter{}, callable.Options{callable.OptNamespace: "App"})

	script := app.Script()
	for _, want := range []string{
		`jaxon.config.requestURI = "/ajax";`,
		`jaxon_hello = function()`,
		`if (typeof App === "undefined") { App = {}; }`,
		`App.Greeter.greet = function()`,
		`bags.set`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("%s - script misses %q:\n%s", testPrefix, want, script)
		}
	}
	if app.BundleHash() == "" || !strings.Contains(app.Bundle(), script) {
		t.Errorf("%s - bundle does not embed the script", testPrefix)
	}

	if err := app.RegisterFunction("late", hello, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - registration after Script(): %v, want ConfigurationError", testPrefix, err)
	}
}

func TestApp_UploadTwoPhase(t *testing.T) {
	app := newTestApp(t)
	var received []map[string][]*upload.File
	_ = app.RegisterFunction("receive", func(_ context.Context, call *callable.Call) error {
		received = append(received, upload.FilesFrom(call.Request))
		return nil
	}, nil)

	// Phase one: an upload with no call stores the files under a token.
	rec := postFile(t, app, nil, "avatar", "My Photo.png", "png-bytes")
	b := decode(t, rec)
	rv, _ := b.Return.(map[string]interface{})
	tok, _ := rv["upl"].(string)
	if rec.Code != http.StatusOK || rv["code"] != "success" || tok == "" {
		t.Fatalf("%s - HTTP upload: status=%d body=%s", testPrefix, rec.Code, rec.Body.String())
	}

	// Phase two: the call presents the token.
	rec = postForm(t, app, url.Values{"jxnfun": {"receive"}, "jxnupl": {tok}})
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - call with token: status=%d body=%s", testPrefix, rec.Code, rec.Body.String())
	}

	// Reference: the same file sent with the call itself.
	rec = postFile(t, app, map[string]string{"jxnfun": "receive"}, "avatar", "My Photo.png", "png-bytes")
	if rec.Code != http.StatusOK {
		t.Fatalf("%s - direct upload: status=%d body=%s", testPrefix, rec.Code, rec.Body.String())
	}

	if len(received) != 2 || len(received[0]["avatar"]) != 1 || len(received[1]["avatar"]) != 1 {
		t.Fatalf("%s - received = %v", testPrefix, received)
	}
	viaToken, direct := received[0]["avatar"][0], received[1]["avatar"][0]
	if viaToken.Name != "my-photo" || viaToken.Extension != "png" {
		t.Errorf("%s - normalized file = %+v", testPrefix, viaToken)
	}
	if viaToken.Name != direct.Name || viaToken.Extension != direct.Extension || viaToken.Path != direct.Path ||
		viaToken.Filename != direct.Filename || viaToken.Size != direct.Size {
		t.Errorf("%s - token file %+v differs from direct file %+v", testPrefix, viaToken, direct)
	}

	n, err := app.PurgeUploads(context.Background())
	if err != nil || n != 0 {
		t.Errorf("%s - PurgeUploads() = %d, %v", testPrefix, n, err)
	}
}
