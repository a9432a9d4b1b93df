// Package jaxon wires the plugin registry, the callable registrars, the
// upload handler and the response plugins into one App serving AJAX
// requests over HTTP.
package jaxon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/codegen"
	"github.com/morezero/jaxon/pkg/dispatcher"
	"github.com/morezero/jaxon/pkg/events"
	"github.com/morezero/jaxon/pkg/i18n"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/plugin"
	"github.com/morezero/jaxon/pkg/plugins/class"
	"github.com/morezero/jaxon/pkg/plugins/databag"
	"github.com/morezero/jaxon/pkg/plugins/dialog"
	"github.com/morezero/jaxon/pkg/plugins/function"
	"github.com/morezero/jaxon/pkg/plugins/jquery"
	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/upload"
)

const logPrefix = "jaxon:app"

// UploadPriority is the priority the upload handler registers with.
const UploadPriority = 104

// Params holds the collaborators of an App. Every field is optional.
type Params struct {
	Options    *options.Options
	Translator i18n.Translator
	Publisher  events.EventPublisher

	// Upload storage. A nil Store still accepts uploads attached to calls,
	// but HTTP-only uploads fail.
	Store     upload.TempStore
	Signer    *upload.Signer
	UploadTTL time.Duration

	// MaxMemory bounds the multipart memory used while parsing requests.
	MaxMemory int64
}

// App is the entry point of the library. Callables are registered during
// bootstrap; the first call to Script, Bundle or a served request seals the
// registries.
type App struct {
	opts       *options.Options
	translator i18n.Translator
	maxMemory  int64

	plugins    *plugin.Manager
	index      *callable.Index
	functions  *function.Plugin
	classes    *class.Plugin
	uploads    *upload.Handler
	dispatcher *dispatcher.Dispatcher
	generator  *codegen.Generator
}

// New creates an App with the built-in plugins registered.
func New(p Params) (*App, error) {
	opts := p.Options
	if opts == nil {
		opts = options.Default()
	}
	tr := p.Translator
	if tr == nil {
		tr = i18n.NewTranslator(opts.String("core.language", "en"))
	}
	pub := p.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}

	app := &App{
		opts:       opts,
		translator: tr,
		maxMemory:  p.MaxMemory,
		plugins:    plugin.NewManager(""),
		index:      callable.NewIndex(),
	}
	app.functions = function.New(function.NewPluginParams{Index: app.index, Options: opts, Translator: tr})
	app.classes = class.New(class.NewPluginParams{Index: app.index, Options: opts, Translator: tr})
	app.uploads = upload.NewHandler(upload.NewHandlerParams{
		Options:    opts,
		Store:      p.Store,
		Signer:     p.Signer,
		TTL:        p.UploadTTL,
		Translator: tr,
		Publisher:  pub,
	})

	builtins := []struct {
		plugin   interface{}
		name     string
		priority int
	}{
		{app.functions, function.PluginName, function.Priority},
		{app.classes, class.PluginName, class.Priority},
		{class.NewDirectory(app.classes), class.DirectoryName, class.DirectoryPriority},
		{app.uploads, upload.PluginName, UploadPriority},
		{jquery.NewProducer(opts), jquery.PluginName, jquery.Priority},
		{databag.NewProducer(), databag.PluginName, databag.Priority},
		{dialog.NewProducer(), dialog.PluginName, dialog.Priority},
	}
	for _, b := range builtins {
		if err := app.plugins.RegisterPlugin(b.plugin, b.name, b.priority); err != nil {
			return nil, fmt.Errorf("%s - failed to register %s: %w", logPrefix, b.name, err)
		}
	}

	app.dispatcher = dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{Plugins: app.plugins, Publisher: pub})
	app.generator = codegen.NewGenerator(codegen.NewGeneratorParams{Plugins: app.plugins, Options: opts})

	slog.Debug(fmt.Sprintf("%s - app created with %d plugins", logPrefix, len(builtins)))
	return app, nil
}

// Options returns the options tree.
func (a *App) Options() *options.Options { return a.opts }

// Plugins returns the plugin registry.
func (a *App) Plugins() *plugin.Manager { return a.plugins }

// Uploads returns the upload handler.
func (a *App) Uploads() *upload.Handler { return a.uploads }

// RegisterPlugin adds a user plugin.
func (a *App) RegisterPlugin(p interface{}, name string, priority int) error {
	return a.plugins.RegisterPlugin(p, name, priority)
}

// Register adds a callable of the given kind.
func (a *App) Register(kind callable.Kind, name string, target interface{}, opts callable.Options) error {
	return a.plugins.RegisterCallable(kind, callable.Definition{Name: name, Target: target, Options: opts})
}

// RegisterFunction exposes fn to the browser under name.
func (a *App) RegisterFunction(name string, fn interface{}, opts callable.Options) error {
	return a.Register(callable.KindFunction, name, fn, opts)
}

// RegisterClass exposes the methods of target. An empty name uses the type
// name of target.
func (a *App) RegisterClass(name string, target interface{}, opts callable.Options) error {
	return a.Register(callable.KindClass, name, target, opts)
}

// RegisterDirectory exposes every class of catalog found as a file under
// dir.
func (a *App) RegisterDirectory(dir string, catalog callable.Catalog, opts callable.Options) error {
	return a.Register(callable.KindDirectory, dir, catalog, opts)
}

// Callables returns the qualified names of every exposed function, class and
// method.
func (a *App) Callables() []string { return a.index.Names() }

// Js returns the JavaScript sections of the plugins.
func (a *App) Js() string { return a.generator.Js() }

// Css returns the CSS sections of the plugins.
func (a *App) Css() string { return a.generator.Css() }

// Script returns the client configuration and the generated stubs.
func (a *App) Script() string { return a.generator.Script() }

// Bundle returns the CSS, the JavaScript and the script, in that order.
func (a *App) Bundle() string { return a.generator.Bundle() }

// BundleHash returns a digest of Bundle, usable as a cache key.
func (a *App) BundleHash() string { return a.generator.Hash() }

// ProcessRequest dispatches rc. The registries are sealed first.
func (a *App) ProcessRequest(ctx context.Context, rc *request.Context) *dispatcher.Result {
	a.plugins.Seal()
	return a.dispatcher.Dispatch(ctx, rc)
}

// PurgeUploads deletes the expired upload records.
func (a *App) PurgeUploads(ctx context.Context) (int64, error) {
	return a.uploads.Purge(ctx)
}
