// Package class registers objects, and directories of classes, as callables
// whose exported methods the browser may call.
package class

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/codegen"
	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/i18n"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

const logPrefix = "class:plugin"

// PluginName is the name and callable kind of the plugin.
const PluginName = string(callable.KindClass)

// Priority is the code generation priority of the plugin.
const Priority = 102

var classTemplate = template.Must(template.New("class").Parse(
	`{{range .Objects}}if (typeof {{.}} === "undefined") { {{.}} = {}; }
{{end}}{{range .Stubs}}{{.}}
{{end}}`))

// NewPluginParams holds the collaborators of a Plugin.
type NewPluginParams struct {
	Index      *callable.Index
	Options    *options.Options
	Translator i18n.Translator
}

// Plugin is the class registry, request handler and stub generator.
type Plugin struct {
	index      *callable.Index
	opts       *options.Options
	translator i18n.Translator

	mu      sync.RWMutex
	entries map[string]*callable.Entry
	order   []string
}

// New creates a Plugin.
func New(p NewPluginParams) *Plugin {
	pl := &Plugin{
		index:      p.Index,
		opts:       p.Options,
		translator: p.Translator,
		entries:    make(map[string]*callable.Entry),
	}
	if pl.index == nil {
		pl.index = callable.NewIndex()
	}
	if pl.opts == nil {
		pl.opts = options.Default()
	}
	if pl.translator == nil {
		pl.translator = i18n.Default()
	}
	return pl
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return PluginName }

// CheckOptions validates a class definition. The target is either a pointer
// to an object, shared by every call, or a func() interface{} building one
// instance per call.
func (p *Plugin) CheckOptions(def callable.Definition) (callable.Options, error) {
	switch t := def.Target.(type) {
	case nil:
		return nil, errdefs.NewConfigurationError(def.Name, "class target is nil")
	case func() interface{}:
		if t == nil {
			return nil, errdefs.NewConfigurationError(def.Name, "class factory is nil")
		}
	}
	if err := callable.CheckOptions(def.Name, def.Options); err != nil {
		return nil, err
	}
	opts := make(callable.Options, len(def.Options))
	for k, v := range def.Options {
		opts[k] = v
	}
	return opts, nil
}

// Register adds a checked class definition.
func (p *Plugin) Register(def callable.Definition, opts callable.Options) error {
	var (
		e   *callable.Entry
		err error
	)
	if factory, ok := def.Target.(func() interface{}); ok {
		e, err = callable.NewClassFactoryEntry(def.Name, factory, opts)
	} else {
		e, err = callable.NewClassEntry(def.Name, def.Target, opts)
	}
	if err != nil {
		return err
	}
	return p.add(e)
}

func exposed(e *callable.Entry) []string {
	names := []string{e.QualifiedName()}
	for _, m := range e.Methods() {
		names = append(names, e.QualifiedMethod(m))
	}
	return names
}

func (p *Plugin) add(e *callable.Entry) error {
	if err := p.index.ReserveEntry(e, exposed); err != nil {
		return err
	}
	name := e.QualifiedName()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[name] = e
	p.order = append(p.order, name)
	slog.Debug(fmt.Sprintf("%s - registered class %s methods=%v", logPrefix, name, e.Methods()))
	return nil
}

// Entry returns the class registered under a qualified name.
func (p *Plugin) Entry(name string) (*callable.Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[name]
	return e, ok
}

// Names returns the qualified class names in registration order.
func (p *Plugin) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}

func (p *Plugin) Js() string          { return "" }
func (p *Plugin) Css() string         { return "" }
func (p *Plugin) ReadyScript() string { return "" }

// Script declares the javascript object of every class, with one stub per
// exposed method. Objects are named with the class prefix.
func (p *Plugin) Script() string {
	prefix := p.opts.String("core.prefix.class", "")

	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.order) == 0 {
		return ""
	}

	declared := make(map[string]bool)
	var data struct {
		Objects []string
		Stubs   []string
	}
	for _, name := range p.order {
		e := p.entries[name]
		segments := strings.Split(prefix+name, ".")
		for i := range segments {
			obj := strings.Join(segments[:i+1], ".")
			if !declared[obj] {
				declared[obj] = true
				data.Objects = append(data.Objects, obj)
			}
		}
		for _, m := range e.Methods() {
			target := []codegen.Field{
				{Key: request.FieldClass, Value: name},
				{Key: request.FieldMethod, Value: m},
			}
			data.Stubs = append(data.Stubs, codegen.CallStub(prefix+name+"."+m, target, e.CallOptions(m)))
		}
	}

	var b strings.Builder
	if err := classTemplate.Execute(&b, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to render class stubs: %v", logPrefix, err))
		return ""
	}
	return strings.TrimRight(b.String(), "\n")
}

// CanProcessRequest reports whether rc calls a class method.
func (p *Plugin) CanProcessRequest(rc *request.Context) bool {
	return rc.Target().Class != ""
}

// ProcessRequest calls the addressed method.
func (p *Plugin) ProcessRequest(ctx context.Context, rc *request.Context, resp *response.Response) error {
	target := rc.Target()
	e, ok := p.Entry(target.Class)
	if !ok {
		return errdefs.NewRequestError(errdefs.CodeCallableNotFound,
			p.translator.Trans(i18n.ErrCallableNotFound, map[string]string{"name": target.Class}), nil)
	}
	if !e.HasMethod(target.Method) {
		return errdefs.NewRequestError(errdefs.CodeMethodNotFound,
			p.translator.Trans(i18n.ErrMethodNotFound, map[string]string{"method": target.Method, "class": target.Class}), nil)
	}

	args, err := rc.Args()
	if err != nil {
		return err
	}
	call := &callable.Call{
		Name:     target.String(),
		Request:  rc,
		Response: resp,
		Args:     args,
		Options:  e.CallOptions(target.Method),
	}
	slog.Debug(fmt.Sprintf("%s - calling %s with %d argument(s)", logPrefix, call.Name, args.Len()))
	return e.Invoke(ctx, target.Method, call)
}
