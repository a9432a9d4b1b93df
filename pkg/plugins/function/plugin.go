// Package function registers plain functions, declares their javascript
// stubs and serves the requests that call them.
package function

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/codegen"
	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/i18n"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

const logPrefix = "function:plugin"

// PluginName is the name and callable kind of the plugin.
const PluginName = string(callable.KindFunction)

// Priority is the code generation priority of the plugin.
const Priority = 101

// NewPluginParams holds the collaborators of a Plugin.
type NewPluginParams struct {
	Index      *callable.Index
	Options    *options.Options
	Translator i18n.Translator
}

// Plugin is the function registry, request handler and stub generator.
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

func asFunc(target interface{}) (callable.Func, bool) {
	switch fn := target.(type) {
	case callable.Func:
		return fn, fn != nil
	case func(context.Context, *callable.Call) error:
		return fn, fn != nil
	}
	return nil, false
}

// CheckOptions validates a function definition.
func (p *Plugin) CheckOptions(def callable.Definition) (callable.Options, error) {
	if _, ok := asFunc(def.Target); !ok {
		return nil, errdefs.NewConfigurationError(def.Name, "function target of type %T is not a callable.Func", def.Target)
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

// Register adds a checked function definition.
func (p *Plugin) Register(def callable.Definition, opts callable.Options) error {
	fn, _ := asFunc(def.Target)
	e, err := callable.NewFunctionEntry(def.Name, fn, opts)
	if err != nil {
		return err
	}
	if err := p.index.Reserve(e.QualifiedName(), PluginName); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[e.Name] = e
	p.order = append(p.order, e.Name)
	slog.Debug(fmt.Sprintf("%s - registered function %s", logPrefix, e.Name))
	return nil
}

// Entry returns the function registered under name.
func (p *Plugin) Entry(name string) (*callable.Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[name]
	return e, ok
}

// Names returns the registered function names in registration order.
func (p *Plugin) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.order...)
}

func (p *Plugin) Js() string          { return "" }
func (p *Plugin) Css() string         { return "" }
func (p *Plugin) ReadyScript() string { return "" }

// Script declares one stub per function, named with the function prefix.
func (p *Plugin) Script() string {
	prefix := p.opts.String("core.prefix.function", "jaxon_")

	p.mu.RLock()
	defer p.mu.RUnlock()
	stubs := make([]string, 0, len(p.order))
	for _, name := range p.order {
		target := []codegen.Field{{Key: request.FieldFunction, Value: name}}
		stubs = append(stubs, codegen.CallStub(prefix+name, target, p.entries[name].CallOptions("")))
	}
	return strings.Join(stubs, "\n")
}

// CanProcessRequest reports whether rc calls a function.
func (p *Plugin) CanProcessRequest(rc *request.Context) bool {
	return rc.Target().Function != ""
}

// ProcessRequest calls the addressed function.
func (p *Plugin) ProcessRequest(ctx context.Context, rc *request.Context, resp *response.Response) error {
	name := rc.Target().Function
	e, ok := p.Entry(name)
	if !ok {
		return errdefs.NewRequestError(errdefs.CodeCallableNotFound,
			p.translator.Trans(i18n.ErrCallableNotFound, map[string]string{"name": name}), nil)
	}

	args, err := rc.Args()
	if err != nil {
		return err
	}
	call := &callable.Call{
		Name:     name,
		Request:  rc,
		Response: resp,
		Args:     args,
		Options:  e.CallOptions(""),
	}
	slog.Debug(fmt.Sprintf("%s - calling %s with %d argument(s)", logPrefix, name, args.Len()))
	return e.Invoke(ctx, "", call)
}
