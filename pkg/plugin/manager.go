package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/response"
	"github.com/morezero/jaxon/pkg/version"
)

const logPrefix = "plugin:manager"

// Manager keeps one table per capability. Tables are written during
// bootstrap and become read-only once sealed.
type Manager struct {
	mu     sync.RWMutex
	core   string
	sealed bool
	seq    int

	generators map[string]*Record
	registries map[string]*Record
	handlers   map[string]*Record
	producers  map[string]*Record
}

// NewManager creates an empty Manager. An empty core version uses
// version.Core.
func NewManager(core string) *Manager {
	if core == "" {
		core = version.Core
	}
	return &Manager{
		core:       core,
		generators: make(map[string]*Record),
		registries: make(map[string]*Record),
		handlers:   make(map[string]*Record),
		producers:  make(map[string]*Record),
	}
}

// RegisterPlugin classifies p by the interfaces it implements and adds it
// to every matching table. A name already present in a table is shadowed
// in that table only. An empty name uses Named.Name().
func (m *Manager) RegisterPlugin(p interface{}, name string, priority int) error {
	if p == nil {
		return errdefs.NewConfigurationError(name, "plugin is nil")
	}
	if name == "" {
		if n, ok := p.(Named); ok {
			name = n.Name()
		}
	}
	if name == "" {
		return errdefs.NewConfigurationError(fmt.Sprintf("%T", p), "plugin has no name")
	}
	if priority < MinPriority || priority > MaxPriority {
		return errdefs.NewConfigurationError(name, "priority %d outside [%d, %d]", priority, MinPriority, MaxPriority)
	}

	caps := CapabilitiesOf(p)
	if caps == 0 {
		return errdefs.NewConfigurationError(name, "type %T implements no plugin interface", p)
	}
	if r, ok := p.(version.Requirer); ok {
		if err := version.CheckCompatible(name, r.RequiresCore(), m.core); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sealed {
		return errdefs.NewConfigurationError(name, "plugin registry is sealed")
	}

	m.seq++
	rec := &Record{Name: name, Priority: priority, Capabilities: caps, Plugin: p, Seq: m.seq}
	for _, t := range []struct {
		cap   Capability
		table map[string]*Record
	}{
		{CapCodeGenerator, m.generators},
		{CapCallableRegistry, m.registries},
		{CapRequestHandler, m.handlers},
		{CapResponseProducer, m.producers},
	} {
		if !caps.Has(t.cap) {
			continue
		}
		if prev, ok := t.table[name]; ok {
			slog.Warn(fmt.Sprintf("%s - plugin %s (%T) shadows %T as %s", logPrefix, name, p, prev.Plugin, t.cap))
		}
		t.table[name] = rec
	}

	slog.Debug(fmt.Sprintf("%s - registered plugin %s priority=%d capabilities=%s", logPrefix, name, priority, caps))
	return nil
}

// Seal makes the registry read-only.
func (m *Manager) Seal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sealed {
		m.sealed = true
		slog.Debug(fmt.Sprintf("%s - plugin registry sealed", logPrefix))
	}
}

// Sealed reports whether Seal was called.
func (m *Manager) Sealed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sealed
}

// CoreVersion returns the core version plugins are checked against.
func (m *Manager) CoreVersion() string { return m.core }

// CodeGenerators returns the code generator records by ascending priority,
// ties broken by registration order.
func (m *Manager) CodeGenerators() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := snapshot(m.generators)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// RequestHandlers returns the request handler records in registration order.
func (m *Manager) RequestHandlers() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := snapshot(m.handlers)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func snapshot(table map[string]*Record) []Record {
	out := make([]Record, 0, len(table))
	for _, r := range table {
		out = append(out, *r)
	}
	return out
}

// CallableRegistry returns the registry plugin of a callable kind.
func (m *Manager) CallableRegistry(kind callable.Kind) (CallableRegistry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.registries[string(kind)]
	if !ok {
		return nil, false
	}
	return rec.Plugin.(CallableRegistry), true
}

// RegisterCallable validates def with the registry of kind, then registers
// it there.
func (m *Manager) RegisterCallable(kind callable.Kind, def callable.Definition) error {
	if m.Sealed() {
		return errdefs.NewConfigurationError(def.Name, "callable registry is sealed")
	}
	reg, ok := m.CallableRegistry(kind)
	if !ok {
		return errdefs.NewConfigurationError(def.Name, "unknown callable kind %q", kind)
	}

	opts, err := reg.CheckOptions(def)
	if err != nil {
		if errdefs.IsConfiguration(err) {
			return err
		}
		return &errdefs.ConfigurationError{Subject: def.Name, Message: "invalid options", Err: err}
	}
	if err := reg.Register(def, opts); err != nil {
		return err
	}
	slog.Debug(fmt.Sprintf("%s - registered %s callable %s", logPrefix, kind, def.Name))
	return nil
}

// ResponsePlugin returns the producer registered under name, or nil.
func (m *Manager) ResponsePlugin(name string) ResponseProducer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.producers[name]
	if !ok {
		return nil
	}
	return rec.Plugin.(ResponseProducer)
}

// ResolveResponsePlugin implements response.PluginResolver.
func (m *Manager) ResolveResponsePlugin(name string, r *response.Response) (response.Plugin, bool) {
	producer := m.ResponsePlugin(name)
	if producer == nil {
		return nil, false
	}
	p := producer.NewResponsePlugin(r)
	return p, p != nil
}

// Records returns every registered plugin once, in registration order.
func (m *Manager) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[int]bool)
	var out []Record
	for _, table := range []map[string]*Record{m.generators, m.registries, m.handlers, m.producers} {
		for _, r := range table {
			if !seen[r.Seq] {
				seen[r.Seq] = true
				out = append(out, *r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
