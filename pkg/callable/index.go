package callable

import (
	"sort"
	"sync"

	"github.com/morezero/jaxon/pkg/errdefs"
)

// Index enforces unique qualified names across every callable registry.
type Index struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{names: make(map[string]string)}
}

// Reserve claims a qualified name for owner. A name already claimed is a
// ConfigurationError.
func (i *Index) Reserve(name, owner string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if prev, ok := i.names[name]; ok {
		return errdefs.NewConfigurationError(name, "callable name already registered by %s", prev)
	}
	i.names[name] = owner
	return nil
}

// ReserveEntry claims every name exposed by e, all or nothing.
func (i *Index) ReserveEntry(e *Entry, exposed func(e *Entry) []string) error {
	names := exposed(e)
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, n := range names {
		if prev, ok := i.names[n]; ok {
			return errdefs.NewConfigurationError(n, "callable name already registered by %s", prev)
		}
	}
	for _, n := range names {
		i.names[n] = string(e.Kind) + ":" + e.QualifiedName()
	}
	return nil
}

// Has reports whether name is claimed.
func (i *Index) Has(name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.names[name]
	return ok
}

// Names returns every claimed name in sorted order.
func (i *Index) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]string, 0, len(i.names))
	for n := range i.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
