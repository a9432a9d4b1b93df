package callable

import (
	"testing"

	"github.com/morezero/jaxon/pkg/errdefs"
)

const indexTestPrefix = "callable:index_test"

func methodNames(e *Entry) []string {
	var out []string
	for _, m := range e.Methods() {
		out = append(out, e.QualifiedMethod(m))
	}
	return out
}

func TestIndex_CollisionIsConfigurationError(t *testing.T) {
	idx := NewIndex()
	first, _ := NewClassEntry("Test", &Test{}, Options{OptNamespace: "App"})
	second, _ := NewClassEntry("Test", &Test{}, Options{OptNamespace: "App"})
	other, _ := NewClassEntry("Test", &Test{}, Options{OptNamespace: "Other"})

	if err := idx.ReserveEntry(first, methodNames); err != nil {
		t.Fatalf("%s - first ReserveEntry() error: %v", indexTestPrefix, err)
	}
	if err := idx.ReserveEntry(second, methodNames); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - expected ConfigurationError on collision, got %v", indexTestPrefix, err)
	}
	if err := idx.ReserveEntry(other, methodNames); err != nil {
		t.Errorf("%s - different namespace must not collide: %v", indexTestPrefix, err)
	}
	if !idx.Has("App.Test.sayHello") || !idx.Has("Other.Test.setColor") {
		t.Errorf("%s - names missing: %v", indexTestPrefix, idx.Names())
	}
	if len(idx.Names()) != 6 {
		t.Errorf("%s - Names() = %v, want 6 entries", indexTestPrefix, idx.Names())
	}
}

func TestIndex_Reserve(t *testing.T) {
	idx := NewIndex()
	if err := idx.Reserve("jaxon_hello", "function:hello"); err != nil {
		t.Fatalf("%s - Reserve() error: %v", indexTestPrefix, err)
	}
	if err := idx.Reserve("jaxon_hello", "function:hello"); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - expected ConfigurationError, got %v", indexTestPrefix, err)
	}
}
