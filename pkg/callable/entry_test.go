package callable

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/response"
)

const entryTestPrefix = "callable:entry_test"

type Test struct {
	initCalls int
	lastName  string
}

func (t *Test) InitCall(call *Call) { t.initCalls++ }

func (t *Test) SayHello(_ context.Context, call *Call) error {
	t.lastName = call.Name
	call.Response.Alert("hello")
	return nil
}

func (t *Test) SetColor(_ context.Context, _ *Call) error { return errors.New("no color") }

func (t *Test) Helper(_ context.Context, _ *Call) error { return nil }

// Wrong signature, never exposed.
func (t *Test) Plain(s string) string { return s }

func TestNewClassEntry_Discovery(t *testing.T) {
	e, err := NewClassEntry("", &Test{}, Options{
		OptNamespace: "App",
		OptExcluded:  []interface{}{"Helper"},
	})
	if err != nil {
		t.Fatalf("%s - NewClassEntry() error: %v", entryTestPrefix, err)
	}
	if e.QualifiedName() != "App.Test" {
		t.Errorf("%s - QualifiedName() = %q, want App.Test", entryTestPrefix, e.QualifiedName())
	}
	want := []string{"sayHello", "setColor"}
	if !reflect.DeepEqual(e.Methods(), want) {
		t.Errorf("%s - Methods() = %v, want %v", entryTestPrefix, e.Methods(), want)
	}
	for _, m := range []string{"initCall", "helper", "plain"} {
		if e.HasMethod(m) {
			t.Errorf("%s - method %s must not be exposed", entryTestPrefix, m)
		}
	}
	if e.QualifiedMethod("sayHello") != "App.Test.sayHello" {
		t.Errorf("%s - QualifiedMethod() = %q", entryTestPrefix, e.QualifiedMethod("sayHello"))
	}
}

func TestNewClassEntry_Errors(t *testing.T) {
	tests := []struct {
		name   string
		class  string
		target interface{}
		opts   Options
	}{
		{"nil target", "X", nil, nil},
		{"non pointer", "X", Test{}, nil},
		{"bad namespace", "X", &Test{}, Options{OptNamespace: 12}},
		{"bad namespace segment", "X", &Test{}, Options{OptNamespace: "App.1x"}},
		{"bad excluded", "X", &Test{}, Options{OptExcluded: []interface{}{1}}},
		{"bad methods", "X", &Test{}, Options{OptMethods: map[string]interface{}{"*": "nope"}}},
		{"bad name", "my-class", &Test{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassEntry(tt.class, tt.target, tt.opts)
			if !errdefs.IsConfiguration(err) {
				t.Errorf("%s - expected ConfigurationError, got %v", entryTestPrefix, err)
			}
		})
	}
}

func TestEntry_CallOptionsMerge(t *testing.T) {
	e, err := NewClassEntry("Test", &Test{}, Options{
		OptMethods: map[string]interface{}{
			"*":        map[string]interface{}{"mode": "asynchronous", "timeout": 5},
			"sayHello": map[string]interface{}{"mode": "synchronous"},
		},
	})
	if err != nil {
		t.Fatalf("%s - NewClassEntry() error: %v", entryTestPrefix, err)
	}

	got := e.CallOptions("sayHello")
	if got["mode"] != "synchronous" || got["timeout"] != 5 {
		t.Errorf("%s - CallOptions(sayHello) = %v", entryTestPrefix, got)
	}
	got = e.CallOptions("setColor")
	if got["mode"] != "asynchronous" {
		t.Errorf("%s - CallOptions(setColor) = %v", entryTestPrefix, got)
	}
}

func TestEntry_Invoke(t *testing.T) {
	obj := &Test{}
	e, err := NewClassEntry("Test", obj, nil)
	if err != nil {
		t.Fatalf("%s - NewClassEntry() error: %v", entryTestPrefix, err)
	}

	call := &Call{Name: "Test.sayHello", Response: response.New(response.Params{})}
	if err := e.Invoke(context.Background(), "sayHello", call); err != nil {
		t.Fatalf("%s - Invoke() error: %v", entryTestPrefix, err)
	}
	if obj.initCalls != 1 || obj.lastName != "Test.sayHello" {
		t.Errorf("%s - initCalls=%d lastName=%q", entryTestPrefix, obj.initCalls, obj.lastName)
	}
	if call.Response.Len() != 1 {
		t.Errorf("%s - response has %d commands", entryTestPrefix, call.Response.Len())
	}

	if err := e.Invoke(context.Background(), "setColor", call); err == nil || err.Error() != "no color" {
		t.Errorf("%s - Invoke(setColor) = %v", entryTestPrefix, err)
	}

	err = e.Invoke(context.Background(), "helperX", call)
	if re, ok := errdefs.AsRequestError(err); !ok || re.Code != errdefs.CodeMethodNotFound {
		t.Errorf("%s - Invoke(unknown) = %v", entryTestPrefix, err)
	}
}

func TestNewClassFactoryEntry_FreshInstancePerCall(t *testing.T) {
	var built []*Test
	e, err := NewClassFactoryEntry("", func() interface{} {
		obj := &Test{}
		built = append(built, obj)
		return obj
	}, nil)
	if err != nil {
		t.Fatalf("%s - NewClassFactoryEntry() error: %v", entryTestPrefix, err)
	}
	if e.QualifiedName() != "Test" {
		t.Errorf("%s - QualifiedName() = %q", entryTestPrefix, e.QualifiedName())
	}

	for i := 0; i < 2; i++ {
		call := &Call{Name: "Test.sayHello", Response: response.New(response.Params{})}
		if err := e.Invoke(context.Background(), "sayHello", call); err != nil {
			t.Fatalf("%s - Invoke() error: %v", entryTestPrefix, err)
		}
	}
	if len(built) != 3 {
		t.Fatalf("%s - factory called %d times, want 3", entryTestPrefix, len(built))
	}
	for _, obj := range built[1:] {
		if obj.initCalls != 1 {
			t.Errorf("%s - instance initialized %d times", entryTestPrefix, obj.initCalls)
		}
	}

	if _, err := NewClassFactoryEntry("X", nil, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - expected ConfigurationError for nil factory, got %v", entryTestPrefix, err)
	}
}

func TestNewFunctionEntry(t *testing.T) {
	called := false
	fn := func(_ context.Context, _ *Call) error { called = true; return nil }

	e, err := NewFunctionEntry("hello", fn, Options{"mode": "synchronous", OptNamespace: "ignored"})
	if err != nil {
		t.Fatalf("%s - NewFunctionEntry() error: %v", entryTestPrefix, err)
	}
	if e.QualifiedName() != "hello" {
		t.Errorf("%s - QualifiedName() = %q", entryTestPrefix, e.QualifiedName())
	}
	opts := e.CallOptions("")
	if opts["mode"] != "synchronous" {
		t.Errorf("%s - CallOptions() = %v", entryTestPrefix, opts)
	}
	if _, ok := opts[OptNamespace]; ok {
		t.Errorf("%s - reserved option leaked into call options", entryTestPrefix)
	}
	if err := e.Invoke(context.Background(), "", &Call{}); err != nil || !called {
		t.Errorf("%s - Invoke() = %v called=%v", entryTestPrefix, err, called)
	}

	if _, err := NewFunctionEntry("bad name", fn, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - expected ConfigurationError for bad name, got %v", entryTestPrefix, err)
	}
	if _, err := NewFunctionEntry("nilfn", nil, nil); !errdefs.IsConfiguration(err) {
		t.Errorf("%s - expected ConfigurationError for nil func, got %v", entryTestPrefix, err)
	}
}
