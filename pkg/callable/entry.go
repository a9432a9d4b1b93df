package callable

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/morezero/jaxon/pkg/errdefs"
)

const logPrefix = "callable:entry"

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	callType    = reflect.TypeOf((*Call)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Entry is one registered function or object.
type Entry struct {
	Kind      Kind
	Name      string
	Classpath []string

	fn       Func
	target   reflect.Value
	factory  func() interface{}
	methods  map[string]string
	names    []string
	options  map[string]map[string]interface{}
	excluded map[string]bool
}

// NewFunctionEntry creates the entry of a plain function. Options other than
// the reserved keys become the call options of the function.
func NewFunctionEntry(name string, fn Func, opts Options) (*Entry, error) {
	if !isIdentifier(name) {
		return nil, errdefs.NewConfigurationError(name, "invalid function name")
	}
	if fn == nil {
		return nil, errdefs.NewConfigurationError(name, "function is nil")
	}
	if err := CheckOptions(name, opts); err != nil {
		return nil, err
	}

	callOpts := make(map[string]interface{})
	for k, v := range opts {
		switch k {
		case OptNamespace, OptExcluded, OptMethods, OptExtension, OptName:
		default:
			callOpts[k] = v
		}
	}
	return &Entry{
		Kind:    KindFunction,
		Name:    name,
		fn:      fn,
		options: map[string]map[string]interface{}{Wildcard: callOpts},
	}, nil
}

// NewClassEntry creates the entry of an object. Its exposed methods are the
// exported methods with the Func signature, minus lifecycle and excluded
// methods. An empty name uses the type name of target.
func NewClassEntry(name string, target interface{}, opts Options) (*Entry, error) {
	if target == nil {
		return nil, errdefs.NewConfigurationError(name, "class target is nil")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, errdefs.NewConfigurationError(name, "class target must be a non-nil pointer, got %T", target)
	}
	if name == "" {
		if n, ok := opts[OptName].(string); ok && n != "" {
			name = n
		} else {
			name = v.Elem().Type().Name()
		}
	}
	if !isIdentifier(name) {
		return nil, errdefs.NewConfigurationError(name, "invalid class name")
	}
	if err := CheckOptions(name, opts); err != nil {
		return nil, err
	}

	classpath, _ := Segments(opts[OptNamespace])
	extra, _ := StringList(opts[OptExcluded])
	methodOpts, _ := MethodOptions(opts[OptMethods])

	e := &Entry{
		Kind:      KindClass,
		Name:      name,
		Classpath: classpath,
		target:    v,
		methods:   make(map[string]string),
		options:   methodOpts,
		excluded:  make(map[string]bool),
	}
	for _, m := range DefaultExcluded {
		e.excluded[m] = true
	}
	for _, m := range extra {
		e.excluded[m] = true
	}

	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !isCallableMethod(m.Type) {
			continue
		}
		jsName := lowerFirst(m.Name)
		if e.excluded[m.Name] || e.excluded[jsName] {
			continue
		}
		e.methods[jsName] = m.Name
		e.names = append(e.names, jsName)
	}
	sort.Strings(e.names)

	if len(e.names) == 0 {
		slog.Warn(fmt.Sprintf("%s - class %s exposes no method", logPrefix, e.QualifiedName()))
	}
	return e, nil
}

// NewClassFactoryEntry creates the entry of a class built anew by factory
// for every call. Methods are discovered on one instance.
func NewClassFactoryEntry(name string, factory func() interface{}, opts Options) (*Entry, error) {
	if factory == nil {
		return nil, errdefs.NewConfigurationError(name, "class factory is nil")
	}
	e, err := NewClassEntry(name, factory(), opts)
	if err != nil {
		return nil, err
	}
	e.factory = factory
	return e, nil
}

func isCallableMethod(t reflect.Type) bool {
	return t.NumIn() == 3 && t.In(1) == contextType && t.In(2) == callType &&
		t.NumOut() == 1 && t.Out(0) == errorType
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// QualifiedName returns the dotted name of the entry.
func (e *Entry) QualifiedName() string {
	if len(e.Classpath) == 0 {
		return e.Name
	}
	return joinName(append(append([]string{}, e.Classpath...), e.Name)...)
}

// QualifiedMethod returns the dotted name of one method.
func (e *Entry) QualifiedMethod(method string) string {
	return e.QualifiedName() + "." + method
}

// Methods returns the exposed method names in sorted order.
func (e *Entry) Methods() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// HasMethod reports whether method is exposed.
func (e *Entry) HasMethod(method string) bool {
	_, ok := e.methods[method]
	return ok
}

// IsExcluded reports whether method was excluded at registration.
func (e *Entry) IsExcluded(method string) bool {
	return e.excluded[method]
}

// CallOptions returns the effective options of a method: the wildcard
// options merged with the method's own. Functions pass an empty method.
func (e *Entry) CallOptions(method string) map[string]interface{} {
	if method == "" {
		return MergeOptions(e.options[Wildcard], nil)
	}
	return MergeOptions(e.options[Wildcard], e.options[method])
}

// Invoke runs the callable. For objects, InitCall runs first when the
// target implements Initializer.
func (e *Entry) Invoke(ctx context.Context, method string, call *Call) error {
	if e.Kind == KindFunction {
		return e.fn(ctx, call)
	}

	goName, ok := e.methods[method]
	if !ok {
		return errdefs.NewRequestError(errdefs.CodeMethodNotFound,
			fmt.Sprintf("method %s is not exposed", e.QualifiedMethod(method)), nil)
	}
	target := e.target
	if e.factory != nil {
		target = reflect.ValueOf(e.factory())
		if !target.IsValid() || target.Type() != e.target.Type() {
			return errdefs.NewRequestError(errdefs.CodeInternal,
				fmt.Sprintf("factory of %s returned %v", e.QualifiedName(), target), nil)
		}
	}
	if initer, ok := target.Interface().(Initializer); ok {
		initer.InitCall(call)
	}
	out := target.MethodByName(goName).Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(call)})
	if err, _ := out[0].Interface().(error); err != nil {
		return err
	}
	return nil
}
