// Package callable describes the server-side functions and object methods
// that the browser may invoke.
package callable

import (
	"context"

	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

// Kind names a callable registry. It equals the name of the plugin that
// handles registrations of that kind.
type Kind string

const (
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindDirectory Kind = "directory"
)

// Option keys recognized at registration.
const (
	OptNamespace = "namespace"
	OptExcluded  = "excluded"
	OptMethods   = "methods"
	OptExtension = "extension"
	OptName      = "name"
)

// Wildcard is the method key whose options apply to every method.
const Wildcard = "*"

// Options holds raw registration options.
type Options map[string]interface{}

// Definition is one registration request.
type Definition struct {
	Name    string
	Target  interface{}
	Options Options
}

// Call carries everything a callable needs to serve one request.
type Call struct {
	Name     string
	Request  *request.Context
	Response *response.Response
	Args     request.Args
	Options  map[string]interface{}
}

// Func is the signature of a registered function, and of every exposed
// object method.
type Func func(ctx context.Context, call *Call) error

// Initializer is implemented by objects that prepare themselves before each
// method call. InitCall is never exposed to the browser.
type Initializer interface {
	InitCall(call *Call)
}

// DefaultExcluded lists the lifecycle methods that are never exposed.
var DefaultExcluded = []string{"InitCall", "Init", "Close"}

// Catalog maps class names found while scanning a directory to their
// constructors. Keys are dotted paths relative to the scanned directory,
// e.g. "Admin.Users", or bare class names.
type Catalog map[string]func() interface{}

// Lookup returns the constructor for a dotted class path, falling back to
// the bare class name.
func (c Catalog) Lookup(classpath []string, class string) (func() interface{}, bool) {
	full := class
	if len(classpath) > 0 {
		full = joinName(append(append([]string{}, classpath...), class)...)
	}
	if f, ok := c[full]; ok {
		return f, true
	}
	f, ok := c[class]
	return f, ok
}
