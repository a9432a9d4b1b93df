// Package plugin classifies and orders the plugins that generate code,
// register callables, handle requests and extend responses.
package plugin

import (
	"context"
	"strings"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

// Priority bounds. Core plugins use 0-999, user plugins 1000-8999 and
// plugins that must run last 9000-9999.
const (
	MinPriority      = 0
	DefaultPriority  = 1000
	TerminalPriority = 9000
	MaxPriority      = 9999
)

// CodeGenerator contributes javascript and css to the generated bundle.
type CodeGenerator interface {
	Js() string
	Css() string
	Script() string
	ReadyScript() string
}

// CallableRegistry accepts registrations of one callable kind.
type CallableRegistry interface {
	CheckOptions(def callable.Definition) (callable.Options, error)
	Register(def callable.Definition, opts callable.Options) error
}

// RequestHandler serves requests it recognizes.
type RequestHandler interface {
	CanProcessRequest(rc *request.Context) bool
	ProcessRequest(ctx context.Context, rc *request.Context, resp *response.Response) error
}

// Preprocessor is a RequestHandler that prepares requests owned by another
// handler, such as attaching uploaded files before a call runs.
type Preprocessor interface {
	RequestHandler
	PreprocessRequest(ctx context.Context, rc *request.Context) error
}

// ResponseProducer creates the per-response instance of a response plugin.
type ResponseProducer interface {
	NewResponsePlugin(r *response.Response) response.Plugin
}

// Named is implemented by plugins that carry a default name.
type Named interface {
	Name() string
}

// Capability is a bit set of the interfaces a plugin implements.
type Capability uint8

const (
	CapCodeGenerator Capability = 1 << iota
	CapCallableRegistry
	CapRequestHandler
	CapResponseProducer
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapCodeGenerator, "code-generator"},
	{CapCallableRegistry, "callable-registry"},
	{CapRequestHandler, "request-handler"},
	{CapResponseProducer, "response-producer"},
}

// Has reports whether c includes every bit of other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	var parts []string
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			parts = append(parts, cn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// CapabilitiesOf returns the capabilities implemented by p.
func CapabilitiesOf(p interface{}) Capability {
	var c Capability
	if _, ok := p.(CodeGenerator); ok {
		c |= CapCodeGenerator
	}
	if _, ok := p.(CallableRegistry); ok {
		c |= CapCallableRegistry
	}
	if _, ok := p.(RequestHandler); ok {
		c |= CapRequestHandler
	}
	if _, ok := p.(ResponseProducer); ok {
		c |= CapResponseProducer
	}
	return c
}

// Record describes one registered plugin.
type Record struct {
	Name         string
	Priority     int
	Capabilities Capability
	Plugin       interface{}
	Seq          int
}
