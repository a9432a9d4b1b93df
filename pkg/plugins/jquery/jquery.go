// Package jquery adds jQuery calls to responses.
package jquery

import (
	"encoding/json"
	"strings"

	"github.com/morezero/jaxon/pkg/codegen"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/response"
)

// PluginName is the name of the response plugin.
const PluginName = "jquery"

// Priority is the code generation priority of the plugin.
const Priority = 700

// Producer creates the jquery plugin of each response.
type Producer struct {
	opts *options.Options
}

// NewProducer creates a Producer. A nil opts uses the defaults.
func NewProducer(opts *options.Options) *Producer {
	if opts == nil {
		opts = options.Default()
	}
	return &Producer{opts: opts}
}

// Name returns the plugin name.
func (p *Producer) Name() string { return PluginName }

// NewResponsePlugin implements plugin.ResponseProducer.
func (p *Producer) NewResponsePlugin(r *response.Response) response.Plugin {
	jq := "$"
	if p.opts.Bool("core.jquery.no_conflict", false) {
		jq = "jQuery"
	}
	return &Plugin{resp: r, jq: jq}
}

func (p *Producer) Js() string          { return "" }
func (p *Producer) Css() string         { return "" }
func (p *Producer) ReadyScript() string { return "" }

// Script registers the client handler of jquery commands.
func (p *Producer) Script() string {
	return `jaxon.register("jquery", function(args) { (new Function(args.data))(); return true; });`
}

// Plugin is the jquery plugin of one response.
type Plugin struct {
	resp *response.Response
	jq   string
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return PluginName }

// From returns the jquery plugin of r, or nil when it is not registered.
func From(r *response.Response) *Plugin {
	p, _ := r.Plugin(PluginName).(*Plugin)
	return p
}

// Select appends a command running calls on the elements matching selector,
// searched within context when it is not empty. An empty selector targets
// the element that triggered the request.
func (p *Plugin) Select(selector, context string) *Selector {
	s := &Selector{jq: p.jq, selector: selector, context: context}
	p.resp.AddPluginCommand(p, "jquery", nil, s)
	return s
}

// Selector accumulates chained calls. It renders when the response is
// serialized, so calls may be added after Select returns.
type Selector struct {
	jq       string
	selector string
	context  string
	chain    []string
	assign   string
}

// Call chains method(args...).
func (s *Selector) Call(method string, args ...interface{}) *Selector {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = codegen.Literal(a)
	}
	s.chain = append(s.chain, "."+method+"("+strings.Join(parts, ", ")+")")
	return s
}

// Set assigns value to a property of the selection. It ends the chain.
func (s *Selector) Set(property string, value interface{}) {
	s.assign = "." + property + " = " + codegen.Literal(value)
}

func (s *Selector) Html(v string) *Selector                   { return s.Call("html", v) }
func (s *Selector) Text(v string) *Selector                   { return s.Call("text", v) }
func (s *Selector) Val(v interface{}) *Selector               { return s.Call("val", v) }
func (s *Selector) Attr(name string, v interface{}) *Selector { return s.Call("attr", name, v) }
func (s *Selector) Css(name string, v interface{}) *Selector  { return s.Call("css", name, v) }
func (s *Selector) AddClass(class string) *Selector           { return s.Call("addClass", class) }
func (s *Selector) RemoveClass(class string) *Selector        { return s.Call("removeClass", class) }
func (s *Selector) Show() *Selector                           { return s.Call("show") }
func (s *Selector) Hide() *Selector                           { return s.Call("hide") }

// On binds handler, a javascript expression, to event.
func (s *Selector) On(event, handler string) *Selector {
	return s.Call("on", event, codegen.Raw(handler))
}

// Script returns the javascript statement of the selector.
func (s *Selector) Script() string {
	var b strings.Builder
	b.WriteString(s.jq)
	switch {
	case s.selector == "":
		b.WriteString("(this)")
	case s.context == "":
		b.WriteString("(" + codegen.Literal(s.selector) + ")")
	default:
		b.WriteString("(" + codegen.Literal(s.selector) + ", " + codegen.Literal(s.context) + ")")
	}
	for _, c := range s.chain {
		b.WriteString(c)
	}
	b.WriteString(s.assign)
	b.WriteString(";")
	return b.String()
}

// MarshalJSON renders the selector as its script.
func (s *Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Script())
}
