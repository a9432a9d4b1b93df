package response

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/request"
)

const logPrefix = "response:response"

// ContentType is the content type of a serialized response.
const ContentType = "application/json; charset=utf-8"

// Plugin is a per-response plugin instance.
type Plugin interface {
	Name() string
}

// Finalizer is implemented by plugins that emit commands once the callable
// has returned.
type Finalizer interface {
	WriteCommands(r *Response)
}

// PluginResolver creates per-response plugin instances by name.
type PluginResolver interface {
	ResolveResponsePlugin(name string, r *Response) (Plugin, bool)
}

// Params holds the collaborators of a Response. All fields are optional.
type Params struct {
	Request *request.Context
	Plugins PluginResolver
}

// Response is an ordered buffer of commands plus an optional return value.
type Response struct {
	commands    []Command
	returnValue interface{}
	hasReturn   bool

	request   *request.Context
	resolver  PluginResolver
	instances map[string]Plugin
	order     []string
	finalized bool

	// root is the response r was derived from, nil for a root response.
	root *Response
}

// New creates an empty Response.
func New(p Params) *Response {
	return &Response{
		commands:  []Command{},
		request:   p.Request,
		resolver:  p.Plugins,
		instances: make(map[string]Plugin),
	}
}

// Derive creates an empty response sharing the request and plugin resolver
// of r. Its commands are meant to be merged back into r; plugin state that
// spans the request stays with the root response.
func (r *Response) Derive() *Response {
	d := New(Params{Request: r.request, Plugins: r.resolver})
	d.root = r.Root()
	return d
}

// Root returns the response r was derived from, or r itself.
func (r *Response) Root() *Response {
	if r.root != nil {
		return r.root
	}
	return r
}

// Request returns the request this response answers, possibly nil.
func (r *Response) Request() *request.Context { return r.request }

// AddCommand appends a command built from attrs and data without trimming
// the payload.
func (r *Response) AddCommand(attrs []Attr, data interface{}) *Response {
	r.commands = append(r.commands, NewCommand(attrs, data))
	return r
}

// AddNamedCommand is the canonical path for core commands: it trims the
// payload, drops empty attribute values when removeEmpty is set, then
// stamps the command name.
func (r *Response) AddNamedCommand(name string, attrs []Attr, data interface{}, removeEmpty bool) *Response {
	kept := make([]Attr, 0, len(attrs)+1)
	for _, a := range attrs {
		if removeEmpty && isEmptyAttr(a.Value) {
			continue
		}
		kept = append(kept, a)
	}
	kept = append(kept, Attr{Key: AttrCommand, Value: name})
	return r.AddCommand(kept, trimData(data))
}

// AddPluginCommand appends a command owned by a response plugin.
func (r *Response) AddPluginCommand(p Plugin, name string, attrs []Attr, data interface{}) *Response {
	all := make([]Attr, 0, len(attrs)+2)
	all = append(all, Attr{Key: AttrCommand, Value: name})
	all = append(all, attrs...)
	all = append(all, Attr{Key: AttrPlugin, Value: p.Name()})
	return r.AddCommand(all, data)
}

// isEmptyAttr reports whether v is stored as an empty string.
func isEmptyAttr(v interface{}) bool {
	s, ok := sanitizeAttr(v).(string)
	return ok && s == ""
}

// AppendResponse merges commands from source, which must be a *Response or a
// []Command. A *Response source also hands over its return value when set.
func (r *Response) AppendResponse(source interface{}, prepend bool) error {
	var cmds []Command
	switch src := source.(type) {
	case *Response:
		if src == nil {
			return invalidResponseData(source)
		}
		cmds = src.Commands()
		if src.hasReturn {
			r.SetReturnValue(src.returnValue)
		}
	case []Command:
		cmds = src
	default:
		return invalidResponseData(source)
	}

	if prepend {
		r.commands = append(append(make([]Command, 0, len(cmds)+len(r.commands)), cmds...), r.commands...)
	} else {
		r.commands = append(r.commands, cmds...)
	}
	return nil
}

func invalidResponseData(source interface{}) error {
	slog.Warn(fmt.Sprintf("%s - rejected response data of type %T", logPrefix, source))
	return errdefs.NewRequestError(errdefs.CodeInvalidResponseData,
		fmt.Sprintf("invalid response data of type %T", source), nil)
}

// Merge appends or prepends the commands of other.
func (r *Response) Merge(other *Response, prepend bool) error {
	return r.AppendResponse(other, prepend)
}

// SetReturnValue sets the value returned to the client-side caller. Any
// non-nil value counts as set, including zero values.
func (r *Response) SetReturnValue(v interface{}) *Response {
	if v == nil {
		r.returnValue, r.hasReturn = nil, false
		return r
	}
	r.returnValue, r.hasReturn = v, true
	return r
}

// ReturnValue returns the return value and whether one is set.
func (r *Response) ReturnValue() (interface{}, bool) {
	return r.returnValue, r.hasReturn
}

// Clear removes all commands and unsets the return value.
func (r *Response) Clear() *Response {
	r.commands = []Command{}
	r.returnValue, r.hasReturn = nil, false
	return r
}

// Commands returns a copy of the buffered commands.
func (r *Response) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of buffered commands.
func (r *Response) Len() int { return len(r.commands) }

// Plugin returns the named response plugin instance for this response,
// creating it on first use. It returns nil when no such plugin exists.
func (r *Response) Plugin(name string) Plugin {
	if p, ok := r.instances[name]; ok {
		return p
	}
	if r.resolver == nil {
		return nil
	}
	p, ok := r.resolver.ResolveResponsePlugin(name, r)
	if !ok || p == nil {
		return nil
	}
	r.instances[name] = p
	r.order = append(r.order, name)
	return p
}

// Finalize lets each instantiated plugin write its pending commands. It
// runs once; later calls do nothing. A derived response is never finalized:
// its root writes the commands once the derived commands are merged.
func (r *Response) Finalize() {
	if r.finalized || r.root != nil {
		return
	}
	r.finalized = true
	for _, name := range r.order {
		if f, ok := r.instances[name].(Finalizer); ok {
			f.WriteCommands(r)
		}
	}
}

// MarshalJSON serializes the buffer as {"jxnobj":[...],"jxnrv":...}.
func (r *Response) MarshalJSON() ([]byte, error) {
	cmds := r.commands
	if cmds == nil {
		cmds = []Command{}
	}
	out := map[string]interface{}{"jxnobj": cmds}
	if r.hasReturn {
		out["jxnrv"] = r.returnValue
	}
	return json.Marshal(out)
}

// Output returns the serialized response body.
func (r *Response) Output() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to serialize response: %w", logPrefix, err)
	}
	return data, nil
}
