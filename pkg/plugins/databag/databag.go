// Package databag keeps client-side data bags in sync with the server.
// The client posts its bags with every request; callables read and update
// them, and the updated store is sent back in a single command.
package databag

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

const logPrefix = "databag:plugin"

// PluginName is the name of the response plugin.
const PluginName = "bags"

// Priority is the code generation priority of the plugin.
const Priority = 710

// Producer creates the data bag plugin of each response.
type Producer struct{}

// NewProducer creates a Producer.
func NewProducer() *Producer { return &Producer{} }

// Name returns the plugin name.
func (p *Producer) Name() string { return PluginName }

// NewResponsePlugin implements plugin.ResponseProducer. A derived response
// shares the store of its root, so one request has a single store.
func (p *Producer) NewResponsePlugin(r *response.Response) response.Plugin {
	if root := r.Root(); root != r {
		if shared, ok := root.Plugin(PluginName).(*Plugin); ok {
			return shared
		}
	}
	return &Plugin{bags: read(r.Request())}
}

func (p *Producer) Js() string          { return "" }
func (p *Producer) Css() string         { return "" }
func (p *Producer) ReadyScript() string { return "" }

// Script registers the client handler of bags.set, which stores each bag of
// the payload under its name.
func (p *Producer) Script() string {
	return `jaxon.register("bags.set", function(args) {
    for (const bag in args.data) {
        jaxon.bags[bag] = args.data[bag];
    }
    return true;
});`
}

// read decodes the jxnbags field, either a JSON string or a decoded value.
func read(rc *request.Context) map[string]map[string]interface{} {
	bags := make(map[string]map[string]interface{})
	if rc == nil {
		return bags
	}
	raw, ok := rc.Raw(request.FieldBags)
	if !ok {
		return bags
	}

	var decoded map[string]interface{}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return bags
		}
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			slog.Warn(fmt.Sprintf("%s - ignoring malformed %s: %v", logPrefix, request.FieldBags, err))
			return bags
		}
	case map[string]interface{}:
		decoded = v
	default:
		slog.Warn(fmt.Sprintf("%s - ignoring %s of type %T", logPrefix, request.FieldBags, raw))
		return bags
	}

	for name, content := range decoded {
		switch c := content.(type) {
		case map[string]interface{}:
			bags[name] = c
		case nil:
			bags[name] = make(map[string]interface{})
		default:
			slog.Warn(fmt.Sprintf("%s - bag %s is not an object, ignored", logPrefix, name))
		}
	}
	return bags
}

// Plugin is the data bag store of one response.
type Plugin struct {
	bags    map[string]map[string]interface{}
	touched bool
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return PluginName }

// From returns the data bag plugin of r, or nil when it is not registered.
func From(r *response.Response) *Plugin {
	p, _ := r.Plugin(PluginName).(*Plugin)
	return p
}

// Bag returns the bag called name. It is created on first write.
func (p *Plugin) Bag(name string) *Bag {
	return &Bag{store: p, name: name}
}

// Names returns the names of the bags posted or created.
func (p *Plugin) Names() []string {
	out := make([]string, 0, len(p.bags))
	for n := range p.bags {
		out = append(out, n)
	}
	return out
}

// WriteCommands emits one bags.set command carrying every bag, and only
// when a bag changed.
func (p *Plugin) WriteCommands(r *response.Response) {
	if !p.touched {
		return
	}
	r.AddPluginCommand(p, "bags.set", nil, p.bags)
}

// Bag is a named key/value store.
type Bag struct {
	store *Plugin
	name  string
}

// Get returns the value of key, or def when it is not set.
func (b *Bag) Get(key string, def interface{}) interface{} {
	if v, ok := b.store.bags[b.name][key]; ok {
		return v
	}
	return def
}

// Has reports whether key is set.
func (b *Bag) Has(key string) bool {
	_, ok := b.store.bags[b.name][key]
	return ok
}

// All returns a copy of the bag content.
func (b *Bag) All() map[string]interface{} {
	out := make(map[string]interface{}, len(b.store.bags[b.name]))
	for k, v := range b.store.bags[b.name] {
		out[k] = v
	}
	return out
}

// Set stores value under key.
func (b *Bag) Set(key string, value interface{}) *Bag {
	content, ok := b.store.bags[b.name]
	if !ok {
		content = make(map[string]interface{})
		b.store.bags[b.name] = content
	}
	content[key] = value
	b.store.touched = true
	return b
}

// Delete removes key.
func (b *Bag) Delete(key string) *Bag {
	if content, ok := b.store.bags[b.name]; ok {
		delete(content, key)
		b.store.touched = true
	}
	return b
}

// Clear empties the bag.
func (b *Bag) Clear() *Bag {
	b.store.bags[b.name] = make(map[string]interface{})
	b.store.touched = true
	return b
}
