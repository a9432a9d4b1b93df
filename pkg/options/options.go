// Package options provides the library options tree and its loaders.
package options

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Options is a tree of nested maps addressed with dotted paths such as
// "core.request.uri".
type Options struct {
	mu   sync.RWMutex
	tree map[string]interface{}
}

// New wraps a tree. A nil tree yields empty options.
func New(tree map[string]interface{}) *Options {
	if tree == nil {
		tree = make(map[string]interface{})
	}
	return &Options{tree: normalize(tree).(map[string]interface{})}
}

// Option returns the value at path, or def when the path is absent.
func (o *Options) Option(path string, def interface{}) interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if v, ok := lookup(o.tree, path); ok {
		return v
	}
	return def
}

// Has reports whether path is set.
func (o *Options) Has(path string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := lookup(o.tree, path)
	return ok
}

// Set stores v at path, creating intermediate maps.
func (o *Options) Set(path string, v interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := strings.Split(path, ".")
	node := o.tree
	for _, k := range keys[:len(keys)-1] {
		next, ok := node[k].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			node[k] = next
		}
		node = next
	}
	node[keys[len(keys)-1]] = normalize(v)
}

// String returns the value at path as a string.
func (o *Options) String(path, def string) string {
	switch v := o.Option(path, nil).(type) {
	case nil:
		return def
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Bool returns the value at path as a bool.
func (o *Options) Bool(path string, def bool) bool {
	switch v := o.Option(path, nil).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	return def
}

// Int returns the value at path as an int.
func (o *Options) Int(path string, def int) int {
	switch v := o.Option(path, nil).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Strings returns the value at path as a string list. A string value is
// split on commas.
func (o *Options) Strings(path string) []string {
	switch v := o.Option(path, nil).(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Map returns the subtree at path, or nil.
func (o *Options) Map(path string) map[string]interface{} {
	m, _ := o.Option(path, nil).(map[string]interface{})
	return m
}

// Tree returns a deep copy of the whole tree.
func (o *Options) Tree() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return Merge(nil, o.tree)
}

func lookup(tree map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return tree, true
	}
	var node interface{} = tree
	for _, k := range strings.Split(path, ".") {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if node, ok = m[k]; !ok {
			return nil, false
		}
	}
	return node, true
}

// Merge deep-merges override into a copy of base. Maps merge key by key;
// any other value in override replaces the base value.
func Merge(base, override map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(override))
	for k, v := range base {
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = Merge(nil, m)
		} else {
			out[k] = v
		}
	}
	for k, v := range override {
		om, isMap := v.(map[string]interface{})
		bm, baseIsMap := out[k].(map[string]interface{})
		switch {
		case isMap && baseIsMap:
			out[k] = Merge(bm, om)
		case isMap:
			out[k] = Merge(nil, om)
		default:
			out[k] = v
		}
	}
	return out
}

// normalize converts decoder-specific map types into map[string]interface{}.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case int:
		return int64(x)
	default:
		return v
	}
}
