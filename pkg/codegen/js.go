package codegen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Raw is javascript emitted verbatim, e.g. a callback reference.
type Raw string

// Field is one key of an ordered object literal.
type Field struct {
	Key   string
	Value interface{}
}

// Literal renders v as a javascript literal. Raw values are emitted as is,
// maps as object literals with sorted keys and everything else as JSON.
func Literal(v interface{}) string {
	switch x := v.(type) {
	case Raw:
		return string(x)
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, Field{Key: k, Value: x[k]})
		}
		return Object(fields...)
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = Literal(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// Object renders an object literal keeping the order of fields.
func Object(fields ...Field) string {
	if len(fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = key(f.Key) + ": " + Literal(f.Value)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func key(k string) string {
	for i, r := range k {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return Literal(k)
		}
	}
	if k == "" {
		return `""`
	}
	return k
}

// CallStub renders the assignment of a function that forwards its arguments
// to jaxon.request. Call options are rendered after the arguments.
func CallStub(lhs string, target []Field, opts map[string]interface{}) string {
	call := []Field{{Key: "parameters", Value: Raw("arguments")}}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "parameters" {
			continue
		}
		call = append(call, Field{Key: k, Value: opts[k]})
	}
	return fmt.Sprintf("%s = function() { return jaxon.request(%s, %s); };", lhs, Object(target...), Object(call...))
}
