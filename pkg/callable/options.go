package callable

import (
	"fmt"
	"strings"

	"github.com/morezero/jaxon/pkg/errdefs"
)

// Segments parses a namespace value. Strings may use ".", "\" or "/" as
// separators.
func Segments(v interface{}) ([]string, error) {
	var raw []string
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = strings.FieldsFunc(x, func(r rune) bool { return r == '.' || r == '\\' || r == '/' })
	case []string:
		raw = x
	case []interface{}:
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("namespace segment %v is not a string", e)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("namespace of type %T is not supported", v)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !isIdentifier(s) {
			return nil, fmt.Errorf("invalid namespace segment %q", s)
		}
		out = append(out, s)
	}
	return out, nil
}

// StringList parses a string or list of strings.
func StringList(v interface{}) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		var out []string
		for _, s := range strings.Split(x, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case []string:
		return x, nil
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("list item %v is not a string", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("list of type %T is not supported", v)
	}
}

// MethodOptions parses the per-method option map.
func MethodOptions(v interface{}) (map[string]map[string]interface{}, error) {
	out := make(map[string]map[string]interface{})
	if v == nil {
		return out, nil
	}

	var raw map[string]interface{}
	switch x := v.(type) {
	case map[string]interface{}:
		raw = x
	case Options:
		raw = x
	case map[string]map[string]interface{}:
		for k, m := range x {
			out[k] = copyMap(m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("method options of type %T are not supported", v)
	}

	for method, opts := range raw {
		switch m := opts.(type) {
		case map[string]interface{}:
			out[method] = copyMap(m)
		case Options:
			out[method] = copyMap(m)
		default:
			return nil, fmt.Errorf("options of method %q must be a map, got %T", method, opts)
		}
	}
	return out, nil
}

// MergeOptions overlays specific over wildcard. Keys in specific win.
func MergeOptions(wildcard, specific map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(wildcard)+len(specific))
	for k, v := range wildcard {
		out[k] = v
	}
	for k, v := range specific {
		out[k] = v
	}
	return out
}

// CheckOptions validates the shape of the reserved registration options.
func CheckOptions(subject string, opts Options) error {
	if _, err := Segments(opts[OptNamespace]); err != nil {
		return &errdefs.ConfigurationError{Subject: subject, Message: "invalid namespace option", Err: err}
	}
	if _, err := StringList(opts[OptExcluded]); err != nil {
		return &errdefs.ConfigurationError{Subject: subject, Message: "invalid excluded option", Err: err}
	}
	if _, err := MethodOptions(opts[OptMethods]); err != nil {
		return &errdefs.ConfigurationError{Subject: subject, Message: "invalid methods option", Err: err}
	}
	if v, ok := opts[OptExtension]; ok {
		if s, isStr := v.(string); !isStr || s == "" {
			return errdefs.NewConfigurationError(subject, "extension option must be a non-empty string")
		}
	}
	return nil
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

func joinName(parts ...string) string {
	return strings.Join(parts, ".")
}
