// Package response implements the command buffer returned to the browser.
package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved command attributes.
const (
	AttrCommand = "cmd"
	AttrPlugin  = "plg"
)

// Attr is one command attribute. Attributes keep their insertion order.
type Attr struct {
	Key   string
	Value interface{}
}

// Command is one UI mutation emitted to the client.
type Command struct {
	attrs []Attr
	data  interface{}
}

// NewCommand creates a command from attributes and a payload. Attribute
// values are sanitized; the payload is kept as is.
func NewCommand(attrs []Attr, data interface{}) Command {
	c := Command{data: data}
	for _, a := range attrs {
		c.setAttr(a.Key, sanitizeAttr(a.Value))
	}
	return c
}

func (c *Command) setAttr(key string, value interface{}) {
	for i := range c.attrs {
		if c.attrs[i].Key == key {
			c.attrs[i].Value = value
			return
		}
	}
	c.attrs = append(c.attrs, Attr{Key: key, Value: value})
}

// Name returns the cmd attribute.
func (c Command) Name() string {
	v, _ := c.Attr(AttrCommand)
	s, _ := v.(string)
	return s
}

// Plugin returns the plg attribute, empty for core commands.
func (c Command) Plugin() string {
	v, _ := c.Attr(AttrPlugin)
	s, _ := v.(string)
	return s
}

// Attr returns the value of an attribute.
func (c Command) Attr(key string) (interface{}, bool) {
	for _, a := range c.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Attrs returns a copy of the ordered attributes.
func (c Command) Attrs() []Attr {
	out := make([]Attr, len(c.attrs))
	copy(out, c.attrs)
	return out
}

// Data returns the payload.
func (c Command) Data() interface{} { return c.data }

// MarshalJSON writes attributes in insertion order followed by data.
func (c Command) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, a := range c.attrs {
		if err := writeMember(&buf, a.Key, a.Value); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeMember(&buf, "data", c.data); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s - failed to encode %q: %w", logPrefix, key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// sanitizeAttr keeps integers and coerces any other scalar to a string
// trimmed of spaces and tabs.
func sanitizeAttr(v interface{}) interface{} {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x
	case nil:
		return ""
	case string:
		return strings.Trim(x, " \t")
	case fmt.Stringer:
		return strings.Trim(x.String(), " \t")
	default:
		return strings.Trim(fmt.Sprint(x), " \t")
	}
}

// trimData trims string payloads of spaces, tabs and newlines, recursing
// into slices and maps.
func trimData(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.Trim(x, " \t\n")
	case []string:
		out := make([]string, len(x))
		for i, s := range x {
			out[i] = strings.Trim(s, " \t\n")
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = trimData(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(x))
		for k, s := range x {
			out[k] = strings.Trim(s, " \t\n")
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = trimData(e)
		}
		return out
	case bool, float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return sanitizeAttr(x)
	default:
		return x
	}
}
