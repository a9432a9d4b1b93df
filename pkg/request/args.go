package request

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/morezero/jaxon/pkg/errdefs"
)

// Args is the positional argument list of a call.
type Args []interface{}

// Args decodes the call arguments. They are read from the jxnargs field as a
// JSON array, or from repeated jxnargs[] fields where each value is JSON or a
// plain string.
func (c *Context) Args() (Args, error) {
	if v, ok := c.values[FieldArgs]; ok {
		switch x := v.(type) {
		case []interface{}:
			return Args(x), nil
		case string:
			return parseArgs(x)
		default:
			return nil, errdefs.NewRequestError(errdefs.CodeInvalidArgument,
				fmt.Sprintf("unsupported %s value of type %T", FieldArgs, v), nil)
		}
	}

	if vs := c.Values(FieldArgs + "[]"); len(vs) > 0 {
		args := make(Args, 0, len(vs))
		for _, s := range vs {
			var v interface{}
			if err := json.Unmarshal([]byte(s), &v); err != nil {
				v = s
			}
			args = append(args, v)
		}
		return args, nil
	}

	s, ok := c.Value(FieldArgs)
	if !ok {
		return Args{}, nil
	}
	return parseArgs(s)
}

func parseArgs(s string) (Args, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Args{}, nil
	}
	var args []interface{}
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil, errdefs.NewRequestError(errdefs.CodeInvalidArgument,
			fmt.Sprintf("%s must be a JSON array", FieldArgs), err.Error())
	}
	return Args(args), nil
}

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// Get returns the i-th argument or nil.
func (a Args) Get(i int) interface{} {
	if i < 0 || i >= len(a) {
		return nil
	}
	return a[i]
}

// String returns the i-th argument as a string.
func (a Args) String(i int) string {
	switch v := a.Get(i).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the i-th argument as an int.
func (a Args) Int(i int) (int, error) {
	switch v := a.Get(i).(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, argError(i, "an integer", v)
		}
		return n, nil
	default:
		return 0, argError(i, "an integer", v)
	}
}

// Float returns the i-th argument as a float64.
func (a Args) Float(i int) (float64, error) {
	switch v := a.Get(i).(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, argError(i, "a number", v)
		}
		return f, nil
	default:
		return 0, argError(i, "a number", v)
	}
}

// Bool returns the i-th argument as a bool.
func (a Args) Bool(i int) (bool, error) {
	switch v := a.Get(i).(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, argError(i, "a boolean", v)
		}
		return b, nil
	case float64:
		return v != 0, nil
	default:
		return false, argError(i, "a boolean", v)
	}
}

// Decode re-encodes the i-th argument into out.
func (a Args) Decode(i int, out interface{}) error {
	data, err := json.Marshal(a.Get(i))
	if err != nil {
		return argError(i, "encodable", a.Get(i))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errdefs.NewRequestError(errdefs.CodeInvalidArgument,
			fmt.Sprintf("argument %d does not match the expected type", i), err.Error())
	}
	return nil
}

func argError(i int, want string, got interface{}) error {
	return errdefs.NewRequestError(errdefs.CodeInvalidArgument,
		fmt.Sprintf("argument %d must be %s, got %v", i, want, got), nil)
}
