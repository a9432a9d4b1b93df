package upload

import (
	"strconv"
	"strings"

	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/i18n"
	"github.com/morezero/jaxon/pkg/options"
)

// Rules constrain the files accepted for a field. Empty lists and zero
// sizes do not constrain.
type Rules struct {
	Dir        string
	Types      []string
	Extensions []string
	MaxSizeKB  int
	MinSizeKB  int
}

// RulesFor reads the rules of field: upload.files.<field>.* over
// upload.default.*.
func RulesFor(opts *options.Options, field string) Rules {
	pick := func(key string) string {
		fieldKey := "upload.files." + field + "." + key
		if opts.Has(fieldKey) {
			return fieldKey
		}
		return "upload.default." + key
	}
	return Rules{
		Dir:        opts.String(pick("dir"), "uploads"),
		Types:      opts.Strings(pick("types")),
		Extensions: opts.Strings(pick("extensions")),
		MaxSizeKB:  opts.Int(pick("max-size"), 0),
		MinSizeKB:  opts.Int(pick("min-size"), 0),
	}
}

// Check validates f against the rules.
func (r Rules) Check(field string, f *File, tr i18n.Translator) error {
	fail := func(key string, params map[string]string) error {
		params["name"] = f.Filename
		return &errdefs.UploadError{Field: field, Message: tr.Trans(key, params)}
	}

	if len(r.Types) > 0 && !matchType(r.Types, f.Type) {
		return fail(i18n.ErrUploadType, map[string]string{"type": f.Type})
	}
	if len(r.Extensions) > 0 && !matchFold(r.Extensions, f.Extension) {
		return fail(i18n.ErrUploadExtension, map[string]string{"extension": f.Extension})
	}
	if r.MaxSizeKB > 0 && f.Size > int64(r.MaxSizeKB)*1024 {
		return fail(i18n.ErrUploadMaxSize, map[string]string{"size": strconv.Itoa(r.MaxSizeKB)})
	}
	if r.MinSizeKB > 0 && f.Size < int64(r.MinSizeKB)*1024 {
		return fail(i18n.ErrUploadMinSize, map[string]string{"size": strconv.Itoa(r.MinSizeKB)})
	}
	return nil
}

// matchType accepts exact types and "major/*" patterns.
func matchType(allowed []string, mime string) bool {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == mime {
			return true
		}
		if strings.HasSuffix(a, "/*") && strings.HasPrefix(mime, strings.TrimSuffix(a, "*")) {
			return true
		}
	}
	return false
}

func matchFold(allowed []string, v string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), v) {
			return true
		}
	}
	return false
}
