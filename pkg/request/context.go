// Package request holds the transport data of an inbound AJAX request.
package request

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

const logPrefix = "request:context"

// Inbound field names.
const (
	FieldFunction = "jxnfun"
	FieldClass    = "jxncls"
	FieldMethod   = "jxnmthd"
	FieldArgs     = "jxnargs"
	FieldBags     = "jxnbags"
	FieldUpload   = "jxnupl"
)

// DefaultMaxMemory is the multipart memory limit used by FromHTTP.
const DefaultMaxMemory int64 = 32 << 20

// File is a file part received with the request.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

// NewFile creates a File whose content is produced by open.
func NewFile(field, filename, contentType string, size int64, open func() (io.ReadCloser, error)) *File {
	return &File{Field: field, Filename: filename, ContentType: contentType, Size: size, open: open}
}

// Open returns a reader over the file content.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("%s - file %q has no content", logPrefix, f.Filename)
	}
	return f.open()
}

// Params holds the fields used to build a Context.
type Params struct {
	Method string
	URI    string
	Query  url.Values
	Form   url.Values
	Files  map[string][]*File
	// Values carries already-decoded structures, keyed by field name.
	Values map[string]interface{}
}

// Context is the request data visible to plugins and callables.
type Context struct {
	method     string
	uri        string
	query      url.Values
	form       url.Values
	files      map[string][]*File
	values     map[string]interface{}
	attributes map[string]interface{}
}

// New creates a Context from explicit transport values.
func New(p Params) *Context {
	c := &Context{
		method:     strings.ToUpper(p.Method),
		uri:        p.URI,
		query:      p.Query,
		form:       p.Form,
		files:      p.Files,
		values:     p.Values,
		attributes: make(map[string]interface{}),
	}
	if c.method == "" {
		c.method = http.MethodPost
	}
	if c.query == nil {
		c.query = url.Values{}
	}
	if c.form == nil {
		c.form = url.Values{}
	}
	if c.files == nil {
		c.files = make(map[string][]*File)
	}
	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	return c
}

// FromHTTP builds a Context from an HTTP request, parsing url-encoded and
// multipart bodies.
func FromHTTP(r *http.Request, maxMemory int64) (*Context, error) {
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}

	files := make(map[string][]*File)
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, fmt.Errorf("%s - failed to parse multipart form: %w", logPrefix, err)
		}
		if r.MultipartForm != nil {
			for field, headers := range r.MultipartForm.File {
				for _, fh := range headers {
					files[field] = append(files[field], fileFromHeader(field, fh))
				}
			}
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%s - failed to parse form: %w", logPrefix, err)
	}

	return New(Params{
		Method: r.Method,
		URI:    r.URL.RequestURI(),
		Query:  r.URL.Query(),
		Form:   r.PostForm,
		Files:  files,
	}), nil
}

func fileFromHeader(field string, fh *multipart.FileHeader) *File {
	return NewFile(field, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, func() (io.ReadCloser, error) {
		return fh.Open()
	})
}

// Method returns the HTTP method.
func (c *Context) Method() string { return c.method }

// URI returns the request URI.
func (c *Context) URI() string { return c.uri }

// Value returns a string field, looking in the body before the query string.
func (c *Context) Value(name string) (string, bool) {
	if vs, ok := c.form[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	if vs, ok := c.query[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	if v, ok := c.values[name].(string); ok {
		return v, true
	}
	return "", false
}

// Values returns every string value of a field.
func (c *Context) Values(name string) []string {
	if vs := c.form[name]; len(vs) > 0 {
		return vs
	}
	return c.query[name]
}

// Raw returns the decoded structure of a field when one was supplied,
// falling back to its string value.
func (c *Context) Raw(name string) (interface{}, bool) {
	if v, ok := c.values[name]; ok {
		return v, true
	}
	if s, ok := c.Value(name); ok {
		return s, true
	}
	return nil, false
}

// Files returns the uploaded file parts grouped by field.
func (c *Context) Files() map[string][]*File { return c.files }

// HasFiles reports whether the request carries at least one file.
func (c *Context) HasFiles() bool {
	for _, fs := range c.files {
		if len(fs) > 0 {
			return true
		}
	}
	return false
}

// Target is the callable addressed by a call request.
type Target struct {
	Function string
	Class    string
	Method   string
}

// String returns the qualified callable name.
func (t Target) String() string {
	if t.Function != "" {
		return t.Function
	}
	if t.Class == "" {
		return ""
	}
	return t.Class + "." + t.Method
}

// Target returns the addressed callable.
func (c *Context) Target() Target {
	fn, _ := c.Value(FieldFunction)
	cls, _ := c.Value(FieldClass)
	mth, _ := c.Value(FieldMethod)
	return Target{Function: strings.TrimSpace(fn), Class: strings.TrimSpace(cls), Method: strings.TrimSpace(mth)}
}

// IsCall reports whether the request addresses a callable.
func (c *Context) IsCall() bool {
	t := c.Target()
	return t.Function != "" || t.Class != ""
}

// SetAttribute stores a value produced while processing the request.
func (c *Context) SetAttribute(key string, v interface{}) {
	c.attributes[key] = v
}

// Attribute returns a value stored with SetAttribute.
func (c *Context) Attribute(key string) (interface{}, bool) {
	v, ok := c.attributes[key]
	return v, ok
}
