package class

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/errdefs"
)

const dirLogPrefix = "class:directory"

// DirectoryName is the name and callable kind of the directory registrar.
const DirectoryName = string(callable.KindDirectory)

// DirectoryPriority orders the registrar after the class plugin.
const DirectoryPriority = 103

// DefaultExtension is the extension of scanned class files.
const DefaultExtension = ".go"

// Directory registers the classes found in a directory. Each file names a
// class, each sub-directory adds a namespace segment, and the constructor of
// the class is looked up in the catalog passed as the definition target.
type Directory struct {
	classes *Plugin
}

// NewDirectory creates a registrar adding classes to classes.
func NewDirectory(classes *Plugin) *Directory {
	return &Directory{classes: classes}
}

// Name returns the registrar name.
func (d *Directory) Name() string { return DirectoryName }

func asCatalog(target interface{}) (callable.Catalog, bool) {
	switch c := target.(type) {
	case callable.Catalog:
		return c, true
	case map[string]func() interface{}:
		return c, true
	}
	return nil, false
}

// CheckOptions validates a directory definition. def.Name is the path.
func (d *Directory) CheckOptions(def callable.Definition) (callable.Options, error) {
	if _, ok := asCatalog(def.Target); !ok {
		return nil, errdefs.NewConfigurationError(def.Name, "directory target of type %T is not a callable.Catalog", def.Target)
	}
	info, err := os.Stat(def.Name)
	if err != nil {
		return nil, &errdefs.ConfigurationError{Subject: def.Name, Message: "directory not readable", Err: err}
	}
	if !info.IsDir() {
		return nil, errdefs.NewConfigurationError(def.Name, "not a directory")
	}
	if err := callable.CheckOptions(def.Name, def.Options); err != nil {
		return nil, err
	}

	opts := make(callable.Options, len(def.Options)+1)
	for k, v := range def.Options {
		opts[k] = v
	}
	ext, _ := opts[callable.OptExtension].(string)
	if ext == "" {
		ext = DefaultExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	opts[callable.OptExtension] = ext
	return opts, nil
}

// Register scans the directory and registers one class per file found in
// the catalog.
func (d *Directory) Register(def callable.Definition, opts callable.Options) error {
	catalog, _ := asCatalog(def.Target)
	ext, _ := opts[callable.OptExtension].(string)
	base, err := callable.Segments(opts[callable.OptNamespace])
	if err != nil {
		return &errdefs.ConfigurationError{Subject: def.Name, Message: "invalid namespace option", Err: err}
	}

	found := 0
	err = filepath.WalkDir(def.Name, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || filepath.Ext(path) != ext || strings.HasSuffix(path, "_test"+ext) {
			return nil
		}

		rel, err := filepath.Rel(def.Name, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(strings.TrimSuffix(rel, ext)), "/")
		for i, part := range parts {
			parts[i] = ClassName(part)
		}
		classpath, class := parts[:len(parts)-1], parts[len(parts)-1]

		factory, ok := catalog.Lookup(classpath, class)
		if !ok {
			slog.Debug(fmt.Sprintf("%s - no constructor for %s, skipped", dirLogPrefix, rel))
			return nil
		}

		classOpts := make(callable.Options, len(opts))
		for k, v := range opts {
			classOpts[k] = v
		}
		delete(classOpts, callable.OptExtension)
		classOpts[callable.OptNamespace] = append(append([]string{}, base...), classpath...)

		e, err := callable.NewClassFactoryEntry(class, factory, classOpts)
		if err != nil {
			return err
		}
		if err := d.classes.add(e); err != nil {
			return err
		}
		found++
		return nil
	})
	if err != nil {
		if errdefs.IsConfiguration(err) {
			return err
		}
		return &errdefs.ConfigurationError{Subject: def.Name, Message: "directory scan failed", Err: err}
	}

	slog.Debug(fmt.Sprintf("%s - registered %d class(es) from %s", dirLogPrefix, found, def.Name))
	return nil
}

// ClassName turns a file or directory name into a class name:
// "user_admin" becomes "UserAdmin".
func ClassName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' || r == '-' || r == '.' || r == ' ' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
