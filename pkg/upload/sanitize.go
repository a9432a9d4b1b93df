package upload

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sanitizer returns the storage base name of an uploaded file. It receives
// the original name without extension and the form field.
type Sanitizer func(name, field string) string

// Slugify lowercases name, strips diacritics and replaces every run of
// characters outside [a-z0-9_] with a dash.
func Slugify(name, _ string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// SafeBaseName reduces a sanitizer result to a single path element without
// traversal segments. Unusable results are replaced with a random name.
func SafeBaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	name = strings.ReplaceAll(name, "..", "")
	name = strings.Trim(name, ". ")
	if name == "" || name == "/" {
		return uuid.NewString()
	}
	return name
}

// baseFile returns the last element of a client supplied file name.
func baseFile(filename string) string {
	return filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// baseName returns the file name without directory or extension.
func baseName(filename string) string {
	filename = baseFile(filename)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// cleanExtension keeps the letters and digits of an extension.
func cleanExtension(ext string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, ext)
}
