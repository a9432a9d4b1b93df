// Package upload stores files sent with requests and hands them to the
// callable that receives them.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/morezero/jaxon/pkg/request"
)

const fileLogPrefix = "upload:file"

// File is an uploaded file after normalization.
type File struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}

// NewFile normalizes a received file part. name is the sanitized base name;
// the storage path is dir/name.extension.
func NewFile(part *request.File, dir, name string) *File {
	ext := cleanExtension(filepath.Ext(baseFile(part.Filename)))
	return &File{
		Type:      part.ContentType,
		Name:      name,
		Filename:  part.Filename,
		Path:      StoragePath(dir, name, ext),
		Size:      part.Size,
		Extension: ext,
	}
}

// StoragePath builds dir/name.extension. Files without an extension are
// stored as dir/name.
func StoragePath(dir, name, ext string) string {
	if ext == "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join(dir, name+"."+ext)
}

// TempRecord returns the attributes persisted for the file.
func (f *File) TempRecord() map[string]string {
	return map[string]string{
		"type":      f.Type,
		"name":      f.Name,
		"filename":  f.Filename,
		"path":      f.Path,
		"size":      strconv.FormatInt(f.Size, 10),
		"extension": f.Extension,
	}
}

// FromTempRecord rebuilds a file from its persisted attributes.
func FromTempRecord(rec map[string]string) (*File, error) {
	size, err := strconv.ParseInt(rec["size"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid size %q: %w", fileLogPrefix, rec["size"], err)
	}
	if rec["path"] == "" || rec["name"] == "" {
		return nil, fmt.Errorf("%s - incomplete record %v", fileLogPrefix, rec)
	}
	return &File{
		Type:      rec["type"],
		Name:      rec["name"],
		Filename:  rec["filename"],
		Path:      rec["path"],
		Size:      size,
		Extension: rec["extension"],
	}, nil
}

// Open opens the stored file.
func (f *File) Open() (*os.File, error) {
	return os.Open(f.Path)
}

// store copies the content of part to the storage path.
func (f *File) store(part *request.File) (err error) {
	src, err := part.Open()
	if err != nil {
		return fmt.Errorf("%s - open %s: %w", fileLogPrefix, part.Filename, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(f.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%s - create %s: %w", fileLogPrefix, f.Path, err)
	}
	defer func() {
		if cerr := dst.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	n, err := io.Copy(dst, src)
	if err != nil {
		return fmt.Errorf("%s - copy %s: %w", fileLogPrefix, f.Path, err)
	}
	f.Size = n
	return nil
}

// Flatten encodes files as a flat map keyed "field.index.attribute".
func Flatten(files map[string][]*File) map[string]string {
	out := make(map[string]string)
	for field, list := range files {
		for i, f := range list {
			for k, v := range f.TempRecord() {
				out[field+"."+strconv.Itoa(i)+"."+k] = v
			}
		}
	}
	return out
}

// Unflatten decodes the output of Flatten. Field names may contain dots.
func Unflatten(entries map[string]string) (map[string][]*File, error) {
	grouped := make(map[string]map[int]map[string]string)
	for key, v := range entries {
		attrAt := strings.LastIndex(key, ".")
		if attrAt <= 0 {
			return nil, fmt.Errorf("%s - malformed key %q", fileLogPrefix, key)
		}
		idxAt := strings.LastIndex(key[:attrAt], ".")
		if idxAt <= 0 {
			return nil, fmt.Errorf("%s - malformed key %q", fileLogPrefix, key)
		}
		field, attr := key[:idxAt], key[attrAt+1:]
		idx, err := strconv.Atoi(key[idxAt+1 : attrAt])
		if err != nil {
			return nil, fmt.Errorf("%s - malformed index in %q", fileLogPrefix, key)
		}
		if grouped[field] == nil {
			grouped[field] = make(map[int]map[string]string)
		}
		if grouped[field][idx] == nil {
			grouped[field][idx] = make(map[string]string)
		}
		grouped[field][idx][attr] = v
	}

	out := make(map[string][]*File, len(grouped))
	for field, byIdx := range grouped {
		idxs := make([]int, 0, len(byIdx))
		for i := range byIdx {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		for _, i := range idxs {
			f, err := FromTempRecord(byIdx[i])
			if err != nil {
				return nil, err
			}
			out[field] = append(out[field], f)
		}
	}
	return out, nil
}

const filesAttribute = "jaxon.upload.files"

// FilesFrom returns the uploaded files attached to a request, grouped by field.
func FilesFrom(rc *request.Context) map[string][]*File {
	if rc == nil {
		return nil
	}
	v, _ := rc.Attribute(filesAttribute)
	files, _ := v.(map[string][]*File)
	return files
}

func attachFiles(rc *request.Context, files map[string][]*File) {
	rc.SetAttribute(filesAttribute, files)
}
