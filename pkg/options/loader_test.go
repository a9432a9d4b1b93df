package options

import (
	"os"
	"path/filepath"
	"testing"
)

const loaderTestPrefix = "options:loader_test"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("%s - write %s: %v", loaderTestPrefix, name, err)
	}
	return p
}

func TestDecode_Formats(t *testing.T) {
	tests := []struct {
		ext  string
		data string
	}{
		{".json", `{"core":{"request":{"uri":"/ajax"},"upload":{"enabled":false}}}`},
		{".yaml", "core:\n  request:\n    uri: /ajax\n  upload:\n    enabled: false\n"},
		{".yml", "core:\n  request:\n    uri: /ajax\n  upload:\n    enabled: false\n"},
		{".toml", "[core.request]\nuri = \"/ajax\"\n[core.upload]\nenabled = false\n"},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			tree, err := Decode(tt.ext, []byte(tt.data))
			if err != nil {
				t.Fatalf("%s - Decode() error: %v", loaderTestPrefix, err)
			}
			o := New(tree)
			if got := o.String("core.request.uri", ""); got != "/ajax" {
				t.Errorf("%s - uri = %q", loaderTestPrefix, got)
			}
			if o.Bool("core.upload.enabled", true) {
				t.Errorf("%s - upload.enabled should be false", loaderTestPrefix)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	if _, err := Decode(".ini", []byte("a=b")); err == nil {
		t.Errorf("%s - expected unsupported format error", loaderTestPrefix)
	}
	if _, err := Decode(".json", []byte("{")); err == nil {
		t.Errorf("%s - expected json error", loaderTestPrefix)
	}
}

func TestLoad_FirstParsableFileMergedOverDefaults(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.json", "{not json")
	good := writeFile(t, dir, "good.yaml", "core:\n  prefix:\n    function: app_\n")

	o, err := Load(filepath.Join(dir, "missing.json"), broken, good)
	if err != nil {
		t.Fatalf("%s - Load() error: %v", loaderTestPrefix, err)
	}
	if got := o.String("core.prefix.function", ""); got != "app_" {
		t.Errorf("%s - prefix = %q, want app_", loaderTestPrefix, got)
	}
	if got := o.String("core.request.uri", ""); got != "/jaxon" {
		t.Errorf("%s - default uri lost in merge: %q", loaderTestPrefix, got)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "env.toml", "[core]\nlanguage = \"fr\"\n")
	t.Setenv(EnvFile, p)

	o, err := Load()
	if err != nil {
		t.Fatalf("%s - Load() error: %v", loaderTestPrefix, err)
	}
	if got := o.String("core.language", ""); got != "fr" {
		t.Errorf("%s - language = %q, want fr", loaderTestPrefix, got)
	}
}

func TestLoad_FallsBackToDefaults(t *testing.T) {
	t.Setenv(EnvFile, "")
	o, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("%s - Load() error: %v", loaderTestPrefix, err)
	}
	if got := o.String("core.language", ""); got != "en" {
		t.Errorf("%s - language = %q, want en", loaderTestPrefix, got)
	}
}
