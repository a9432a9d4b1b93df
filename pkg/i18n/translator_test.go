package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"", language.English},
		{"fr", language.French},
		{"fr-CA", language.French},
		{"de, fr;q=0.8", language.French},
		{"ja", language.English},
		{"%%%", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Match(tt.in); got != tt.want {
				t.Errorf("i18n:translator_test - Match(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTrans(t *testing.T) {
	tr := NewTranslator("fr")
	got := tr.Trans(ErrUploadMaxSize, map[string]string{"name": "a.png", "size": "10"})
	if got != "Le fichier a.png dépasse 10 Ko." {
		t.Errorf("i18n:translator_test - fr Trans() = %q", got)
	}

	tr.SetLanguage("en")
	got = tr.Trans(ErrCallableNotFound, map[string]string{"name": "hello"})
	if got != "No callable named hello is registered." {
		t.Errorf("i18n:translator_test - en Trans() = %q", got)
	}

	if got := tr.Trans("no.such.key", nil); got != "no.such.key" {
		t.Errorf("i18n:translator_test - unknown key = %q", got)
	}
}

func TestTrans_FallbackToEnglish(t *testing.T) {
	tr := NewTranslator("fr")
	tr.AddMessages(language.English, map[string]string{"custom.only.en": "English only"})
	if got := tr.Trans("custom.only.en", nil); got != "English only" {
		t.Errorf("i18n:translator_test - fallback Trans() = %q", got)
	}
}

func TestCatalogsComplete(t *testing.T) {
	for key := range english {
		if _, ok := french[key]; !ok {
			t.Errorf("i18n:translator_test - french catalog misses %s", key)
		}
	}
}
