// Package i18n translates the messages shown to end users.
package i18n

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const logPrefix = "i18n:translator"

// Translator returns the message for key with {param} placeholders filled.
type Translator interface {
	Trans(key string, params map[string]string) string
}

// Catalogs holds the messages of every supported language.
type Catalogs map[language.Tag]map[string]string

// MessageTranslator serves messages from in-memory catalogs.
type MessageTranslator struct {
	mu       sync.RWMutex
	lang     language.Tag
	fallback language.Tag
	catalogs Catalogs
}

var supported = []language.Tag{language.English, language.French}

var matcher = language.NewMatcher(supported)

// NewTranslator creates a translator for the closest supported match of
// lang, e.g. "fr-CA" or "fr;q=0.9, en;q=0.8". English is the fallback.
func NewTranslator(lang string) *MessageTranslator {
	t := &MessageTranslator{
		fallback: language.English,
		catalogs: Catalogs{
			language.English: copyCatalog(english),
			language.French:  copyCatalog(french),
		},
	}
	t.SetLanguage(lang)
	return t
}

// SetLanguage switches to the closest supported match of lang.
func (t *MessageTranslator) SetLanguage(lang string) {
	tag := Match(lang)
	t.mu.Lock()
	t.lang = tag
	t.mu.Unlock()
}

// Language returns the active language.
func (t *MessageTranslator) Language() language.Tag {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// Match returns the supported language closest to lang.
func Match(lang string) language.Tag {
	if strings.TrimSpace(lang) == "" {
		return language.English
	}
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		slog.Debug(fmt.Sprintf("%s - unparsable language %q, using en", logPrefix, lang))
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// AddMessages adds or replaces messages of a language.
func (t *MessageTranslator) AddMessages(lang language.Tag, messages map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cat, ok := t.catalogs[lang]
	if !ok {
		cat = make(map[string]string)
		t.catalogs[lang] = cat
	}
	for k, v := range messages {
		cat[k] = v
	}
}

// Trans returns the translated message. Unknown keys return the key itself.
func (t *MessageTranslator) Trans(key string, params map[string]string) string {
	t.mu.RLock()
	msg, ok := t.catalogs[t.lang][key]
	if !ok {
		msg, ok = t.catalogs[t.fallback][key]
	}
	t.mu.RUnlock()
	if !ok {
		return key
	}
	for name, value := range params {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

func copyCatalog(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

var defaultTranslator = NewTranslator("en")

// Default returns the shared English translator.
func Default() Translator { return defaultTranslator }
