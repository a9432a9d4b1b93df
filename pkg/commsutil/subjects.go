package commsutil

import (
	"strings"
)

// Default event subjects.
const (
	SubjectDispatch = "jaxon.dispatch"
	SubjectUpload   = "jaxon.upload"
)

// BuildDispatchSubject builds the granular subject of a dispatch outcome,
// e.g. "jaxon.dispatch.failed.class".
func BuildDispatchSubject(base, state, owner string) string {
	if base == "" {
		base = SubjectDispatch
	}
	if owner == "" {
		owner = "none"
	}
	return base + "." + Token(state) + "." + Token(owner)
}

// Token makes s safe for use as a single subject token.
func Token(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '\t', '*', '>':
			return '_'
		}
		return r
	}, s)
}
