package options

import "github.com/morezero/jaxon/pkg/version"

// Default returns the built-in options tree.
func Default() *Options {
	return New(DefaultTree())
}

// DefaultTree returns a fresh copy of the built-in tree.
func DefaultTree() map[string]interface{} {
	return map[string]interface{}{
		"core": map[string]interface{}{
			"version":  version.Core,
			"language": "en",
			"request": map[string]interface{}{
				"uri":  "/jaxon",
				"mode": "asynchronous",
			},
			"prefix": map[string]interface{}{
				"function": "jaxon_",
				"class":    "",
			},
			"upload": map[string]interface{}{
				"enabled": true,
			},
			"jquery": map[string]interface{}{
				"no_conflict": false,
			},
			"debug": map[string]interface{}{
				"on":      false,
				"verbose": false,
			},
		},
		"upload": map[string]interface{}{
			"default": map[string]interface{}{
				"dir":        "uploads",
				"types":      []interface{}{},
				"extensions": []interface{}{},
				"max-size":   0,
				"min-size":   0,
			},
		},
	}
}
