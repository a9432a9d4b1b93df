// Package version holds the library version and the compatibility checks
// applied to plugins that declare the core versions they support.
package version

import (
	"fmt"
	"regexp"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/morezero/jaxon/pkg/errdefs"
)

// Core is the version of this library.
const Core = "1.0.0"

// Product is the name reported to the client runtime.
const Product = "Jaxon Go"

var (
	majorOnlyRegex    = regexp.MustCompile(`^\d+$`)
	exactVersionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)
)

// Label returns the product label sent to the client, e.g. "Jaxon Go 1.0.0".
func Label(v string) string {
	if v == "" {
		v = Core
	}
	return Product + " " + v
}

// IsMajorOnly checks if a range is a major-only specifier (e.g. "1").
func IsMajorOnly(rangeStr string) bool {
	return majorOnlyRegex.MatchString(rangeStr)
}

// IsExactVersion checks if a range is an exact version (e.g. "1.2.3").
func IsExactVersion(rangeStr string) bool {
	return exactVersionRegex.MatchString(rangeStr)
}

// SatisfiesRange checks if a version string satisfies a range. A major-only
// range matches every version of that major.
func SatisfiesRange(version, rangeStr string) bool {
	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false
	}
	if IsMajorOnly(rangeStr) {
		var major uint64
		fmt.Sscanf(rangeStr, "%d", &major)
		return sv.Major() == major
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	return constraint.Check(sv)
}

// Requirer is implemented by plugins that only work with some core versions.
type Requirer interface {
	RequiresCore() string
}

// CheckCompatible validates that core satisfies the range declared by a
// plugin. An empty range accepts every version.
func CheckCompatible(plugin, rangeStr, core string) error {
	rangeStr = strings.TrimSpace(rangeStr)
	if rangeStr == "" {
		return nil
	}
	if !IsMajorOnly(rangeStr) {
		if _, err := masterminds.NewConstraint(rangeStr); err != nil {
			return &errdefs.ConfigurationError{
				Subject: plugin,
				Message: fmt.Sprintf("invalid core version range %q", rangeStr),
				Err:     err,
			}
		}
	}
	if !SatisfiesRange(core, rangeStr) {
		return errdefs.NewConfigurationError(plugin, "requires core %s, running %s", rangeStr, core)
	}
	return nil
}
