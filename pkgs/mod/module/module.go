// Package module defines the module.Version type along with support code.
package module

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrInvalidRef is returned when a package reference is malformed.
var ErrInvalidRef = errors.New("invalid package reference")

// A Version (for clients, a module.Version) identifies a specific version
// of a package. It is written "name/version", e.g. "libassert/2.1.5".
type Version struct {
	Path    string `json:"name"`    // Package name, e.g. "rsl-config"
	Version string `json:"version"` // Version string, e.g. "0.1"
}

// String returns the "name/version" form of v.
func (v Version) String() string {
	return v.Path + "/" + v.Version
}

// Parse parses a reference in the form "name/version".
func Parse(ref string) (Version, error) {
	name, ver, ok := strings.Cut(ref, "/")
	if !ok {
		return Version{}, fmt.Errorf("%w %q: missing version", ErrInvalidRef, ref)
	}
	if err := CheckPath(name); err != nil {
		return Version{}, err
	}
	if err := CheckVersion(ver); err != nil {
		return Version{}, err
	}
	return Version{Path: name, Version: ver}, nil
}

// MustParse is like Parse but panics on error. It is meant for references
// hardcoded in recipes.
func MustParse(ref string) Version {
	v, err := Parse(ref)
	if err != nil {
		panic(err)
	}
	return v
}

// CheckPath reports whether name is a valid package name: lowercase
// letters, digits and the characters "-", "_", "." and "+".
func CheckPath(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRef)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.' || r == '+':
		default:
			return fmt.Errorf("%w: name %q contains %q", ErrInvalidRef, name, r)
		}
	}
	return nil
}

// CheckVersion reports whether ver is a semantic version, with or without
// the leading "v". Short forms such as "0.1" are accepted.
func CheckVersion(ver string) error {
	if !semver.IsValid(canonical(ver)) {
		return fmt.Errorf("%w: version %q is not a semantic version", ErrInvalidRef, ver)
	}
	return nil
}

// Compare compares two versions by semantic version precedence.
// "0.1" and "0.1.0" compare equal.
func Compare(v1, v2 string) int {
	return semver.Compare(canonical(v1), canonical(v2))
}

func canonical(ver string) string {
	if ver == "" {
		return ""
	}
	return "v" + strings.TrimPrefix(ver, "v")
}

// EscapePath returns the escaped form of the given package name as a valid
// file system path. It fails if the name is invalid.
func EscapePath(path string) (escaped string, err error) {
	return filepath.Localize(path)
}
