package recipe

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnknownSetting is returned when setting a key that is not a known setting.
var ErrUnknownSetting = errors.New("unknown setting")

// Well-known setting values.
const (
	OSWindows = "Windows"
	OSLinux   = "Linux"
	OSMacos   = "Macos"

	CompilerMSVC = "msvc"
)

// Settings describes the binary configuration a package is built for.
type Settings struct {
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
	Compiler  string `json:"compiler" yaml:"compiler"`
	BuildType string `json:"build_type" yaml:"build_type"`
}

// DefaultSettings detects the settings of the host.
func DefaultSettings() Settings {
	s := Settings{BuildType: "Release"}
	switch runtime.GOOS {
	case "windows":
		s.OS, s.Compiler = OSWindows, CompilerMSVC
	case "darwin":
		s.OS, s.Compiler = OSMacos, "apple-clang"
	case "linux":
		s.OS, s.Compiler = OSLinux, "gcc"
	default:
		s.OS, s.Compiler = runtime.GOOS, "gcc"
	}
	switch runtime.GOARCH {
	case "amd64":
		s.Arch = "x86_64"
	case "arm64":
		s.Arch = "armv8"
	case "386":
		s.Arch = "x86"
	default:
		s.Arch = runtime.GOARCH
	}
	return s
}

// Set assigns a setting by its key: os, arch, compiler or build_type.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "os":
		s.OS = value
	case "arch":
		s.Arch = value
	case "compiler":
		s.Compiler = value
	case "build_type":
		s.BuildType = value
	default:
		return fmt.Errorf("%w %q", ErrUnknownSetting, key)
	}
	return nil
}

// Values returns the settings keyed by name.
func (s Settings) Values() map[string]string {
	return map[string]string{
		"os":         s.OS,
		"arch":       s.Arch,
		"compiler":   s.Compiler,
		"build_type": s.BuildType,
	}
}

// IsMultiConfig reports whether the default CMake generator for these
// settings builds several configurations from one build tree.
func (s Settings) IsMultiConfig() bool {
	return s.Compiler == CompilerMSVC
}
