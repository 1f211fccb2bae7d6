// Package env resolves the workspace location and the environment-derived
// configuration of rslpkg.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/rsl-dev/rslpkg/pkgs/buildsys/cmake"
	"github.com/rsl-dev/rslpkg/recipe"
)

// Prefix of the environment variables read by Load.
const Prefix = "RSLPKG"

const appName = "rslpkg"

// Config holds the configuration read from RSLPKG_* variables. Keys are
// derived from field names; an envconfig tag would also match the
// unprefixed name (HOME, for one).
type Config struct {
	Home      string // RSLPKG_HOME
	CMake     string // RSLPKG_CMAKE
	Generator string // RSLPKG_GENERATOR
	Jobs      int    // RSLPKG_JOBS
	LogLevel  string `split_words:"true" default:"info"`  // RSLPKG_LOG_LEVEL
	LogDev    bool   `split_words:"true" default:"false"` // RSLPKG_LOG_DEV
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// WorkDir returns the workspace directory holding the package cache:
// $RSLPKG_HOME when set, otherwise rslpkg under the XDG cache home.
// The directory is created with 0700 permissions if it doesn't exist.
func (c *Config) WorkDir() (string, error) {
	dir := c.Home
	if dir == "" {
		dir = filepath.Join(xdg.CacheHome, appName)
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// Conf returns the tool configuration entries implied by c. Entries given
// explicitly in a profile or on the command line take precedence.
func (c *Config) Conf() recipe.Conf {
	conf := recipe.Conf{}
	if c.CMake != "" {
		conf[cmake.ConfProgram] = c.CMake
	}
	if c.Generator != "" {
		conf[cmake.ConfGenerator] = c.Generator
	}
	if c.Jobs > 0 {
		conf[cmake.ConfJobs] = strconv.Itoa(c.Jobs)
	}
	return conf
}
