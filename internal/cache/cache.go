// Package cache stores built packages and their manifests in the workspace.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/rsl-dev/rslpkg/pkgs/mod/module"
	"github.com/rsl-dev/rslpkg/recipe"
)

// Workspace directory layout:
//
//	workspaceDir/
//	  <escaped>/                      # package-level dir
//	    .cache.json                   # index: "version-settings" -> entry
//	  <escaped>@<version>-<pkgid>/    # package folder
//	    include/
//	    lib/
//	    rslpkg.json                   # manifest
const (
	cacheFile = ".cache.json"

	// ManifestFile is the name of the manifest in every package folder.
	ManifestFile = "rslpkg.json"
)

// ErrNotFound is returned when no package matches a lookup.
var ErrNotFound = errors.New("package not found in cache")

// Manifest describes a packaged binary to its consumers.
type Manifest struct {
	Ref         module.Version       `json:"ref"`
	PackageID   string               `json:"package_id"`
	PackageType recipe.PackageType   `json:"package_type,omitempty"`
	Settings    recipe.Settings      `json:"settings"`
	Options     map[string]string    `json:"options"`
	Requires    []recipe.Requirement `json:"requires"`
	CppInfo     recipe.CppInfo       `json:"cpp_info"`
}

// SettingsKey returns the cache index key part derived from the settings.
func (m *Manifest) SettingsKey() string {
	matrix := recipe.MatrixOf(m.Settings, nil)
	return matrix.SettingsKey()
}

// PackageID returns the id of the binary described by a single-valued
// matrix: the sha256 digest of its canonical form.
func PackageID(m recipe.Matrix) string {
	return digest.FromString(m.Canonical()).Encoded()
}

// entry contains metadata about a single successful build.
type entry struct {
	PackageID string    `json:"package_id"`
	Dir       string    `json:"dir"`
	BuildTime time.Time `json:"build_time"`
}

// index maps "version-settingsKey" keys to their entries.
type index struct {
	Cache map[string]*entry `json:"cache"`
}

func cacheKey(version, settings string) string {
	return version + "-" + settings
}

// Cache is the local package cache rooted at a workspace directory.
type Cache struct {
	dir string
}

// New returns the cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the workspace directory.
func (c *Cache) Dir() string {
	return c.dir
}

// indexDir returns the package-level directory for index storage: workspaceDir/<escapedPath>.
func (c *Cache) indexDir(name string) (string, error) {
	escaped, err := module.EscapePath(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.dir, escaped), nil
}

// PackageDir returns the package folder of a binary: workspaceDir/<escapedPath>@<version>-<pkgid>.
// Only the first 16 characters of the package id are used.
func (c *Cache) PackageDir(ref module.Version, packageID string) (string, error) {
	escaped, err := module.EscapePath(ref.Path)
	if err != nil {
		return "", err
	}
	if len(packageID) > 16 {
		packageID = packageID[:16]
	}
	return filepath.Join(c.dir, fmt.Sprintf("%s@%s-%s", escaped, ref.Version, packageID)), nil
}

func (c *Cache) loadIndex(name string) (*index, error) {
	dir, err := c.indexDir(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, cacheFile))
	if err != nil {
		return nil, err
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (c *Cache) saveIndex(name string, idx *index) error {
	dir, err := c.indexDir(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, cacheFile), data, 0o644)
}

// Register writes m into the package folder dir and records the folder as
// the package for m's version and settings. A later registration for the
// same key replaces the earlier one.
func (c *Cache) Register(m *Manifest, dir string) error {
	if err := WriteManifest(dir, m); err != nil {
		return err
	}
	idx, err := c.loadIndex(m.Ref.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		idx = &index{}
	}
	if idx.Cache == nil {
		idx.Cache = make(map[string]*entry)
	}
	idx.Cache[cacheKey(m.Ref.Version, m.SettingsKey())] = &entry{
		PackageID: m.PackageID,
		Dir:       dir,
		BuildTime: time.Now(),
	}
	return c.saveIndex(m.Ref.Path, idx)
}

// Lookup returns the manifest and package folder registered for ref under
// settingsKey.
func (c *Cache) Lookup(ref module.Version, settingsKey string) (*Manifest, string, error) {
	idx, err := c.loadIndex(ref.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s (%s)", ErrNotFound, ref, settingsKey)
		}
		return nil, "", err
	}
	e, ok := idx.Cache[cacheKey(ref.Version, settingsKey)]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s (%s)", ErrNotFound, ref, settingsKey)
	}
	m, err := ReadManifest(e.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s: package folder %s is gone", ErrNotFound, ref, e.Dir)
		}
		return nil, "", err
	}
	return m, e.Dir, nil
}

// ReadManifest reads the manifest of the package folder dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

// WriteManifest writes m into the package folder dir.
func WriteManifest(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644)
}
