package recipe

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// -----------------------------------------------------------------------------

// Project represents the source tree a recipe is exported from.
type Project struct {
	DirFS fs.FS
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.DirFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// Match returns the regular files matching any of patterns, sorted and
// without duplicates. A trailing "/*" selects the whole subtree, so
// "src/*" also matches files in nested directories of src.
func (p *Project) Match(patterns ...string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(p.DirFS, exportPattern(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// Export copies the files matching patterns into dir, keeping their
// relative paths, and returns the copied paths.
func (p *Project) Export(dir string, patterns ...string) ([]string, error) {
	files, err := p.Match(patterns...)
	if err != nil {
		return nil, err
	}
	for _, name := range files {
		data, err := p.ReadFile(name)
		if err != nil {
			return nil, err
		}
		dest := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func exportPattern(pattern string) string {
	segs := strings.Split(path.Clean(filepath.ToSlash(pattern)), "/")
	for i, seg := range segs {
		if seg == "*" && i == len(segs)-1 && i > 0 {
			segs[i] = "**"
		}
	}
	return strings.Join(segs, "/")
}

// -----------------------------------------------------------------------------
