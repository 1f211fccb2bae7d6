package engine

import (
	"errors"
	"fmt"

	"github.com/rsl-dev/rslpkg/internal/cache"
	"github.com/rsl-dev/rslpkg/pkgs/mod/module"
	"github.com/rsl-dev/rslpkg/recipe"
	"go.uber.org/zap"
)

// resolve looks up every requirement in the cache, following the
// requirements recorded in the manifests of the dependencies. Direct
// requirements are fully visible; a transitive dependency is visible
// through a path only as far as every requirement on it is transitive.
// When several paths reach one package their visibility is merged.
func (e *Engine) resolve(reqs []recipe.Requirement, settingsKey string) ([]recipe.Dependency, error) {
	type item struct {
		req     recipe.Requirement
		headers bool
		libs    bool
		direct  bool
	}
	queue := make([]item, 0, len(reqs))
	for _, req := range reqs {
		queue = append(queue, item{req: req, headers: true, libs: true, direct: true})
	}

	var deps []recipe.Dependency
	seen := make(map[string]int)
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		ref := it.req.Ref

		if i, ok := seen[ref.Path]; ok {
			d := &deps[i]
			if c := module.Compare(d.Ref.Version, ref.Version); c != 0 {
				older, newer := d.Ref.Version, ref.Version
				if c > 0 {
					older, newer = newer, older
				}
				return nil, fmt.Errorf("%w: %s required at %s and %s", ErrVersionConflict, ref.Path, older, newer)
			}
			// Revisit the dependencies only when visibility widened.
			if (d.Headers || !it.headers) && (d.Libs || !it.libs) {
				continue
			}
			d.Headers = d.Headers || it.headers
			d.Libs = d.Libs || it.libs
			d.Direct = d.Direct || it.direct
			it.headers, it.libs = d.Headers, d.Libs
		}

		m, dir, err := e.cache.Lookup(ref, settingsKey)
		if err != nil {
			if errors.Is(err, cache.ErrNotFound) {
				return nil, fmt.Errorf("%w: %v", ErrDependencyNotFound, err)
			}
			return nil, err
		}
		if _, ok := seen[ref.Path]; !ok {
			info := m.CppInfo
			seen[ref.Path] = len(deps)
			deps = append(deps, recipe.Dependency{
				Ref:     ref,
				Dir:     dir,
				CppInfo: &info,
				Direct:  it.direct,
				Headers: it.headers,
				Libs:    it.libs,
			})
		}
		e.logger.Debug("resolved", zap.Stringer("ref", ref), zap.String("dir", dir),
			zap.Bool("headers", it.headers), zap.Bool("libs", it.libs))

		for _, sub := range m.Requires {
			queue = append(queue, item{
				req:     sub,
				headers: it.headers && sub.TransitiveHeaders,
				libs:    it.libs && sub.TransitiveLibs,
			})
		}
	}
	return deps, nil
}
