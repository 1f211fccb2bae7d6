package engine

import (
	"maps"
	"slices"

	"github.com/rsl-dev/rslpkg/internal/cache"
	"github.com/rsl-dev/rslpkg/recipe"
)

// ResolveOptions returns the effective options of r for settings: declared
// defaults, overridden by requested, then narrowed by the ConfigOptions
// and Configure hooks. Options the hooks remove are dropped silently, even
// when requested.
func ResolveOptions(r recipe.Recipe, settings recipe.Settings, requested map[string]string) (*recipe.Options, error) {
	opts := recipe.NewOptions(r.Metadata().Options)
	if err := configure(r, settings, opts, requested); err != nil {
		return nil, err
	}
	return opts, nil
}

func configure(r recipe.Recipe, settings recipe.Settings, opts *recipe.Options, requested map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(requested)) {
		if err := opts.Set(name, requested[name]); err != nil {
			return err
		}
	}
	ctx := &recipe.Context{Settings: settings, Options: opts}
	r.ConfigOptions(ctx)
	r.Configure(ctx)
	return nil
}

// Requirements returns the dependencies r declares for its effective options.
func Requirements(r recipe.Recipe, ctx *recipe.Context) ([]recipe.Requirement, error) {
	reqs := &recipe.Requirements{}
	r.Requirements(ctx, reqs)
	if err := reqs.Err(); err != nil {
		return nil, err
	}
	return reqs.List(), nil
}

// Variant is one distinct binary configuration of a recipe.
type Variant struct {
	// Combination is the first requested assignment that produced the
	// variant, values in option name order.
	Combination string            `json:"combination"`
	Options     map[string]string `json:"options"`
	PackageID   string            `json:"package_id"`
}

// Variants runs the option hooks for every assignment of the declared
// option domains and returns the distinct effective configurations for
// settings. Assignments the hooks normalise to the same options share a
// package id and are listed once.
func (e *Engine) Variants(r recipe.Recipe, settings recipe.Settings) ([]Variant, error) {
	meta := r.Metadata()
	declared := recipe.NewOptions(meta.Options)
	matrix := recipe.Matrix{Options: declared.Domains()}
	labels := matrix.Combinations()

	variants := make([]Variant, 0, matrix.CombinationCount())
	seen := make(map[string]bool)
	for i, set := range matrix.OptionSets() {
		opts := declared.Clone()
		if err := configure(r, settings, opts, set); err != nil {
			return nil, &Error{Op: "configure", Ref: meta.Ref().String(), Err: err}
		}
		id := cache.PackageID(recipe.MatrixOf(settings, opts))
		if seen[id] {
			continue
		}
		seen[id] = true
		variants = append(variants, Variant{
			Combination: labels[i],
			Options:     opts.Values(),
			PackageID:   id,
		})
	}
	return variants, nil
}
