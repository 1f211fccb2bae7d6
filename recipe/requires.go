package recipe

import (
	"errors"
	"slices"

	"github.com/rsl-dev/rslpkg/pkgs/mod/module"
)

// Requirement is a dependency declared by a recipe.
type Requirement struct {
	Ref module.Version `json:"ref"`

	// TransitiveHeaders makes the dependency headers visible to consumers
	// of the requiring package.
	TransitiveHeaders bool `json:"transitive_headers"`

	// TransitiveLibs makes the dependency libraries visible to consumers
	// of the requiring package.
	TransitiveLibs bool `json:"transitive_libs"`
}

// Trait modifies a requirement.
type Trait func(r *Requirement)

// TransitiveHeaders propagates the dependency headers to consumers.
func TransitiveHeaders(r *Requirement) { r.TransitiveHeaders = true }

// TransitiveLibs propagates the dependency libraries to consumers.
func TransitiveLibs(r *Requirement) { r.TransitiveLibs = true }

// Requirements collects the dependencies declared by a recipe.
type Requirements struct {
	reqs []Requirement
	errs []error
}

// List returns the collected requirements.
func (p *Requirements) List() []Requirement {
	return slices.Clone(p.reqs)
}

// Err returns the errors met while declaring requirements, if any.
func (p *Requirements) Err() error {
	return errors.Join(p.errs...)
}

// Requires declares that the package being built depends on ref, written
// "name/version". Traits control what consumers of this package see of
// the dependency.
func (p *Requirements) Requires(ref string, traits ...Trait) {
	v, err := module.Parse(ref)
	if err != nil {
		p.errs = append(p.errs, err)
		return
	}
	req := Requirement{Ref: v}
	for _, trait := range traits {
		trait(&req)
	}
	p.reqs = append(p.reqs, req)
}
