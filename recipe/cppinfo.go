package recipe

import (
	"maps"
	"slices"
	"strings"
)

// PropCMakeTargetName names the CMake target generated for a component.
const PropCMakeTargetName = "cmake_target_name"

// Component is an independently linkable unit of a package.
type Component struct {
	IncludeDirs []string          `json:"includedirs"`
	LibDirs     []string          `json:"libdirs"`
	Requires    []string          `json:"requires"`
	Libs        []string          `json:"libs"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// SetProperty sets a generator property such as the CMake target name.
func (c *Component) SetProperty(key, value string) {
	if c.Properties == nil {
		c.Properties = make(map[string]string)
	}
	c.Properties[key] = value
}

// Property returns the value of a generator property.
func (c *Component) Property(key string) string {
	return c.Properties[key]
}

// CppInfo describes how consumers compile and link against a package.
type CppInfo struct {
	Components map[string]*Component `json:"components"`
}

// Component returns the named component, creating it if needed.
func (i *CppInfo) Component(name string) *Component {
	if i.Components == nil {
		i.Components = make(map[string]*Component)
	}
	c, ok := i.Components[name]
	if !ok {
		c = &Component{}
		i.Components[name] = c
	}
	return c
}

// Lookup returns the named component if it exists.
func (i *CppInfo) Lookup(name string) (*Component, bool) {
	c, ok := i.Components[name]
	return c, ok
}

// ComponentNames returns the component names in sorted order.
func (i *CppInfo) ComponentNames() []string {
	return slices.Sorted(maps.Keys(i.Components))
}

// SplitRequire splits a component requirement. "pkg::comp" refers to a
// component of dependency pkg, a bare "comp" to a component of the same
// package, in which case pkg is empty.
func SplitRequire(req string) (pkg, comp string) {
	if pkg, comp, ok := strings.Cut(req, "::"); ok {
		return pkg, comp
	}
	return "", req
}
