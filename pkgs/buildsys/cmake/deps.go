package cmake

import (
	"bytes"
	"cmp"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/rsl-dev/rslpkg/recipe"
)

var configTmpl = template.Must(template.New("config").Parse(`# Generated by rslpkg. Do not edit.
# {{.Ref}}
include_guard(GLOBAL)
{{- if .FindDeps}}
include(CMakeFindDependencyMacro)
{{- range .FindDeps}}
find_dependency({{.}} CONFIG)
{{- end}}
{{- end}}

set({{.Name}}_FOUND TRUE)
set({{.Name}}_VERSION "{{.Version}}")
set({{.Name}}_PACKAGE_FOLDER "{{.Dir}}")
{{range .Targets}}
if(NOT TARGET {{.Name}})
  add_library({{.Name}} INTERFACE IMPORTED)
  set_target_properties({{.Name}} PROPERTIES
{{- if .IncludeDirs}}
    INTERFACE_INCLUDE_DIRECTORIES "{{.IncludeDirs}}"
{{- end}}
{{- if .LinkDirs}}
    INTERFACE_LINK_DIRECTORIES "{{.LinkDirs}}"
{{- end}}
    INTERFACE_LINK_LIBRARIES "{{.LinkLibs}}")
endif()
{{end -}}
`))

var versionTmpl = template.Must(template.New("version").Parse(`# Generated by rslpkg. Do not edit.
set(PACKAGE_VERSION "{{.}}")
if(PACKAGE_FIND_VERSION VERSION_GREATER PACKAGE_VERSION)
  set(PACKAGE_VERSION_COMPATIBLE FALSE)
else()
  set(PACKAGE_VERSION_COMPATIBLE TRUE)
  if(PACKAGE_FIND_VERSION STREQUAL PACKAGE_VERSION)
    set(PACKAGE_VERSION_EXACT TRUE)
  endif()
endif()
`))

type target struct {
	Name        string
	IncludeDirs string
	LinkDirs    string
	LinkLibs    string
}

// Deps writes a CMake package config for every resolved dependency, so
// that find_package(<name> CONFIG) resolves to imported targets.
//
// Components become INTERFACE IMPORTED targets named after their
// cmake_target_name property, or "<package>::<component>". Headers of a
// dependency that is only libs-visible are not exported, and neither are
// the libraries of a headers-only visible one.
type Deps struct {
	ctx *recipe.Context
}

// NewDeps returns a dependency file generator for ctx.
func NewDeps(ctx *recipe.Context) *Deps {
	return &Deps{ctx: ctx}
}

// ConfigFile returns the name of the config file written for a package.
func ConfigFile(name string) string {
	return name + "-config.cmake"
}

// ConfigVersionFile returns the name of the version file written for a package.
func ConfigVersionFile(name string) string {
	return name + "-config-version.cmake"
}

// Generate writes the config and version files into the generators folder.
func (d *Deps) Generate() error {
	deps := slices.Clone(d.ctx.Dependencies)
	slices.SortFunc(deps, func(a, b recipe.Dependency) int {
		return cmp.Compare(a.Ref.Path, b.Ref.Path)
	})
	dir := d.ctx.Folders.GeneratorsDir()
	for _, dep := range deps {
		config, err := d.config(dep)
		if err != nil {
			return err
		}
		if err := writeGenerated(filepath.Join(dir, ConfigFile(dep.Ref.Path)), config); err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := versionTmpl.Execute(&buf, dep.Ref.Version); err != nil {
			return err
		}
		if err := writeGenerated(filepath.Join(dir, ConfigVersionFile(dep.Ref.Path)), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deps) config(dep recipe.Dependency) ([]byte, error) {
	data := struct {
		Ref      string
		Name     string
		Version  string
		Dir      string
		FindDeps []string
		Targets  []target
	}{
		Ref:     dep.Ref.String(),
		Name:    dep.Ref.Path,
		Version: dep.Ref.Version,
		Dir:     cmakePath(dep.Dir),
	}

	info := dep.CppInfo
	if info == nil {
		info = &recipe.CppInfo{}
	}
	names := info.ComponentNames()
	if len(names) == 0 {
		// A package without components exposes one target with the
		// conventional folders.
		info = &recipe.CppInfo{Components: map[string]*recipe.Component{
			dep.Ref.Path: {IncludeDirs: []string{"include"}, LibDirs: []string{"lib"}},
		}}
		names = []string{dep.Ref.Path}
	}

	var findDeps []string
	for _, name := range names {
		comp := info.Components[name]
		var links []string
		for _, req := range comp.Requires {
			pkg, _ := recipe.SplitRequire(req)
			if pkg != "" && pkg != dep.Ref.Path {
				findDeps = append(findDeps, pkg)
			}
			links = append(links, d.requireTarget(dep.Ref.Path, req))
		}
		t := target{Name: targetName(dep.Ref.Path, name, comp)}
		if dep.Headers {
			t.IncludeDirs = joinDirs(dep.Dir, comp.IncludeDirs)
		}
		if dep.Libs {
			t.LinkDirs = joinDirs(dep.Dir, comp.LibDirs)
			links = append(slices.Clone(comp.Libs), links...)
		}
		t.LinkLibs = strings.Join(links, ";")
		data.Targets = append(data.Targets, t)
	}

	// Aggregate target linking every component.
	if _, ok := info.Lookup(dep.Ref.Path); !ok {
		all := make([]string, len(names))
		for i, name := range names {
			all[i] = targetName(dep.Ref.Path, name, info.Components[name])
		}
		data.Targets = append(data.Targets, target{
			Name:     dep.Ref.Path + "::" + dep.Ref.Path,
			LinkLibs: strings.Join(all, ";"),
		})
	}

	slices.Sort(findDeps)
	data.FindDeps = slices.Compact(findDeps)

	var buf bytes.Buffer
	if err := configTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// requireTarget maps a component requirement of package pkg to the CMake
// target that provides it.
func (d *Deps) requireTarget(pkg, req string) string {
	other, comp := recipe.SplitRequire(req)
	if other == "" {
		other = pkg
	}
	for _, dep := range d.ctx.Dependencies {
		if dep.Ref.Path != other || dep.CppInfo == nil {
			continue
		}
		if c, ok := dep.CppInfo.Lookup(comp); ok {
			return targetName(other, comp, c)
		}
	}
	return other + "::" + comp
}

func targetName(pkg, name string, comp *recipe.Component) string {
	if comp != nil {
		if t := comp.Property(recipe.PropCMakeTargetName); t != "" {
			return t
		}
	}
	return pkg + "::" + name
}

func joinDirs(root string, dirs []string) string {
	out := make([]string, len(dirs))
	for i, dir := range dirs {
		out[i] = cmakePath(filepath.Join(root, dir))
	}
	return strings.Join(out, ";")
}
