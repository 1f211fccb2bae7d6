// Package profile reads build profiles: settings, options and conf given
// in a YAML file or as key=value pairs on the command line.
//
// A profile looks like:
//
//	settings:
//	  os: Linux
//	  build_type: Debug
//	options:
//	  shared: true
//	  rsl-config/*:shared: false
//	conf:
//	  tools.build:skip_test: true
package profile

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/rsl-dev/rslpkg/recipe"
	"gopkg.in/yaml.v3"
)

// ErrInvalidAssignment is returned for command line values not of the form key=value.
var ErrInvalidAssignment = errors.New("invalid assignment")

// Profile holds settings, options and conf overrides.
type Profile struct {
	Settings map[string]string `yaml:"settings"`
	Options  map[string]string `yaml:"options"`
	Conf     map[string]string `yaml:"conf"`
}

// Load reads a profile file.
func Load(file string) (*Profile, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", file, err)
	}
	return p, nil
}

// Parse parses a YAML profile.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Merge overrides entries of p with those of other.
func (p *Profile) Merge(other *Profile) {
	if other == nil {
		return
	}
	p.Settings = mergeMap(p.Settings, other.Settings)
	p.Options = mergeMap(p.Options, other.Options)
	p.Conf = mergeMap(p.Conf, other.Conf)
}

func mergeMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

// FromAssignments builds a profile from command line "key=value" lists.
func FromAssignments(settings, options, conf []string) (*Profile, error) {
	var (
		p   Profile
		err error
	)
	if p.Settings, err = ParseAssignments(settings); err != nil {
		return nil, err
	}
	if p.Options, err = ParseAssignments(options); err != nil {
		return nil, err
	}
	if p.Conf, err = ParseAssignments(conf); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseAssignments parses "key=value" items. The key ends at the first "=".
func ParseAssignments(items []string) (map[string]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w %q: want key=value", ErrInvalidAssignment, item)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// ApplySettings assigns the profile settings to s.
func (p *Profile) ApplySettings(s *recipe.Settings) error {
	for k, v := range p.Settings {
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// OptionsFor returns the options that apply to package name. A plain key
// applies to the package being built. A scoped key "<pattern>:<option>"
// applies when pattern matches "name" or "name/version"; "&" denotes the
// package being built. Scoped keys override plain ones and "&" overrides
// patterns; among matching patterns the one sorting last wins.
func (p *Profile) OptionsFor(name, version string) map[string]string {
	const (
		plain = iota
		pattern
		self
	)
	ref := name + "/" + version
	layers := make([]map[string]string, 3)
	for i := range layers {
		layers[i] = make(map[string]string)
	}
	for _, k := range slices.Sorted(maps.Keys(p.Options)) {
		v := p.Options[k]
		scope, opt, ok := strings.Cut(k, ":")
		switch {
		case !ok:
			layers[plain][k] = v
		case scope == "&":
			layers[self][opt] = v
		case matchScope(scope, name) || matchScope(scope, ref):
			layers[pattern][opt] = v
		}
	}
	out := make(map[string]string)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

func matchScope(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}

// RecipeConf returns a copy of the profile conf entries.
func (p *Profile) RecipeConf() recipe.Conf {
	conf := make(recipe.Conf, len(p.Conf))
	maps.Copy(conf, p.Conf)
	return conf
}
