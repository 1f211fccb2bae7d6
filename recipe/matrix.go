package recipe

import (
	"maps"
	"slices"
	"strings"
)

// Matrix lists the values each setting (Require) and option (Options) may
// take. A single-valued matrix describes one binary configuration.
type Matrix struct {
	Require map[string][]string
	Options map[string][]string
}

// MatrixOf returns the single-valued matrix of a configuration.
func MatrixOf(s Settings, o *Options) Matrix {
	m := Matrix{Require: make(map[string][]string)}
	for k, v := range s.Values() {
		m.Require[k] = []string{v}
	}
	if o != nil {
		m.Options = make(map[string][]string)
		for k, v := range o.Values() {
			m.Options[k] = []string{v}
		}
	}
	return m
}

// product returns the cartesian product of kvs. Keys are sorted
// alphabetically and the product is built layer by layer, the first key
// varying slowest.
func product(kvs map[string][]string) []map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(kvs))

	result := make([]map[string]string, 0, len(kvs[keys[0]]))
	for _, v := range kvs[keys[0]] {
		result = append(result, map[string]string{keys[0]: v})
	}
	for _, k := range keys[1:] {
		values := kvs[k]
		next := make([]map[string]string, 0, len(result)*len(values))
		for _, prev := range result {
			for _, v := range values {
				combo := maps.Clone(prev)
				combo[k] = v
				next = append(next, combo)
			}
		}
		result = next
	}
	return result
}

func join(combo map[string]string) string {
	keys := slices.Sorted(maps.Keys(combo))
	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = combo[k]
	}
	return strings.Join(values, "-")
}

// RequireSets returns every assignment of the Require part.
func (m Matrix) RequireSets() []map[string]string {
	return product(m.Require)
}

// OptionSets returns every assignment of the Options part.
func (m Matrix) OptionSets() []map[string]string {
	return product(m.Options)
}

// Combinations returns all cartesian product combinations of the matrix.
// Keys are sorted alphabetically, and combinations are built layer by layer.
// Require fields are joined with "-", then combined with options using "|".
func (m Matrix) Combinations() []string {
	render := func(sets []map[string]string) []string {
		if len(sets) == 0 {
			return nil
		}
		out := make([]string, len(sets))
		for i, set := range sets {
			out[i] = join(set)
		}
		return out
	}
	requireCombos := render(m.RequireSets())
	optionsCombos := render(m.OptionSets())

	if len(requireCombos) == 0 {
		return optionsCombos
	}
	if len(optionsCombos) == 0 {
		return requireCombos
	}

	result := make([]string, 0, len(requireCombos)*len(optionsCombos))
	for _, req := range requireCombos {
		for _, opt := range optionsCombos {
			result = append(result, req+"|"+opt)
		}
	}
	return result
}

// CombinationCount returns the total number of cartesian product combinations.
func (m Matrix) CombinationCount() int {
	countPart := func(kvs map[string][]string) int {
		if len(kvs) == 0 {
			return 0
		}
		count := 1
		for _, v := range kvs {
			count *= len(v)
		}
		return count
	}

	requireCount := countPart(m.Require)
	optionsCount := countPart(m.Options)

	if requireCount == 0 {
		return optionsCount
	}
	if optionsCount == 0 {
		return requireCount
	}
	return requireCount * optionsCount
}

// SettingsKey returns the Require part of a single-valued matrix, e.g.
// "x86_64-Release-gcc-Linux". It identifies binaries that are link
// compatible regardless of options.
func (m Matrix) SettingsKey() string {
	sets := m.RequireSets()
	if len(sets) == 0 {
		return ""
	}
	return join(sets[0])
}

// Canonical returns a stable "section.key=value" listing of a
// single-valued matrix, one entry per line.
func (m Matrix) Canonical() string {
	var b strings.Builder
	write := func(section string, kvs map[string][]string) {
		for _, k := range slices.Sorted(maps.Keys(kvs)) {
			if len(kvs[k]) == 0 {
				continue
			}
			b.WriteString(section + "." + k + "=" + kvs[k][0] + "\n")
		}
	}
	write("settings", m.Require)
	write("options", m.Options)
	return b.String()
}
