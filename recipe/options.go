package recipe

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrUnknownOption is returned when setting an option the recipe does not declare.
	ErrUnknownOption = errors.New("unknown option")

	// ErrInvalidOptionValue is returned when a value is outside the option domain.
	ErrInvalidOptionValue = errors.New("invalid option value")
)

// Boolean option values.
const (
	True  = "True"
	False = "False"
)

// BoolDomain is the domain of boolean options.
var BoolDomain = []string{True, False}

// OptionDef declares an option, its domain and its default value.
type OptionDef struct {
	Name    string
	Domain  []string
	Default string
}

// BoolOption declares a boolean option.
func BoolOption(name string, def bool) OptionDef {
	return OptionDef{Name: name, Domain: BoolDomain, Default: FormatBool(def)}
}

// Option is a declared option holding its current value.
type Option struct {
	Name   string
	Domain []string
	Value  string
}

// IsBool reports whether o takes boolean values.
func (o *Option) IsBool() bool {
	return len(o.Domain) == 2 && slices.Contains(o.Domain, True) && slices.Contains(o.Domain, False)
}

// Options is the option set of a recipe instance.
//
// Options are declared once from the recipe metadata. Hooks may remove
// options with RmSafe; a removed option no longer exists for the rest of
// the run and does not take part in the package id.
type Options struct {
	opts map[string]*Option
}

// NewOptions returns the option set declared by defs, each at its default.
func NewOptions(defs []OptionDef) *Options {
	o := &Options{opts: make(map[string]*Option, len(defs))}
	for _, def := range defs {
		o.opts[def.Name] = &Option{
			Name:   def.Name,
			Domain: slices.Clone(def.Domain),
			Value:  def.Default,
		}
	}
	return o
}

// Has reports whether the option exists.
func (o *Options) Has(name string) bool {
	_, ok := o.opts[name]
	return ok
}

// Get returns the value of the option.
func (o *Options) Get(name string) (string, bool) {
	opt, ok := o.opts[name]
	if !ok {
		return "", false
	}
	return opt.Value, true
}

// Bool returns the value of a boolean option. A missing option is false.
func (o *Options) Bool(name string) bool {
	v, _ := o.Get(name)
	return v == True
}

// Set assigns value to the named option.
func (o *Options) Set(name, value string) error {
	opt, ok := o.opts[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOption, name)
	}
	if opt.IsBool() {
		b, ok := ParseBool(value)
		if !ok {
			return fmt.Errorf("%w %q for %s: want one of %s", ErrInvalidOptionValue, value, name, strings.Join(opt.Domain, ", "))
		}
		opt.Value = FormatBool(b)
		return nil
	}
	if !slices.Contains(opt.Domain, value) {
		return fmt.Errorf("%w %q for %s: want one of %s", ErrInvalidOptionValue, value, name, strings.Join(opt.Domain, ", "))
	}
	opt.Value = value
	return nil
}

// RmSafe removes the option if it exists and does nothing otherwise.
func (o *Options) RmSafe(name string) {
	delete(o.opts, name)
}

// Names returns the existing option names in sorted order.
func (o *Options) Names() []string {
	return slices.Sorted(maps.Keys(o.opts))
}

// Values returns a copy of the option values keyed by name.
func (o *Options) Values() map[string]string {
	values := make(map[string]string, len(o.opts))
	for name, opt := range o.opts {
		values[name] = opt.Value
	}
	return values
}

// Domains returns a copy of the option domains keyed by name.
func (o *Options) Domains() map[string][]string {
	domains := make(map[string][]string, len(o.opts))
	for name, opt := range o.opts {
		domains[name] = slices.Clone(opt.Domain)
	}
	return domains
}

// Clone returns a deep copy of o.
func (o *Options) Clone() *Options {
	c := &Options{opts: make(map[string]*Option, len(o.opts))}
	for name, opt := range o.opts {
		c.opts[name] = &Option{Name: opt.Name, Domain: slices.Clone(opt.Domain), Value: opt.Value}
	}
	return c
}

// ParseBool parses the boolean spellings accepted on the command line and
// in profiles.
func ParseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes":
		return true, true
	case "false", "0", "off", "no":
		return false, true
	}
	return false, false
}

// FormatBool returns the canonical option value for b.
func FormatBool(b bool) string {
	if b {
		return True
	}
	return False
}
