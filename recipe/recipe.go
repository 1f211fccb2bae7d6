// Package recipe defines the contract between a package recipe and the
// driver that runs it.
//
// A recipe describes one package: its metadata, its options and the
// lifecycle hooks the driver calls in order:
//
//	ConfigOptions -> Configure -> Requirements -> Layout -> Generate
//	    -> Build -> Package -> PackageInfo
//
// Hooks run sequentially on a single goroutine. Any error returned by a
// hook aborts the run.
package recipe

import (
	"context"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/rsl-dev/rslpkg/pkgs/mod/module"
	"go.uber.org/zap"
)

// PackageType classifies what a package provides.
type PackageType string

const (
	Library       PackageType = "library"
	StaticLibrary PackageType = "static-library"
	SharedLibrary PackageType = "shared-library"
	HeaderLibrary PackageType = "header-library"
	Application   PackageType = "application"
)

// Metadata is the static description of a recipe.
type Metadata struct {
	Name        string
	Version     string
	PackageType PackageType

	License     string
	Author      string
	URL         string
	Description string
	Topics      []string

	// Settings lists the settings that affect the binary.
	Settings []string

	// Options declares the options and their defaults.
	Options []OptionDef

	// ExportsSources lists the patterns of source files exported with the
	// recipe.
	ExportsSources []string
}

// Ref returns the package reference of the recipe.
func (m Metadata) Ref() module.Version {
	return module.Version{Path: m.Name, Version: m.Version}
}

// Recipe is implemented by package recipes.
type Recipe interface {
	Metadata() Metadata

	// ConfigOptions removes options that do not apply to the settings.
	ConfigOptions(ctx *Context)

	// Configure adjusts options after their values are known.
	Configure(ctx *Context)

	// Requirements declares the package dependencies.
	Requirements(ctx *Context, reqs *Requirements)

	// Layout sets the source, build and generators folders.
	Layout(ctx *Context)

	// Generate writes the files the build system needs to find
	// dependencies and the toolchain.
	Generate(ctx *Context) error

	// Build compiles the package.
	Build(ctx *Context) error

	// Package installs the built artifacts into the package folder.
	Package(ctx *Context) error

	// PackageInfo describes the packaged components to consumers.
	PackageInfo(ctx *Context, info *CppInfo)
}

// Dependency is a resolved requirement available to the hooks.
type Dependency struct {
	Ref     module.Version
	Dir     string // package folder of the dependency
	CppInfo *CppInfo

	// Direct is set for requirements declared by the recipe itself.
	Direct bool

	// Headers and Libs report whether the dependency headers and libraries
	// are visible to the package being built.
	Headers bool
	Libs    bool
}

// Runner executes an external command with extra environment variables.
type Runner func(name string, args []string, env map[string]string) error

// Context carries the state of one recipe run into the hooks.
type Context struct {
	Settings     Settings
	Options      *Options
	Conf         Conf
	Folders      Folders
	Dependencies []Dependency
	Project      *Project

	Logger *zap.Logger
	Stdout io.Writer
	Stderr io.Writer

	// Ctx bounds external commands; cancelling it kills a running tool.
	Ctx context.Context

	// Run executes external tools. When nil, commands run with os/exec
	// under Ctx.
	Run Runner
}

// Exec runs an external command through ctx.Run.
func (ctx *Context) Exec(name string, args []string, env map[string]string) error {
	ctx.logger().Debug("exec", zap.String("cmd", name), zap.Strings("args", args))
	if ctx.Run != nil {
		return ctx.Run(name, args, env)
	}
	cmd := exec.CommandContext(ctx.context(), name, args...)
	cmd.Stdout = ctx.stdout()
	cmd.Stderr = ctx.stderr()
	if len(env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), env)
	}
	return cmd.Run()
}

func (ctx *Context) context() context.Context {
	if ctx.Ctx == nil {
		return context.Background()
	}
	return ctx.Ctx
}

func (ctx *Context) logger() *zap.Logger {
	if ctx.Logger == nil {
		return zap.NewNop()
	}
	return ctx.Logger
}

func (ctx *Context) stdout() io.Writer {
	if ctx.Stdout == nil {
		return os.Stdout
	}
	return ctx.Stdout
}

func (ctx *Context) stderr() io.Writer {
	if ctx.Stderr == nil {
		return os.Stderr
	}
	return ctx.Stderr
}

// MergeEnv overrides entries of base, a list of "key=value" pairs, and
// returns the result sorted by key.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
