// Package engine runs recipe lifecycles: it resolves options and
// dependencies, drives the hooks in order and records built packages in
// the local cache.
package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rsl-dev/rslpkg/internal/cache"
	"github.com/rsl-dev/rslpkg/pkgs/mod/module"
	"github.com/rsl-dev/rslpkg/recipe"
	"go.uber.org/zap"
)

// Input is the configuration of one run.
type Input struct {
	Settings recipe.Settings
	Options  map[string]string
	Conf     recipe.Conf
}

// Options configures an Engine.
type Options struct {
	Cache  *cache.Cache
	Logger *zap.Logger
	Stdout io.Writer
	Stderr io.Writer

	// Run replaces command execution, for tests.
	Run recipe.Runner
}

// Engine drives recipes.
type Engine struct {
	cache  *cache.Cache
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
	run    recipe.Runner
}

// New creates an engine.
func New(opts Options) *Engine {
	e := &Engine{
		cache:  opts.Cache,
		logger: opts.Logger,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		run:    opts.Run,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.stdout == nil {
		e.stdout = os.Stdout
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}
	return e
}

// Inspection is the configuration of a recipe without building it.
type Inspection struct {
	Ref          module.Version       `json:"ref"`
	PackageID    string               `json:"package_id"`
	Settings     recipe.Settings      `json:"settings"`
	Options      map[string]string    `json:"options"`
	Requirements []recipe.Requirement `json:"requires"`
}

// Inspect runs the option and requirement hooks of r.
func (e *Engine) Inspect(r recipe.Recipe, in Input) (*Inspection, error) {
	meta := r.Metadata()
	ref := meta.Ref()
	opts, err := ResolveOptions(r, in.Settings, in.Options)
	if err != nil {
		return nil, &Error{Op: "configure", Ref: ref.String(), Err: err}
	}
	ctx := &recipe.Context{Settings: in.Settings, Options: opts, Conf: in.Conf}
	reqs, err := Requirements(r, ctx)
	if err != nil {
		return nil, &Error{Op: "requirements", Ref: ref.String(), Err: err}
	}
	matrix := recipe.MatrixOf(in.Settings, opts)
	return &Inspection{
		Ref:          ref,
		PackageID:    cache.PackageID(matrix),
		Settings:     in.Settings,
		Options:      opts.Values(),
		Requirements: reqs,
	}, nil
}

// Describe returns the manifest r would publish for in, without building.
func (e *Engine) Describe(r recipe.Recipe, in Input) (*cache.Manifest, error) {
	insp, err := e.Inspect(r, in)
	if err != nil {
		return nil, err
	}
	opts, _ := ResolveOptions(r, in.Settings, in.Options)
	ctx := &recipe.Context{Settings: in.Settings, Options: opts, Conf: in.Conf, Logger: e.logger}
	return e.manifest(r, ctx, insp), nil
}

func (e *Engine) manifest(r recipe.Recipe, ctx *recipe.Context, insp *Inspection) *cache.Manifest {
	info := recipe.CppInfo{}
	r.PackageInfo(ctx, &info)
	return &cache.Manifest{
		Ref:         insp.Ref,
		PackageID:   insp.PackageID,
		PackageType: r.Metadata().PackageType,
		Settings:    insp.Settings,
		Options:     insp.Options,
		Requires:    insp.Requirements,
		CppInfo:     info,
	}
}

// run is the state of one lifecycle run.
type run struct {
	recipe recipe.Recipe
	ref    module.Version
	ctx    *recipe.Context
	insp   *Inspection
	logger *zap.Logger
}

// step logs op and wraps a failure of fn into an *Error.
func (r *run) step(op string, fn func() error) error {
	r.logger.Info(op)
	if err := fn(); err != nil {
		return &Error{Op: op, Ref: r.ref.String(), Err: err}
	}
	return nil
}

// prepare configures r in root and runs the hooks up to Generate.
func (e *Engine) prepare(ctx context.Context, r recipe.Recipe, root string, in Input) (*run, error) {
	insp, err := e.Inspect(r, in)
	if err != nil {
		return nil, err
	}
	opts, _ := ResolveOptions(r, in.Settings, in.Options)

	pkgDir, err := e.cache.PackageDir(insp.Ref, insp.PackageID)
	if err != nil {
		return nil, &Error{Op: "layout", Ref: insp.Ref.String(), Err: err}
	}
	logger := e.logger.With(zap.Stringer("ref", insp.Ref), zap.String("package_id", insp.PackageID[:16]))
	rn := &run{
		recipe: r,
		ref:    insp.Ref,
		insp:   insp,
		logger: logger,
		ctx: &recipe.Context{
			Settings: in.Settings,
			Options:  opts,
			Conf:     in.Conf,
			Folders:  recipe.Folders{Root: root, Package: pkgDir},
			Project:  &recipe.Project{DirFS: os.DirFS(root)},
			Logger:   logger,
			Stdout:   e.stdout,
			Stderr:   e.stderr,
			Ctx:      ctx,
			Run:      e.run,
		},
	}
	logger.Info("configured", zap.Any("settings", in.Settings), zap.Any("options", insp.Options))

	err = rn.step("resolve", func() error {
		deps, err := e.resolve(insp.Requirements, recipe.MatrixOf(in.Settings, nil).SettingsKey())
		rn.ctx.Dependencies = deps
		return err
	})
	if err != nil {
		return nil, err
	}
	r.Layout(rn.ctx)
	if err := rn.step("generate", func() error { return r.Generate(rn.ctx) }); err != nil {
		return nil, err
	}
	return rn, nil
}

// Install resolves the dependencies of the recipe in srcDir and generates
// the build files, without building.
func (e *Engine) Install(ctx context.Context, r recipe.Recipe, srcDir string, in Input) (*recipe.Context, error) {
	root, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, err
	}
	rn, err := e.prepare(ctx, r, root, in)
	if err != nil {
		return nil, err
	}
	return rn.ctx, nil
}

// Build runs Install and builds the recipe in place. An editable package
// is installed by its Build hook; it is then registered in the cache so
// that consumers resolve to it.
func (e *Engine) Build(ctx context.Context, r recipe.Recipe, srcDir string, in Input) (*recipe.Context, error) {
	root, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, err
	}
	rn, err := e.prepare(ctx, r, root, in)
	if err != nil {
		return nil, err
	}
	if err := rn.step("build", func() error { return r.Build(rn.ctx) }); err != nil {
		return nil, err
	}
	if rn.ctx.Options.Bool("editable") {
		if err := rn.step("register", func() error { return e.register(rn) }); err != nil {
			return nil, err
		}
	}
	return rn.ctx, nil
}

// Result is the outcome of Create.
type Result struct {
	Dir      string
	Manifest *cache.Manifest
}

// Create exports the sources of the recipe in srcDir into a fresh
// workspace, builds and packages it, and registers the package in the
// cache.
func (e *Engine) Create(ctx context.Context, r recipe.Recipe, srcDir string, in Input) (*Result, error) {
	meta := r.Metadata()
	ref := meta.Ref()
	if err := module.CheckPath(ref.Path); err != nil {
		return nil, &Error{Op: "export", Ref: ref.String(), Err: err}
	}
	if err := module.CheckVersion(ref.Version); err != nil {
		return nil, &Error{Op: "export", Ref: ref.String(), Err: err}
	}

	root, err := os.MkdirTemp("", fmt.Sprintf("rslpkg-build-%s-%s-*", ref.Path, ref.Version))
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(root)

	src := &recipe.Project{DirFS: os.DirFS(srcDir)}
	files, err := src.Export(root, meta.ExportsSources...)
	if err != nil {
		return nil, &Error{Op: "export", Ref: ref.String(), Err: err}
	}
	e.logger.Info("export", zap.Stringer("ref", ref), zap.Int("files", len(files)))

	rn, err := e.prepare(ctx, r, root, in)
	if err != nil {
		return nil, err
	}
	// Every create starts from an empty package folder.
	if err := os.RemoveAll(rn.ctx.Folders.Package); err != nil {
		return nil, err
	}
	if err := rn.step("build", func() error { return r.Build(rn.ctx) }); err != nil {
		return nil, err
	}
	if err := rn.step("package", func() error { return r.Package(rn.ctx) }); err != nil {
		return nil, err
	}
	var m *cache.Manifest
	err = rn.step("register", func() error {
		m = e.manifest(r, rn.ctx, rn.insp)
		return e.cache.Register(m, rn.ctx.Folders.Package)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Dir: rn.ctx.Folders.Package, Manifest: m}, nil
}

func (e *Engine) register(rn *run) error {
	return e.cache.Register(e.manifest(rn.recipe, rn.ctx, rn.insp), rn.ctx.Folders.Package)
}
