package engine

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rsl-dev/rslpkg/internal/cache"
	"github.com/rsl-dev/rslpkg/pkgs/buildsys/cmake"
	"github.com/rsl-dev/rslpkg/pkgs/mod/module"
	"github.com/rsl-dev/rslpkg/recipe"
	"github.com/rsl-dev/rslpkg/recipes/rsltest"
)

type call struct {
	name string
	args []string
}

type recorder struct {
	calls []call
	fail  string
}

func (r *recorder) run(name string, args []string, env map[string]string) error {
	r.calls = append(r.calls, call{name: name, args: slices.Clone(args)})
	if r.fail != "" && slices.Contains(args, r.fail) {
		return &exec.ExitError{}
	}
	return nil
}

func (r *recorder) count(flag string) int {
	n := 0
	for _, c := range r.calls {
		if slices.Contains(c.args, flag) {
			n++
		}
	}
	return n
}

var linux = recipe.Settings{OS: recipe.OSLinux, Arch: "x86_64", Compiler: "gcc", BuildType: "Release"}

// seed registers a package in c with the given requirements.
func seed(t *testing.T, c *cache.Cache, settings recipe.Settings, ref string, comp string, reqs ...recipe.Requirement) {
	t.Helper()
	m := &cache.Manifest{
		Ref:      module.MustParse(ref),
		Settings: settings,
		Requires: reqs,
	}
	m.PackageID = cache.PackageID(recipe.MatrixOf(settings, nil))
	c1 := m.CppInfo.Component(comp)
	c1.IncludeDirs = []string{"include"}
	c1.LibDirs = []string{"lib"}
	c1.Libs = []string{comp}
	dir, err := c.PackageDir(m.Ref, m.PackageID)
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"include", "lib"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Register(m, dir); err != nil {
		t.Fatal(err)
	}
}

// seedDeps registers the dependencies of rsl-test: libassert brings
// cpptrace with full visibility, rsl-config brings fmt headers only.
func seedDeps(t *testing.T, c *cache.Cache, settings recipe.Settings) {
	t.Helper()
	seed(t, c, settings, "cpptrace/0.5.0", "cpptrace")
	seed(t, c, settings, "fmt/10.2.1", "fmt")
	seed(t, c, settings, "libassert/2.1.5", "assert",
		recipe.Requirement{Ref: module.MustParse("cpptrace/0.5.0"), TransitiveHeaders: true, TransitiveLibs: true})
	seed(t, c, settings, "rsl-config/0.1", "config",
		recipe.Requirement{Ref: module.MustParse("fmt/10.2.1"), TransitiveHeaders: true})
}

func writeSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"CMakeLists.txt":          "project(rsl-test)\n",
		"src/test.cpp":            "",
		"src/detail/main.cpp":     "",
		"include/rsl/test.hpp":    "",
		"test/basic.cpp":          "",
		"docs/index.md":           "# docs\n",
		"build/Release/stale.txt": "",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newEngine(t *testing.T) (*Engine, *cache.Cache, *recorder) {
	t.Helper()
	c := cache.New(t.TempDir())
	rec := &recorder{}
	e := New(Options{Cache: c, Run: rec.run, Stdout: os.Stderr, Stderr: os.Stderr})
	return e, c, rec
}

func TestInspect(t *testing.T) {
	e, _, _ := newEngine(t)
	tests := []struct {
		name     string
		settings recipe.Settings
		options  map[string]string
		fPIC     bool
	}{
		{"defaults", linux, nil, true},
		{"shared", linux, map[string]string{"shared": "True", "fPIC": "True"}, false},
		{"windows", recipe.Settings{OS: recipe.OSWindows, Arch: "x86_64", Compiler: "msvc", BuildType: "Release"},
			map[string]string{"fPIC": "True"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insp, err := e.Inspect(rsltest.New(), Input{Settings: tt.settings, Options: tt.options})
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := insp.Options["fPIC"]; ok != tt.fPIC {
				t.Errorf("fPIC present = %v, want %v (%v)", ok, tt.fPIC, insp.Options)
			}
			if len(insp.Requirements) != 2 {
				t.Errorf("requirements = %v", insp.Requirements)
			}
			if len(insp.PackageID) != 64 {
				t.Errorf("package id = %q", insp.PackageID)
			}
		})
	}
}

func TestInspectPackageIDChangesWithOptions(t *testing.T) {
	e, _, _ := newEngine(t)
	a, err := e.Inspect(rsltest.New(), Input{Settings: linux})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Inspect(rsltest.New(), Input{Settings: linux, Options: map[string]string{"coverage": "True"}})
	if err != nil {
		t.Fatal(err)
	}
	if a.PackageID == b.PackageID {
		t.Errorf("package id did not change with options: %s", a.PackageID)
	}
	again, _ := e.Inspect(rsltest.New(), Input{Settings: linux})
	if again.PackageID != a.PackageID {
		t.Errorf("package id not stable: %s != %s", again.PackageID, a.PackageID)
	}
}

func TestInspectRejectsUnknownOption(t *testing.T) {
	e, _, _ := newEngine(t)
	_, err := e.Inspect(rsltest.New(), Input{Settings: linux, Options: map[string]string{"lto": "True"}})
	if !errors.Is(err, recipe.ErrUnknownOption) {
		t.Fatalf("err = %v, want ErrUnknownOption", err)
	}
	var stepErr *Error
	if !errors.As(err, &stepErr) || stepErr.Op != "configure" {
		t.Errorf("err = %#v, want configure step error", err)
	}
}

func TestInstallResolvesDependencies(t *testing.T) {
	e, c, rec := newEngine(t)
	seedDeps(t, c, linux)
	src := writeSources(t)

	ctx, err := e.Install(context.Background(), rsltest.New(), src, Input{Settings: linux})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("install ran commands: %v", rec.calls)
	}

	want := map[string][3]bool{ // direct, headers, libs
		"libassert":  {true, true, true},
		"rsl-config": {true, true, true},
		"cpptrace":   {false, true, true},
		"fmt":        {false, true, false},
	}
	if len(ctx.Dependencies) != len(want) {
		t.Fatalf("dependencies = %v", ctx.Dependencies)
	}
	for _, dep := range ctx.Dependencies {
		w, ok := want[dep.Ref.Path]
		if !ok {
			t.Errorf("unexpected dependency %s", dep.Ref)
			continue
		}
		if got := [3]bool{dep.Direct, dep.Headers, dep.Libs}; got != w {
			t.Errorf("%s: direct/headers/libs = %v, want %v", dep.Ref, got, w)
		}
		if dep.CppInfo == nil || len(dep.CppInfo.Components) != 1 {
			t.Errorf("%s: cpp info = %v", dep.Ref, dep.CppInfo)
		}
	}

	gen := ctx.Folders.GeneratorsDir()
	if want := filepath.Join(src, "build", "Release", "generators"); gen != want {
		t.Errorf("generators dir = %s, want %s", gen, want)
	}
	for _, name := range []string{cmake.ToolchainFile, "libassert-config.cmake", "rsl-config-config.cmake"} {
		if _, err := os.Stat(filepath.Join(gen, name)); err != nil {
			t.Errorf("%s not generated: %v", name, err)
		}
	}
}

func TestInstallMissingDependency(t *testing.T) {
	e, c, _ := newEngine(t)
	seed(t, c, linux, "libassert/2.1.5", "assert")

	_, err := e.Install(context.Background(), rsltest.New(), writeSources(t), Input{Settings: linux})
	if !errors.Is(err, ErrDependencyNotFound) {
		t.Fatalf("err = %v, want ErrDependencyNotFound", err)
	}
	var stepErr *Error
	if !errors.As(err, &stepErr) || stepErr.Op != "resolve" || stepErr.Ref != "rsl-test/0.1" {
		t.Errorf("err = %#v", err)
	}
}

func TestInstallDependencyOtherSettings(t *testing.T) {
	e, c, _ := newEngine(t)
	debug := linux
	debug.BuildType = "Debug"
	seedDeps(t, c, debug)

	_, err := e.Install(context.Background(), rsltest.New(), writeSources(t), Input{Settings: linux})
	if !errors.Is(err, ErrDependencyNotFound) {
		t.Fatalf("err = %v, want ErrDependencyNotFound", err)
	}
}

func TestResolveVersionConflict(t *testing.T) {
	e, c, _ := newEngine(t)
	seed(t, c, linux, "fmt/10.2.1", "fmt")
	seed(t, c, linux, "fmt/9.1.0", "fmt")
	seed(t, c, linux, "libassert/2.1.5", "assert",
		recipe.Requirement{Ref: module.MustParse("fmt/10.2.1"), TransitiveLibs: true})
	seed(t, c, linux, "rsl-config/0.1", "config",
		recipe.Requirement{Ref: module.MustParse("fmt/9.1.0"), TransitiveLibs: true})

	_, err := e.Install(context.Background(), rsltest.New(), writeSources(t), Input{Settings: linux})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
	// Versions are reported oldest first by semver precedence.
	if !strings.Contains(err.Error(), "fmt required at 9.1.0 and 10.2.1") {
		t.Errorf("err = %v", err)
	}
}

func TestResolveMergesVisibility(t *testing.T) {
	e, c, _ := newEngine(t)
	seed(t, c, linux, "fmt/10.2.1", "fmt")
	seed(t, c, linux, "libassert/2.1.5", "assert",
		recipe.Requirement{Ref: module.MustParse("fmt/10.2.1"), TransitiveHeaders: true})
	seed(t, c, linux, "rsl-config/0.1", "config",
		recipe.Requirement{Ref: module.MustParse("fmt/10.2.1"), TransitiveLibs: true})

	deps, err := e.resolve([]recipe.Requirement{
		{Ref: module.MustParse("libassert/2.1.5"), TransitiveHeaders: true, TransitiveLibs: true},
		{Ref: module.MustParse("rsl-config/0.1"), TransitiveLibs: true},
	}, recipe.MatrixOf(linux, nil).SettingsKey())
	if err != nil {
		t.Fatal(err)
	}
	if len(deps) != 3 {
		t.Fatalf("deps = %v", deps)
	}
	fmtDep := deps[2]
	if fmtDep.Ref.Path != "fmt" || !fmtDep.Headers || !fmtDep.Libs || fmtDep.Direct {
		t.Errorf("fmt = %+v, want headers and libs visible, not direct", fmtDep)
	}
}

func TestBuild(t *testing.T) {
	e, c, rec := newEngine(t)
	seedDeps(t, c, linux)
	src := writeSources(t)

	if _, err := e.Build(context.Background(), rsltest.New(), src, Input{Settings: linux}); err != nil {
		t.Fatal(err)
	}
	if got := rec.count("--build"); got != 1 {
		t.Errorf("build runs = %d, want 1", got)
	}
	if got := rec.count("--install"); got != 0 {
		t.Errorf("install runs = %d, want 0", got)
	}
	if _, _, err := c.Lookup(module.MustParse("rsl-test/0.1"), recipe.MatrixOf(linux, nil).SettingsKey()); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("non-editable build registered in cache: %v", err)
	}
}

func TestBuildEditableRegisters(t *testing.T) {
	e, c, rec := newEngine(t)
	seedDeps(t, c, linux)
	src := writeSources(t)

	ctx, err := e.Build(context.Background(), rsltest.New(), src, Input{
		Settings: linux,
		Options:  map[string]string{"editable": "True"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.count("--install"); got != 1 {
		t.Errorf("install runs = %d, want 1", got)
	}
	m, dir, err := c.Lookup(module.MustParse("rsl-test/0.1"), recipe.MatrixOf(linux, nil).SettingsKey())
	if err != nil {
		t.Fatal(err)
	}
	if dir != ctx.Folders.Package {
		t.Errorf("registered dir = %s, want %s", dir, ctx.Folders.Package)
	}
	if m.Options["editable"] != recipe.True {
		t.Errorf("manifest options = %v", m.Options)
	}
}

func TestBuildFailure(t *testing.T) {
	e, c, rec := newEngine(t)
	seedDeps(t, c, linux)
	rec.fail = "--build"

	_, err := e.Build(context.Background(), rsltest.New(), writeSources(t), Input{Settings: linux})
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want the cmake exit error", err)
	}
	var stepErr *Error
	if !errors.As(err, &stepErr) || stepErr.Op != "build" {
		t.Errorf("err = %#v, want build step error", err)
	}
}

func TestCreate(t *testing.T) {
	e, c, rec := newEngine(t)
	seedDeps(t, c, linux)
	src := writeSources(t)

	res, err := e.Create(context.Background(), rsltest.New(), src, Input{
		Settings: linux,
		Options:  map[string]string{"shared": "True"},
		Conf:     recipe.Conf{recipe.ConfSkipTest: "True"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.count("--install"); got != 1 {
		t.Errorf("install runs = %d, want 1", got)
	}
	configure := rec.calls[0]
	if !slices.Contains(configure.args, "-DBUILD_TESTING:BOOL=OFF") {
		t.Errorf("configure args = %v", configure.args)
	}
	// Sources are built in a temporary export, not in place.
	src0 := configure.args[slices.Index(configure.args, "-S")+1]
	if src0 == src {
		t.Errorf("configured the source directory in place")
	}

	m := res.Manifest
	if _, ok := m.Options["fPIC"]; ok {
		t.Errorf("shared package kept fPIC: %v", m.Options)
	}
	if got := m.CppInfo.ComponentNames(); !slices.Equal(got, []string{"test", "test_main"}) {
		t.Errorf("components = %v", got)
	}
	if len(m.Requires) != 2 {
		t.Errorf("requires = %v", m.Requires)
	}

	got, dir, err := c.Lookup(m.Ref, m.SettingsKey())
	if err != nil {
		t.Fatal(err)
	}
	if dir != res.Dir || got.PackageID != m.PackageID {
		t.Errorf("lookup = %s %s, want %s %s", dir, got.PackageID, res.Dir, m.PackageID)
	}
	if _, err := os.Stat(filepath.Join(res.Dir, cache.ManifestFile)); err != nil {
		t.Error(err)
	}
}

func TestCreateReplacesPackageFolder(t *testing.T) {
	e, c, _ := newEngine(t)
	seedDeps(t, c, linux)
	src := writeSources(t)

	res, err := e.Create(context.Background(), rsltest.New(), src, Input{Settings: linux})
	if err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(res.Dir, "stale.txt")
	if err := os.WriteFile(stale, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Create(context.Background(), rsltest.New(), src, Input{Settings: linux}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived: %v", err)
	}
}

func TestDescribe(t *testing.T) {
	e, _, _ := newEngine(t)
	m, err := e.Describe(rsltest.New(), Input{Settings: linux})
	if err != nil {
		t.Fatal(err)
	}
	main, ok := m.CppInfo.Lookup("test_main")
	if !ok {
		t.Fatal("missing test_main component")
	}
	if got := main.Property(recipe.PropCMakeTargetName); got != "rsl::test_main" {
		t.Errorf("test_main target = %q", got)
	}
	if m.PackageType != recipe.Library {
		t.Errorf("package type = %q", m.PackageType)
	}
}

func TestVariants(t *testing.T) {
	e, _, _ := newEngine(t)
	windows := recipe.Settings{OS: recipe.OSWindows, Arch: "x86_64", Compiler: "msvc", BuildType: "Release"}
	tests := []struct {
		name     string
		settings recipe.Settings
		want     int
	}{
		// 32 assignments; with shared=True both fPIC values collapse.
		{"linux", linux, 24},
		// fPIC never exists on Windows.
		{"windows", windows, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variants, err := e.Variants(rsltest.New(), tt.settings)
			if err != nil {
				t.Fatal(err)
			}
			if len(variants) != tt.want {
				t.Fatalf("len(variants) = %d, want %d", len(variants), tt.want)
			}
			ids := make(map[string]bool)
			for _, v := range variants {
				if ids[v.PackageID] {
					t.Errorf("duplicate package id %s", v.PackageID)
				}
				ids[v.PackageID] = true
				_, hasFPIC := v.Options["fPIC"]
				if hasFPIC && (tt.settings.OS == recipe.OSWindows || v.Options["shared"] == recipe.True) {
					t.Errorf("variant %s keeps fPIC: %v", v.Combination, v.Options)
				}
				insp, err := e.Inspect(rsltest.New(), Input{Settings: tt.settings, Options: v.Options})
				if err != nil {
					t.Fatal(err)
				}
				if insp.PackageID != v.PackageID {
					t.Errorf("variant %s: package id %s, inspect gives %s", v.Combination, v.PackageID, insp.PackageID)
				}
			}
		})
	}
}
