// Package rsltest is the recipe of the rsl-test C++ unit testing library.
//
// The package exports two components: "test", the library proper, and
// "test_main", which adds a main() entry point driven by rsl-config.
package rsltest

import (
	"github.com/rsl-dev/rslpkg/pkgs/buildsys/cmake"
	"github.com/rsl-dev/rslpkg/recipe"
)

const (
	Name    = "rsl-test"
	Version = "0.1"
)

// Option names.
const (
	OptShared   = "shared"
	OptFPIC     = "fPIC"
	OptCoverage = "coverage"
	OptExamples = "examples"
	OptEditable = "editable"
)

// Recipe builds rsl-test with CMake.
type Recipe struct{}

var _ recipe.Recipe = (*Recipe)(nil)

// New returns the rsl-test recipe.
func New() *Recipe {
	return &Recipe{}
}

func (r *Recipe) Metadata() recipe.Metadata {
	return recipe.Metadata{
		Name:        Name,
		Version:     Version,
		PackageType: recipe.Library,
		Description: "Unit testing library of the rsl project",
		Topics:      []string{"testing", "unit-test", "c++"},
		Settings:    []string{"os", "compiler", "build_type", "arch"},
		Options: []recipe.OptionDef{
			recipe.BoolOption(OptShared, false),
			recipe.BoolOption(OptFPIC, true),
			recipe.BoolOption(OptCoverage, false),
			recipe.BoolOption(OptExamples, false),
			recipe.BoolOption(OptEditable, false),
		},
		ExportsSources: []string{"CMakeLists.txt", "src/*", "include/*", "example/*", "test/*"},
	}
}

func (r *Recipe) ConfigOptions(ctx *recipe.Context) {
	if ctx.Settings.OS == recipe.OSWindows {
		ctx.Options.RmSafe(OptFPIC)
	}
}

func (r *Recipe) Configure(ctx *recipe.Context) {
	if ctx.Options.Bool(OptShared) {
		ctx.Options.RmSafe(OptFPIC)
	}
}

func (r *Recipe) Requirements(ctx *recipe.Context, reqs *recipe.Requirements) {
	reqs.Requires("libassert/2.1.5", recipe.TransitiveHeaders, recipe.TransitiveLibs)
	reqs.Requires("rsl-config/0.1", recipe.TransitiveLibs)
}

func (r *Recipe) Layout(ctx *recipe.Context) {
	cmake.Layout(ctx)
}

func (r *Recipe) Generate(ctx *recipe.Context) error {
	if err := cmake.NewDeps(ctx).Generate(); err != nil {
		return err
	}
	return cmake.NewToolchain(ctx).Generate()
}

func (r *Recipe) Build(ctx *recipe.Context) error {
	cm := cmake.New(ctx)
	for _, dep := range ctx.Dependencies {
		cm.Use(dep)
	}
	cm.DefineBool("ENABLE_COVERAGE", ctx.Options.Bool(OptCoverage)).
		DefineBool("BUILD_EXAMPLES", ctx.Options.Bool(OptExamples)).
		DefineBool("BUILD_TESTING", !ctx.Conf.GetBool(recipe.ConfSkipTest, false))
	if err := cm.Configure(); err != nil {
		return err
	}
	if err := cm.Build(); err != nil {
		return err
	}
	if ctx.Options.Bool(OptEditable) {
		// Editable packages are consumed from the package folder right
		// after building.
		return cm.Install()
	}
	return nil
}

func (r *Recipe) Package(ctx *recipe.Context) error {
	return cmake.New(ctx).Install()
}

func (r *Recipe) PackageInfo(ctx *recipe.Context, info *recipe.CppInfo) {
	test := info.Component("test")
	test.SetProperty(recipe.PropCMakeTargetName, "rsl::test")
	test.IncludeDirs = []string{"include"}
	test.LibDirs = []string{"lib"}
	test.Requires = []string{"libassert::assert"}
	test.Libs = []string{"rsltest"}

	main := info.Component("test_main")
	main.SetProperty(recipe.PropCMakeTargetName, "rsl::test_main")
	main.IncludeDirs = []string{"include"}
	main.LibDirs = []string{"lib"}
	main.Requires = []string{"test", "rsl-config::config"}
	main.Libs = []string{"rsltest_main"}
}
