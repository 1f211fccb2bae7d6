package cmake

import (
	"path"

	"github.com/rsl-dev/rslpkg/recipe"
)

// Layout applies the standard CMake folder layout to ctx:
//
//	source:     .
//	build:      build/<build_type>   (single-config generators)
//	            build                (multi-config generators)
//	generators: <build>/generators
func Layout(ctx *recipe.Context) {
	build := "build"
	if !ctx.Settings.IsMultiConfig() && ctx.Settings.BuildType != "" {
		build = path.Join(build, ctx.Settings.BuildType)
	}
	ctx.Folders.Source = "."
	ctx.Folders.Build = build
	ctx.Folders.Generators = path.Join(build, "generators")
}
