package cmake

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rsl-dev/rslpkg/recipe"
)

// ToolchainFile is the name of the generated toolchain file.
const ToolchainFile = "rslpkg_toolchain.cmake"

var toolchainTmpl = template.Must(template.New("toolchain").Parse(`# Generated by rslpkg. Do not edit.
{{- if .BuildType}}
set(CMAKE_BUILD_TYPE "{{.BuildType}}" CACHE STRING "Build type" FORCE)
{{- end}}
{{- if .Shared}}
set(BUILD_SHARED_LIBS {{.Shared}} CACHE BOOL "Build shared libraries" FORCE)
{{- end}}
{{- if .FPIC}}
set(CMAKE_POSITION_INDEPENDENT_CODE {{.FPIC}} CACHE BOOL "Position independent code" FORCE)
{{- end}}
set(CMAKE_FIND_PACKAGE_PREFER_CONFIG ON)
list(PREPEND CMAKE_PREFIX_PATH "{{.Generators}}")
list(PREPEND CMAKE_MODULE_PATH "{{.Generators}}")
`))

// Toolchain writes the CMake toolchain file of a recipe run. It maps the
// build_type setting and the shared and fPIC options, and points CMake at
// the dependency files in the generators folder.
type Toolchain struct {
	ctx *recipe.Context
}

// NewToolchain returns a toolchain generator for ctx.
func NewToolchain(ctx *recipe.Context) *Toolchain {
	return &Toolchain{ctx: ctx}
}

// Generate writes ToolchainFile into the generators folder. Running it
// twice with the same inputs produces the same bytes.
func (t *Toolchain) Generate() error {
	data := struct {
		BuildType  string
		Shared     string
		FPIC       string
		Generators string
	}{
		Generators: cmakePath(t.ctx.Folders.GeneratorsDir()),
	}
	if !t.ctx.Settings.IsMultiConfig() {
		data.BuildType = t.ctx.Settings.BuildType
	}
	if t.ctx.Options.Has("shared") {
		data.Shared = boolValue(t.ctx.Options.Bool("shared"))
	}
	// fPIC only exists where it applies.
	if t.ctx.Options.Has("fPIC") {
		data.FPIC = boolValue(t.ctx.Options.Bool("fPIC"))
	}

	var buf bytes.Buffer
	if err := toolchainTmpl.Execute(&buf, data); err != nil {
		return err
	}
	return writeGenerated(filepath.Join(t.ctx.Folders.GeneratorsDir(), ToolchainFile), buf.Bytes())
}

func writeGenerated(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
