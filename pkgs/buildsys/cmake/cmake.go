// Package cmake drives CMake builds for recipes: cmake_layout, toolchain and
// dependency file generation, and the configure/build/install steps.
package cmake

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rsl-dev/rslpkg/pkgs/buildsys"
	"github.com/rsl-dev/rslpkg/recipe"
)

// Conf keys understood by the CMake helpers.
const (
	ConfProgram   = "tools.cmake:cmake_program"
	ConfGenerator = "tools.cmake.cmaketoolchain:generator"
	ConfJobs      = "tools.build:jobs"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	ctx        *recipe.Context
	program    string
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	multi      bool
	toolchain  string
	defines    map[string]defineValue
	env        map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper for the folders, settings and conf of ctx.
// The toolchain written by Toolchain.Generate is picked up when present.
func New(ctx *recipe.Context) *CMake {
	c := &CMake{
		ctx:        ctx,
		program:    ctx.Conf.Get(ConfProgram, "cmake"),
		sourceDir:  ctx.Folders.SourceDir(),
		buildDir:   ctx.Folders.BuildDir(),
		installDir: ctx.Folders.Package,
		generator:  ctx.Conf.Get(ConfGenerator, ""),
		buildType:  ctx.Settings.BuildType,
		multi:      ctx.Settings.IsMultiConfig(),
		defines:    map[string]defineValue{},
		env:        map[string]string{},
	}
	toolchain := filepath.Join(ctx.Folders.GeneratorsDir(), ToolchainFile)
	if _, err := os.Stat(toolchain); err == nil {
		c.toolchain = toolchain
	}
	return c
}

func (c *CMake) Source(dir string) {
	c.sourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Define adds a -D<key>:STRING=<value> definition.
func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

// DefineBool adds a -D<key>:BOOL=ON/OFF definition.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		c.defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

// Use configures the build environment so that CMake and compilers find
// headers, libraries and pkg-config files of a resolved dependency.
func (c *CMake) Use(dep recipe.Dependency) {
	root := dep.Dir
	includeDir := filepath.Join(root, "include")
	libDir := filepath.Join(root, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	if _, err := os.Stat(pkgconfigDir); err == nil {
		c.prependPath("PKG_CONFIG_PATH", pkgconfigDir)
	}
	c.prependPath("CMAKE_PREFIX_PATH", root)
	if _, err := os.Stat(includeDir); err == nil && dep.Headers {
		c.prependPath("CMAKE_INCLUDE_PATH", includeDir)
	}
	if _, err := os.Stat(libDir); err == nil && dep.Libs {
		c.prependPath("CMAKE_LIBRARY_PATH", libDir)
	}
}

// Configure runs "cmake -S <source> -B <build>" with all configured options.
// Extra args are appended at the end.
func (c *CMake) Configure(args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", filepath.ToSlash(c.installDir))
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", filepath.ToSlash(c.toolchain))
	}
	if c.buildType != "" && !c.multi {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.ctx.Exec(c.program, cmakeArgs, c.env)
}

// Build runs "cmake --build <build>" with optional extra arguments.
func (c *CMake) Build(args ...string) error {
	cmakeArgs := []string{"--build", c.buildDir}
	if c.buildType != "" && c.multi {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	if jobs := c.ctx.Conf.Get(ConfJobs, ""); jobs != "" {
		cmakeArgs = append(cmakeArgs, "--parallel", jobs)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.ctx.Exec(c.program, cmakeArgs, c.env)
}

// Install runs "cmake --install <build>" with optional extra arguments.
func (c *CMake) Install(args ...string) error {
	cmakeArgs := []string{"--install", c.buildDir}
	if c.buildType != "" && c.multi {
		cmakeArgs = append(cmakeArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmakeArgs = append(cmakeArgs, "--prefix", c.installDir)
	}
	cmakeArgs = append(cmakeArgs, args...)
	return c.ctx.Exec(c.program, cmakeArgs, c.env)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		d := c.defines[k]
		args = append(args, "-D"+k+":"+d.typeName+"="+d.value)
	}
	return args
}

// prependPath prepends value to a PATH-style variable of the build
// environment, seeded from the process environment.
func (c *CMake) prependPath(key, value string) {
	cur, ok := c.env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur != "" {
		value += pathListSeparator() + cur
	}
	c.env[key] = value
}

func pathListSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// boolValue renders an option as a CMake boolean.
func boolValue(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func cmakePath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), `"`, `\"`)
}
