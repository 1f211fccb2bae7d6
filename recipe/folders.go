package recipe

import "path/filepath"

// Folders is the directory layout of a recipe run. Source, Build and
// Generators are relative to Root and are set by the layout hook.
type Folders struct {
	Root       string
	Source     string
	Build      string
	Generators string

	// Package is the absolute folder the package hook installs into.
	Package string
}

// SourceDir returns the absolute source folder.
func (f *Folders) SourceDir() string {
	return filepath.Join(f.Root, f.Source)
}

// BuildDir returns the absolute build folder.
func (f *Folders) BuildDir() string {
	return filepath.Join(f.Root, f.Build)
}

// GeneratorsDir returns the absolute folder for generated build files.
func (f *Folders) GeneratorsDir() string {
	return filepath.Join(f.Root, f.Generators)
}
