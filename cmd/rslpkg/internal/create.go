package internal

import (
	"fmt"
	"path/filepath"

	"github.com/rsl-dev/rslpkg/internal/archive"
	"github.com/spf13/cobra"
)

var createOutput string

var createCmd = &cobra.Command{
	Use:   "create [src]",
	Short: "Build a package and add it to the local cache",
	Long: `Create exports the recipe sources into a fresh workspace, builds and
packages them, and registers the package in the local cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVar(&createOutput, "output", "", "Also write the package to a directory, .zip or .tar.xz file")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.engine.Create(cmd.Context(), s.recipe, sourceDir(args), s.input)
	if err != nil {
		return err
	}
	if createOutput != "" {
		dest, err := filepath.Abs(createOutput)
		if err != nil {
			return fmt.Errorf("failed to resolve output path: %w", err)
		}
		if err := archive.Write(res.Dir, dest); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:%s\n%s\n", res.Manifest.Ref, res.Manifest.PackageID, res.Dir)
	return nil
}
