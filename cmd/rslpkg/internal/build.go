package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [src]",
	Short: "Build a recipe in its source directory",
	Long: `Build runs install and builds the recipe in place. With the option
editable=True the package is installed right after building and registered
in the local cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, err := s.engine.Build(cmd.Context(), s.recipe, sourceDir(args), s.input)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ctx.Folders.BuildDir())
	return nil
}
