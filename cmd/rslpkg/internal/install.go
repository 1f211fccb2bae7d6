package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install [src]",
	Short: "Resolve dependencies and generate the build files",
	Long: `Install resolves the dependencies of the recipe from the local cache and
writes the CMake toolchain and dependency files into the generators folder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, err := s.engine.Install(cmd.Context(), s.recipe, sourceDir(args), s.input)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ctx.Folders.GeneratorsDir())
	return nil
}
