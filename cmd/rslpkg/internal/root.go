package internal

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rslpkg",
	Short: "rslpkg builds and packages the rsl C++ libraries",
	Long: `rslpkg runs package recipes: it resolves options and dependencies,
drives CMake and records the built packages in a local cache.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagOptions  []string
	flagSettings []string
	flagConf     []string
	flagProfile  string
	flagRecipe   string
	flagVerbose  bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&flagOptions, "options", "o", nil, "Option value as key=value, optionally scoped as pkg:key=value")
	pf.StringArrayVarP(&flagSettings, "settings", "s", nil, "Setting value as key=value")
	pf.StringArrayVarP(&flagConf, "conf", "c", nil, "Conf value as key=value")
	pf.StringVarP(&flagProfile, "profile", "p", "", "Profile file (YAML)")
	pf.StringVarP(&flagRecipe, "recipe", "r", defaultRecipe, "Recipe to run")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose build output")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Fatal(err)
	}
}
