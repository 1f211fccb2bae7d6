package internal

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var inspectAll bool

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the effective options and requirements of a recipe",
	Long: `Inspect prints the effective options, requirements and package id of a
recipe. With --all it lists every distinct option combination instead.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectAll, "all", false, "List every distinct option combination with its package id")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if inspectAll {
		variants, err := s.engine.Variants(s.recipe, s.input.Settings)
		if err != nil {
			return err
		}
		return printJSON(cmd, variants)
	}

	insp, err := s.engine.Inspect(s.recipe, s.input)
	if err != nil {
		return err
	}
	return printJSON(cmd, insp)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
