package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreman2200/matrixctl/internal/store"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved patterns and animations",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	singles, animations, err := store.List(cfg.PatternsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(singles) == 0 && len(animations) == 0 {
		fmt.Fprintf(out, "no saved patterns in %s\n", cfg.PatternsDir)
		return nil
	}
	if len(singles) > 0 {
		fmt.Fprintln(out, "patterns:")
		for _, n := range singles {
			fmt.Fprintf(out, "  %s\n", n)
		}
	}
	if len(animations) > 0 {
		fmt.Fprintln(out, "animations:")
		for _, n := range animations {
			fmt.Fprintf(out, "  %s\n", n)
		}
	}
	return nil
}
