package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/brain"
	"github.com/blacksmith-cli/blacksmith/internal/config"
)

var brainCmd = &cobra.Command{
	Use:   "brain",
	Short: "List the knowledge notebooks and their health",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := brain.NewStore(config.BrainPath(), config.ExpandHome)
		notebooks, err := store.Notebooks()
		if err != nil {
			return fmt.Errorf("read notebook registry (run `blacksmith init` first): %w", err)
		}

		for _, nb := range notebooks {
			info, err := os.Stat(nb.File)
			switch {
			case err != nil:
				printStatus("⚠", fmt.Sprintf("%-24s missing (%s)", nb.Name, nb.File), color.FgYellow)
			case info.Size() == 0:
				printStatus("✓", fmt.Sprintf("%-24s empty", nb.Name), color.FgHiBlack)
			default:
				printStatus("✓", fmt.Sprintf("%-24s %d bytes", nb.Name, info.Size()), color.FgGreen)
			}
		}
		return nil
	},
}
