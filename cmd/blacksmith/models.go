package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/config"
	"github.com/blacksmith-cli/blacksmith/internal/registry"
)

var compareUseCase string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model-capability registry",
}

var modelsCompareCmd = &cobra.Command{
	Use:   "compare <left> <right>",
	Short: "Score two registry models against each other",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(config.RegistryPath())
		result, err := reg.Compare(args[0], args[1], compareUseCase)
		if err != nil {
			return err
		}

		printScored(result.Left)
		printScored(result.Right)
		if result.UseCase != "" {
			fmt.Printf("Use case: %s\n", result.UseCase)
		}
		if result.Winner == "tie" {
			fmt.Println(color.YellowString("Result: tie"))
		} else {
			fmt.Println(color.GreenString("Winner: %s", result.Winner))
		}
		return nil
	},
}

func printScored(m registry.ScoredModel) {
	pricing := "free"
	if m.Entry.Cost != nil && (m.Entry.Cost.InputPer1M > 0 || m.Entry.Cost.OutputPer1M > 0) {
		pricing = fmt.Sprintf("$%.2f/$%.2f per 1M", m.Entry.Cost.InputPer1M, m.Entry.Cost.OutputPer1M)
	}
	fmt.Printf("%-24s score %d  %s  %s\n", m.ID, m.Score, m.Entry.Speed, pricing)
	if len(m.Entry.BestFor) > 0 {
		fmt.Printf("%-24s best for: %s\n", "", strings.Join(m.Entry.BestFor, ", "))
	}
}

func init() {
	modelsCompareCmd.Flags().StringVar(&compareUseCase, "use-case", "", "Weight the comparison toward a use case (e.g. coding)")
	modelsCmd.AddCommand(modelsCompareCmd)
}
