package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/blacksmith-cli/blacksmith/internal/ledger"
)

var (
	reportWeek   bool
	reportBy     string
	reportDaily  bool
	reportRecent int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the cost ledger",
}

var ledgerReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show spend totals and breakdowns",
	Long: `Report on recorded invocations.

Examples:
  blacksmith ledger report                # all-time totals
  blacksmith ledger report --week         # last seven days
  blacksmith ledger report --by backend   # grouped by backend
  blacksmith ledger report --by workflow  # grouped by workflow
  blacksmith ledger report --daily        # per-day rollups
  blacksmith ledger report --recent 10    # last ten entries`,
	RunE: runLedgerReport,
}

func init() {
	ledgerReportCmd.Flags().BoolVar(&reportWeek, "week", false, "Limit to the last seven days")
	ledgerReportCmd.Flags().StringVar(&reportBy, "by", "", "Group by backend, workflow, or department")
	ledgerReportCmd.Flags().BoolVar(&reportDaily, "daily", false, "Show per-day rollups")
	ledgerReportCmd.Flags().IntVar(&reportRecent, "recent", 0, "Show the N most recent entries")
	ledgerCmd.AddCommand(ledgerReportCmd)
}

var tableHeaderStyle = lipgloss.NewStyle().Bold(true)

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

func openLedger() (*ledger.Store, error) {
	rt, err := newRuntime()
	if err != nil {
		return nil, err
	}
	if rt.ledger == nil {
		return nil, fmt.Errorf("ledger is disabled in config")
	}
	return rt.ledger, nil
}

func runLedgerReport(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := ledger.ReportOptions{Week: reportWeek}

	switch {
	case reportRecent > 0:
		return printRecent(store, reportRecent)
	case reportDaily:
		return printDaily(store)
	case reportBy != "":
		return printGrouped(store, reportBy, opts)
	default:
		return printTotals(store, opts)
	}
}

func printTotals(store *ledger.Store, opts ledger.ReportOptions) error {
	totals, err := store.Report(opts)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(
		[]string{"Calls", "Prompt Tokens", "Completion Tokens", "Total Cost"},
		[][]string{{
			strconv.Itoa(totals.Calls),
			strconv.Itoa(totals.PromptTokens),
			strconv.Itoa(totals.CompletionTokens),
			fmt.Sprintf("$%.4f", totals.TotalCost),
		}},
	))
	return nil
}

func printGrouped(store *ledger.Store, column string, opts ledger.ReportOptions) error {
	rows, err := store.ReportBy(column, opts)
	if err != nil {
		return err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{row.Key, strconv.Itoa(row.Calls), fmt.Sprintf("$%.4f", row.TotalCost)})
	}
	header := strings.ToUpper(column[:1]) + column[1:]
	fmt.Println(renderTable([]string{header, "Calls", "Total Cost"}, out))
	return nil
}

func printDaily(store *ledger.Store) error {
	rows, err := store.Daily()
	if err != nil {
		return err
	}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, []string{
			row.Date,
			strconv.Itoa(row.TotalTokens),
			fmt.Sprintf("$%.4f", row.TotalCost),
			formatCounts(row.CallsByBackend),
		})
	}
	fmt.Println(renderTable([]string{"Date", "Tokens", "Cost", "Backends"}, out))
	return nil
}

func printRecent(store *ledger.Store, n int) error {
	entries, err := store.Recent(n)
	if err != nil {
		return err
	}
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "failed"
		}
		if e.Escalated {
			status += " (escalated)"
		}
		out = append(out, []string{
			e.CreatedAt.Format("01-02 15:04"),
			e.Command,
			e.Backend + "/" + e.Model,
			fmt.Sprintf("$%.4f", e.EstimatedCost),
			status,
		})
	}
	fmt.Println(renderTable([]string{"When", "Command", "Route", "Cost", "Status"}, out))
	return nil
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
