package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"statement-reconciliation-service/internal/recon"
)

var (
	startDate    string
	endDate      string
	statusFilter string
	outputFormat string
)

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the account's reconciliation position",
	Long: `Summary counts the account's statement lines per reconciliation status
and totals the debit and credit columns, optionally over a date range.

Examples:
  reconciler summary --account 6f1c...
  reconciler summary --account 6f1c... --start-date 2025-07-01 --end-date 2025-07-31
  reconciler summary --account 6f1c... --output-format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runSummary)
	},
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List statement lines",
	Long: `List prints the account's statement lines newest first, filtered by
reconciliation status. Besides the four statuses, the filter accepts
"all" and "unlinked" (lines still needing attention).

Examples:
  reconciler list --account 6f1c... --status unlinked
  reconciler list --account 6f1c... --status needs_review --output-format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runList)
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(listCmd)

	for _, c := range []*cobra.Command{summaryCmd, listCmd} {
		c.Flags().StringVarP(&accountFlag, "account", "A", "", "bank account ID (required)")
		c.Flags().StringVar(&startDate, "start-date", "", "filter start date (YYYY-MM-DD)")
		c.Flags().StringVar(&endDate, "end-date", "", "filter end date (YYYY-MM-DD)")
		c.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json")
		c.MarkFlagRequired("account")
	}
	listCmd.Flags().StringVarP(&statusFilter, "status", "s", "all", "status filter: all, unlinked, unmatched, needs_review, matched, recorded")
}

// parseDateRange parses the optional --start-date/--end-date flags.
func parseDateRange() (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if startDate != "" {
		t, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		from = &t
	}
	if endDate != "" {
		t, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}
	return from, to, nil
}

func runSummary() error {
	accountID, err := parseAccountFlag()
	if err != nil {
		return err
	}
	from, to, err := parseDateRange()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	summary, err := recon.NewController(st).Summarize(context.Background(), accountID, from, to)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("Statement lines: %d\n", summary.TotalLines)
	fmt.Printf("  unmatched:     %d\n", summary.Unmatched)
	fmt.Printf("  needs review:  %d\n", summary.NeedsReview)
	fmt.Printf("  matched:       %d\n", summary.Matched)
	fmt.Printf("  recorded:      %d\n", summary.Recorded)
	fmt.Printf("Totals: debit %s, credit %s\n", summary.TotalDebit, summary.TotalCredit)
	fmt.Printf("Unlinked: %d lines, debit %s, credit %s\n",
		summary.Unlinked, summary.UnlinkedDebit, summary.UnlinkedCredit)
	fmt.Printf("Progress: %.1f%%\n", summary.Progress()*100)
	return nil
}

func runList() error {
	accountID, err := parseAccountFlag()
	if err != nil {
		return err
	}
	from, to, err := parseDateRange()
	if err != nil {
		return err
	}
	filter, err := recon.ParseStatusFilter(statusFilter)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	lines, err := recon.NewController(st).FilterLines(context.Background(), accountID, filter, from, to)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(lines)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tDESCRIPTION\tDEBIT\tCREDIT\tSTATUS\tENTRY")
	for _, line := range lines {
		entry := "-"
		if line.MatchedEntryID != nil {
			entry = line.MatchedEntryID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			line.ID,
			line.TransactionDate.Format("2006-01-02"),
			truncate(line.Description, 40),
			line.DebitAmount,
			line.CreditAmount,
			line.Status,
			entry,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d lines\n", len(lines))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
