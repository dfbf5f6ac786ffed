package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"statement-reconciliation-service/cmd/reconciler/config"
	"statement-reconciliation-service/internal/matcher"
)

var (
	matchPreset      string
	dateTolerance    int
	matchedThreshold float64
	reviewThreshold  float64
)

// automatchCmd represents the automatch command
var automatchCmd = &cobra.Command{
	Use:   "automatch",
	Short: "Auto-match statement lines against ledger entries",
	Long: `Automatch runs one confidence-scored matching pass over the account's
unmatched statement lines. High-confidence pairs are accepted outright,
mid-band pairs are parked for review, and everything else is left
unmatched. Re-running the pass is safe: settled lines are skipped and
pending review suggestions are never churned.

Examples:
  reconciler automatch --account 6f1c...
  reconciler automatch --account 6f1c... --preset strict
  reconciler automatch --account 6f1c... --date-tolerance 3 --matched-threshold 0.9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runAutomatch)
	},
}

func init() {
	rootCmd.AddCommand(automatchCmd)

	automatchCmd.Flags().StringVarP(&accountFlag, "account", "A", "", "bank account ID (required)")
	automatchCmd.Flags().StringVar(&matchPreset, "preset", "default", "matching preset: default, strict, relaxed")
	automatchCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", -1, "override the date tolerance in days")
	automatchCmd.Flags().Float64Var(&matchedThreshold, "matched-threshold", 0, "override the auto-accept confidence threshold")
	automatchCmd.Flags().Float64Var(&reviewThreshold, "review-threshold", 0, "override the review confidence threshold")
	automatchCmd.MarkFlagRequired("account")
}

func runAutomatch() error {
	accountID, err := parseAccountFlag()
	if err != nil {
		return err
	}

	cfg, err := config.CreateMatcherConfig(matchPreset, dateTolerance, matchedThreshold, reviewThreshold)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := matcher.NewEngine(st, cfg)
	if err != nil {
		return err
	}

	result, err := engine.AutoMatch(context.Background(), accountID)
	if err != nil {
		return err
	}

	fmt.Printf("Matched %d, suggested %d for review, skipped %d settled lines\n",
		result.Matched, result.Suggested, result.Skipped)
	return nil
}
