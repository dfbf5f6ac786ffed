package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"statement-reconciliation-service/internal/recon"
)

var (
	lineFlag       string
	entryFlag      string
	recordDescFlag string
)

// confirmCmd represents the confirm command
var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm a statement line's match",
	Long: `Confirm accepts a statement line's pairing with a ledger entry. A line
in review is confirmed against its parked suggestion; pass --entry to
override the suggestion or to pair an unmatched line by hand.

Examples:
  reconciler confirm --line 41be...
  reconciler confirm --line 41be... --entry 9c20...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runConfirm)
	},
}

// rejectCmd represents the reject command
var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Reject a statement line's match",
	Long: `Reject discards a statement line's pairing, returning the line to
unmatched and releasing the ledger entry for future matching passes.

Example:
  reconciler reject --line 41be...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runReject)
	},
}

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a statement line as a new ledger entry",
	Long: `Record closes an unmatched statement line by creating the missing
ledger entry directly from it, for bank charges, interest and other
transactions the ledger never saw. Recorded lines are settled
permanently and never match again.

Examples:
  reconciler record --line 41be...
  reconciler record --line 41be... --description "Bank admin fee July"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runRecord)
	},
}

func init() {
	rootCmd.AddCommand(confirmCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(recordCmd)

	for _, c := range []*cobra.Command{confirmCmd, rejectCmd, recordCmd} {
		c.Flags().StringVarP(&lineFlag, "line", "l", "", "statement line ID (required)")
		c.MarkFlagRequired("line")
	}
	confirmCmd.Flags().StringVarP(&entryFlag, "entry", "e", "", "ledger entry ID (overrides the parked suggestion)")
	recordCmd.Flags().StringVar(&recordDescFlag, "description", "", "description for the created ledger entry (defaults to the line's)")
}

func parseLineFlag() (uuid.UUID, error) {
	id, err := uuid.Parse(lineFlag)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid line ID %q: %w", lineFlag, err)
	}
	return id, nil
}

func runConfirm() error {
	lineID, err := parseLineFlag()
	if err != nil {
		return err
	}

	var entryID *uuid.UUID
	if entryFlag != "" {
		id, err := uuid.Parse(entryFlag)
		if err != nil {
			return fmt.Errorf("invalid entry ID %q: %w", entryFlag, err)
		}
		entryID = &id
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := recon.NewController(st).ConfirmMatch(context.Background(), lineID, entryID); err != nil {
		return err
	}

	fmt.Printf("Line %s confirmed\n", lineID)
	return nil
}

func runReject() error {
	lineID, err := parseLineFlag()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := recon.NewController(st).RejectMatch(context.Background(), lineID); err != nil {
		return err
	}

	fmt.Printf("Line %s returned to unmatched\n", lineID)
	return nil
}

func runRecord() error {
	lineID, err := parseLineFlag()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := recon.NewController(st).RecordLine(context.Background(), lineID, recordDescFlag); err != nil {
		return err
	}

	fmt.Printf("Line %s recorded\n", lineID)
	return nil
}
