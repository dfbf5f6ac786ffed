package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"statement-reconciliation-service/internal/models"
)

var (
	entryDate        string
	entryDescription string
	entryAmount      string
	entryDirection   string
)

// entryCmd represents the entry command
var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Add an internal ledger entry",
	Long: `Entry records an internal ledger entry for the account, making it
available as a matching candidate for imported statement lines.

Examples:
  reconciler entry --account 6f1c... --date 2025-07-14 --amount 500000 \
    --direction credit --description "Payment ABC"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runEntry)
	},
}

func init() {
	rootCmd.AddCommand(entryCmd)

	entryCmd.Flags().StringVarP(&accountFlag, "account", "A", "", "bank account ID (required)")
	entryCmd.Flags().StringVar(&entryDate, "date", "", "entry date, YYYY-MM-DD (required)")
	entryCmd.Flags().StringVar(&entryDescription, "description", "", "entry description")
	entryCmd.Flags().StringVar(&entryAmount, "amount", "", "entry amount (required)")
	entryCmd.Flags().StringVar(&entryDirection, "direction", "", "debit or credit (required)")
	entryCmd.MarkFlagRequired("account")
	entryCmd.MarkFlagRequired("date")
	entryCmd.MarkFlagRequired("amount")
	entryCmd.MarkFlagRequired("direction")
}

func runEntry() error {
	accountID, err := parseAccountFlag()
	if err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", entryDate)
	if err != nil {
		return fmt.Errorf("invalid entry date %q: %w", entryDate, err)
	}

	amount, err := decimal.NewFromString(entryAmount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", entryAmount, err)
	}

	direction := models.EntryDirection(entryDirection)
	if !direction.IsValid() {
		return fmt.Errorf("invalid direction %q (use debit or credit)", entryDirection)
	}

	entry := models.NewLedgerEntry(accountID, date, entryDescription, amount, direction)
	if err := entry.Validate(); err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := st.CreateEntry(context.Background(), entry); err != nil {
		return err
	}

	fmt.Printf("Entry %s created\n", entry.ID)
	return nil
}
