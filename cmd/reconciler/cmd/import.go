package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"statement-reconciliation-service/internal/recon"
)

var importFile string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a bank statement file",
	Long: `Import parses a bank statement export (CSV, XLSX, XLSM or XLS) and
stores its transaction lines for the account. Imports are idempotent:
overlapping exports can be re-imported freely, because lines already
seen for the account are detected by content hash and skipped.

Examples:
  reconciler import --account 6f1c... --file statements/july.csv
  reconciler import --account 6f1c... --file statements/august.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return exitWith(runImport)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&accountFlag, "account", "A", "", "bank account ID (required)")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to the statement file (required)")
	importCmd.MarkFlagRequired("account")
	importCmd.MarkFlagRequired("file")
}

func runImport() error {
	accountID, err := parseAccountFlag()
	if err != nil {
		return err
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := recon.NewImportService(st).ImportFile(context.Background(), accountID, importFile)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d lines (%d duplicates, %d rows skipped)\n",
		result.Imported, result.Duplicates, result.Skipped)
	return nil
}
