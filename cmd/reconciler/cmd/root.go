package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statement-reconciliation-service/cmd/reconciler/config"
	"statement-reconciliation-service/internal/store"
	"statement-reconciliation-service/pkg/logger"
)

var (
	cfgFile     string
	verbose     bool
	sqlitePath  string
	databaseURL string
	accountFlag string

	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Bank statement reconciliation tool",
	Long: `Reconciler imports bank statement exports (CSV or Excel), matches the
statement lines against internal ledger entries with confidence scoring,
and tracks each line through manual confirmation to a settled state.

Examples:
  reconciler import --account 6f1c... --file statements/july.xlsx
  reconciler automatch --account 6f1c...
  reconciler list --account 6f1c... --status unlinked
  reconciler confirm --line 41be...
  reconciler summary --account 6f1c...`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "db", "reconciler.db", "path to the embedded SQLite database")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (overrides --db)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database-url", rootCmd.PersistentFlags().Lookup("database-url"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("RECONCILER")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		logger.SetVerbose()
	}
}

// openStore builds the store from the persistent flags, honoring
// viper overrides from the config file and environment.
func openStore() (store.Store, func() error, error) {
	cfg := &config.StoreConfig{
		SQLitePath:  viper.GetString("db"),
		DatabaseURL: viper.GetString("database-url"),
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = config.DefaultStoreConfig().SQLitePath
	}
	return cfg.OpenStore()
}

// parseAccountFlag parses the --account flag shared by the statement
// commands.
func parseAccountFlag() (uuid.UUID, error) {
	if accountFlag == "" {
		return uuid.Nil, fmt.Errorf("--account is required")
	}
	id, err := uuid.Parse(accountFlag)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid account ID %q: %w", accountFlag, err)
	}
	return id, nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
