package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	apperrors "statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// CLIErrorHandler turns internal errors into actionable terminal
// output and the matching process exit code.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.GetGlobalLogger().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints the error for a human and returns the exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if appErr, ok := apperrors.AsError(err); ok {
		return h.handleAppError(appErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if h.verbose {
		fmt.Fprintf(os.Stderr, "\nRun with --verbose for more details\n")
	}
	return 1
}

func (h *CLIErrorHandler) handleAppError(err *apperrors.Error) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.ExitCode()
}

// exitWith runs fn and exits the process with the handled code on
// failure. Subcommands use it so cobra's own error printing is not
// duplicated.
func exitWith(fn func() error) error {
	if err := fn(); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}
