// Package recon hosts the reconciliation workflow around imported
// statement lines: confirming and rejecting matcher suggestions,
// recording off-ledger lines, and summarizing an account's position.
package recon

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/store"
	apperrors "statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// Controller drives manual reconciliation decisions on top of a Store.
type Controller struct {
	store  store.Store
	logger logger.Logger
}

// NewController creates a Controller.
func NewController(st store.Store) *Controller {
	return &Controller{
		store:  st,
		logger: logger.GetGlobalLogger().WithComponent("recon"),
	}
}

// ConfirmMatch accepts a pairing between a statement line and a ledger
// entry, moving the line to matched and consuming the entry.
//
// For a line in review, a nil entryID confirms the parked suggestion.
// An explicit entryID overrides the suggestion, or pairs an unmatched
// line by hand; any previously suggested entry is released first.
// Confirming a line already matched to the same entry is a no-op, so
// the operation is safe to retry.
func (c *Controller) ConfirmMatch(ctx context.Context, lineID uuid.UUID, entryID *uuid.UUID) error {
	line, err := c.store.GetLine(ctx, lineID)
	if err != nil {
		return err
	}

	target := entryID
	if target == nil {
		target = line.MatchedEntryID
	}
	if target == nil {
		return apperrors.New(apperrors.CategoryReconciliation, apperrors.CodeMissingField,
			"no ledger entry to confirm against").
			WithContext("line_id", lineID.String()).
			WithSuggestion("Pass an explicit entry ID, or run auto-match first so the line carries a suggestion")
	}

	switch line.Status {
	case models.StatusMatched:
		if line.MatchedEntryID != nil && *line.MatchedEntryID == *target {
			return nil
		}
		return apperrors.StateError("statement line", string(line.Status), "confirm against a different entry")
	case models.StatusRecorded:
		return apperrors.StateError("statement line", string(line.Status), "confirm")
	}

	// Release a superseded suggestion before claiming the new entry.
	if line.MatchedEntryID != nil && *line.MatchedEntryID != *target {
		if err := c.store.MarkEntryReconciled(ctx, *line.MatchedEntryID, false); err != nil {
			return err
		}
	}

	if err := c.store.UpdateLineStatus(ctx, lineID, models.StatusMatched, target); err != nil {
		return err
	}
	if err := c.store.MarkEntryReconciled(ctx, *target, true); err != nil {
		return err
	}

	c.logger.WithFields(logger.Fields{
		"line_id":  lineID,
		"entry_id": *target,
	}).Info("match confirmed")

	return nil
}

// RejectMatch discards a line's pairing, returning the line to
// unmatched and releasing the linked entry for future passes.
// Rejecting a line that carries no pairing is a no-op.
func (c *Controller) RejectMatch(ctx context.Context, lineID uuid.UUID) error {
	line, err := c.store.GetLine(ctx, lineID)
	if err != nil {
		return err
	}

	if line.Status == models.StatusRecorded {
		return apperrors.StateError("statement line", string(line.Status), "reject")
	}

	if line.Status == models.StatusUnmatched && line.MatchedEntryID == nil {
		return nil
	}

	if line.MatchedEntryID != nil {
		if err := c.store.MarkEntryReconciled(ctx, *line.MatchedEntryID, false); err != nil {
			return err
		}
	}

	if err := c.store.UpdateLineStatus(ctx, lineID, models.StatusUnmatched, nil); err != nil {
		return err
	}

	c.logger.WithField("line_id", lineID).Info("match rejected")
	return nil
}

// RecordLine closes an unmatched line by creating the missing ledger
// entry directly from the line, for bank charges, interest and other
// transactions the ledger never saw. The created entry is born
// reconciled so it never enters the matching pool. Recorded is
// terminal: the line never participates in matching again and cannot
// be reopened.
//
// An empty description inherits the statement line's own.
func (c *Controller) RecordLine(ctx context.Context, lineID uuid.UUID, description string) error {
	line, err := c.store.GetLine(ctx, lineID)
	if err != nil {
		return err
	}

	if line.Status == models.StatusRecorded {
		return nil
	}
	if line.Status != models.StatusUnmatched {
		return apperrors.StateError("statement line", string(line.Status), "record")
	}

	if description == "" {
		description = line.Description
	}
	amount, direction := line.Amount()
	entry := models.NewLedgerEntry(line.BankAccountID, line.TransactionDate, description, amount, direction)
	entry.Reconciled = true
	if err := entry.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryReconciliation, apperrors.CodeInvalidState,
			"statement line cannot be turned into a ledger entry")
	}

	if err := c.store.CreateEntry(ctx, entry); err != nil {
		return err
	}
	if err := c.store.UpdateLineStatus(ctx, lineID, models.StatusRecorded, nil); err != nil {
		return err
	}

	c.logger.WithFields(logger.Fields{
		"line_id":  lineID,
		"entry_id": entry.ID,
	}).Info("line recorded")
	return nil
}

// StatusFilter selects which statement lines a listing returns.
// Besides the four reconciliation statuses it understands "all" and
// "unlinked" (any line without a ledger entry link, regardless of
// status).
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterUnlinked StatusFilter = "unlinked"
)

// ParseStatusFilter validates a user-supplied filter string.
func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(s)
	switch f {
	case FilterAll, FilterUnlinked:
		return f, nil
	}
	if models.ReconciliationStatus(s).IsValid() {
		return f, nil
	}
	return "", apperrors.New(apperrors.CategoryValidation, apperrors.CodeInvalidFormat,
		fmt.Sprintf("unknown status filter %q", s)).
		WithSuggestion("Use all, unlinked, unmatched, needs_review, matched or recorded")
}

func (f StatusFilter) admits(line *models.StatementLine) bool {
	switch f {
	case FilterAll:
		return true
	case FilterUnlinked:
		return line.MatchedEntryID == nil
	default:
		return line.Status == models.ReconciliationStatus(f)
	}
}

// FilterLines returns the account's statement lines admitted by the
// filter, newest first. Nil date bounds leave the range open.
func (c *Controller) FilterLines(ctx context.Context, accountID uuid.UUID, filter StatusFilter, from, to *time.Time) ([]*models.StatementLine, error) {
	lines, err := c.store.QueryLines(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.StatementLine, 0, len(lines))
	for _, line := range lines {
		if filter.admits(line) {
			filtered = append(filtered, line)
		}
	}
	return filtered, nil
}

// Summary aggregates an account's reconciliation position over a date
// range.
type Summary struct {
	TotalLines  int `json:"total_lines"`
	Unmatched   int `json:"unmatched"`
	NeedsReview int `json:"needs_review"`
	Matched     int `json:"matched"`
	Recorded    int `json:"recorded"`

	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`

	// Unlinked counts lines without a ledger entry link, regardless of
	// status; UnlinkedDebit and UnlinkedCredit total their amounts.
	Unlinked       int             `json:"unlinked"`
	UnlinkedDebit  decimal.Decimal `json:"unlinked_debit"`
	UnlinkedCredit decimal.Decimal `json:"unlinked_credit"`
}

// Progress returns the fraction of lines settled (matched or
// recorded), or 1.0 for an empty range.
func (s *Summary) Progress() float64 {
	if s.TotalLines == 0 {
		return 1.0
	}
	return float64(s.Matched+s.Recorded) / float64(s.TotalLines)
}

// Summarize computes the account summary in a single pass over the
// queried lines.
func (c *Controller) Summarize(ctx context.Context, accountID uuid.UUID, from, to *time.Time) (*Summary, error) {
	lines, err := c.store.QueryLines(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
		UnlinkedDebit:  decimal.Zero,
		UnlinkedCredit: decimal.Zero,
	}

	for _, line := range lines {
		summary.TotalLines++
		summary.TotalDebit = summary.TotalDebit.Add(line.DebitAmount)
		summary.TotalCredit = summary.TotalCredit.Add(line.CreditAmount)

		switch line.Status {
		case models.StatusUnmatched:
			summary.Unmatched++
		case models.StatusNeedsReview:
			summary.NeedsReview++
		case models.StatusMatched:
			summary.Matched++
		case models.StatusRecorded:
			summary.Recorded++
		}

		if line.MatchedEntryID == nil {
			summary.Unlinked++
			summary.UnlinkedDebit = summary.UnlinkedDebit.Add(line.DebitAmount)
			summary.UnlinkedCredit = summary.UnlinkedCredit.Add(line.CreditAmount)
		}
	}

	return summary, nil
}
