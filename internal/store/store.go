// Package store defines the transaction store contract consumed by the
// reconciliation core, together with three implementations: an
// in-memory store for tests and ephemeral runs, an embedded SQLite
// store for standalone use, and a Postgres store for deployments with a
// hosted database.
//
// All implementations share the same semantics: upserts deduplicate on
// (bank_account_id, transaction_hash) and silently skip duplicates, and
// a status update can never leave a line matched without an entry link.
package store

import (
	"context"
	"time"

	"statement-reconciliation-service/internal/models"
	apperrors "statement-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
)

// Store is the persistence contract for statement lines and the
// internal ledger entries they reconcile against.
type Store interface {
	// UpsertLines inserts statement lines, skipping any whose
	// (bank_account_id, transaction_hash) already exists. Only the lines
	// actually inserted are returned, so callers can report counts.
	UpsertLines(ctx context.Context, lines []*models.StatementLine) ([]*models.StatementLine, error)

	// QueryLines returns an account's statement lines ordered by
	// transaction date descending. Nil bounds leave the range open.
	QueryLines(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*models.StatementLine, error)

	// GetLine fetches a single statement line by ID.
	GetLine(ctx context.Context, lineID uuid.UUID) (*models.StatementLine, error)

	// UpdateLineStatus sets a line's reconciliation status and matched
	// entry link atomically.
	UpdateLineStatus(ctx context.Context, lineID uuid.UUID, status models.ReconciliationStatus, matchedEntryID *uuid.UUID) error

	// CreateEntry persists a new internal ledger entry.
	CreateEntry(ctx context.Context, entry *models.LedgerEntry) error

	// UnreconciledEntries returns an account's ledger entries that have
	// not yet been consumed by a confirmed or auto-accepted match.
	UnreconciledEntries(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error)

	// MarkEntryReconciled flips an entry's reconciled flag.
	MarkEntryReconciled(ctx context.Context, entryID uuid.UUID, reconciled bool) error
}

// validateStatusUpdate enforces the store-level invariant that a line
// is never persisted as matched or needs_review without an entry link.
func validateStatusUpdate(status models.ReconciliationStatus, matchedEntryID *uuid.UUID) error {
	if !status.IsValid() {
		return apperrors.New(apperrors.CategoryValidation, apperrors.CodeInvalidState,
			"unknown reconciliation status: "+status.String())
	}

	if (status == models.StatusMatched || status == models.StatusNeedsReview) && matchedEntryID == nil {
		return apperrors.New(apperrors.CategoryValidation, apperrors.CodeInvalidState,
			"status "+status.String()+" requires a matched entry id")
	}

	return nil
}
