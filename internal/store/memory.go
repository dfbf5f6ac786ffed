package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"statement-reconciliation-service/internal/models"
	apperrors "statement-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. It is the reference
// implementation of the store contract and the backend used by the test
// suite; SQLite and Postgres must behave identically.
type MemoryStore struct {
	mu      sync.RWMutex
	lines   map[uuid.UUID]*models.StatementLine
	entries map[uuid.UUID]*models.LedgerEntry
	// hashes indexes (accountID, transaction_hash) for dedup.
	hashes map[uuid.UUID]map[string]uuid.UUID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lines:   make(map[uuid.UUID]*models.StatementLine),
		entries: make(map[uuid.UUID]*models.LedgerEntry),
		hashes:  make(map[uuid.UUID]map[string]uuid.UUID),
	}
}

// UpsertLines implements Store.
func (ms *MemoryStore) UpsertLines(ctx context.Context, lines []*models.StatementLine) ([]*models.StatementLine, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var inserted []*models.StatementLine
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeMissingField, "invalid statement line")
		}

		accountHashes, ok := ms.hashes[line.BankAccountID]
		if !ok {
			accountHashes = make(map[string]uuid.UUID)
			ms.hashes[line.BankAccountID] = accountHashes
		}

		if _, exists := accountHashes[line.TransactionHash]; exists {
			continue // duplicate import, silently skipped
		}

		stored := cloneLine(line)
		ms.lines[stored.ID] = stored
		accountHashes[stored.TransactionHash] = stored.ID
		inserted = append(inserted, cloneLine(stored))
	}

	return inserted, nil
}

// QueryLines implements Store.
func (ms *MemoryStore) QueryLines(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*models.StatementLine, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var result []*models.StatementLine
	for _, line := range ms.lines {
		if line.BankAccountID != accountID {
			continue
		}
		if from != nil && line.TransactionDate.Before(models.DateOnly(*from)) {
			continue
		}
		if to != nil && line.TransactionDate.After(models.DateOnly(*to)) {
			continue
		}
		result = append(result, cloneLine(line))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TransactionDate.After(result[j].TransactionDate)
	})

	return result, nil
}

// GetLine implements Store.
func (ms *MemoryStore) GetLine(ctx context.Context, lineID uuid.UUID) (*models.StatementLine, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	line, ok := ms.lines[lineID]
	if !ok {
		return nil, apperrors.NotFoundError("statement line", lineID.String())
	}
	return cloneLine(line), nil
}

// UpdateLineStatus implements Store.
func (ms *MemoryStore) UpdateLineStatus(ctx context.Context, lineID uuid.UUID, status models.ReconciliationStatus, matchedEntryID *uuid.UUID) error {
	if err := validateStatusUpdate(status, matchedEntryID); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	line, ok := ms.lines[lineID]
	if !ok {
		return apperrors.NotFoundError("statement line", lineID.String())
	}

	line.Status = status
	line.MatchedEntryID = copyID(matchedEntryID)
	return nil
}

// CreateEntry implements Store.
func (ms *MemoryStore) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeMissingField, "invalid ledger entry")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *entry
	ms.entries[entry.ID] = &stored
	return nil
}

// UnreconciledEntries implements Store.
func (ms *MemoryStore) UnreconciledEntries(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var result []*models.LedgerEntry
	for _, entry := range ms.entries {
		if entry.BankAccountID != accountID || entry.Reconciled {
			continue
		}
		clone := *entry
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].EntryDate.Equal(result[j].EntryDate) {
			return result[i].EntryDate.Before(result[j].EntryDate)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	return result, nil
}

// MarkEntryReconciled implements Store.
func (ms *MemoryStore) MarkEntryReconciled(ctx context.Context, entryID uuid.UUID, reconciled bool) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, ok := ms.entries[entryID]
	if !ok {
		return apperrors.NotFoundError("ledger entry", entryID.String())
	}

	entry.Reconciled = reconciled
	return nil
}

func cloneLine(line *models.StatementLine) *models.StatementLine {
	clone := *line
	clone.MatchedEntryID = copyID(line.MatchedEntryID)
	return &clone
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	copied := *id
	return &copied
}
