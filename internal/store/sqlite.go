package store

import (
	"context"
	"database/sql"
	"time"

	"statement-reconciliation-service/internal/models"
	apperrors "statement-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS bank_statement_lines (
	id TEXT PRIMARY KEY,
	bank_account_id TEXT NOT NULL,
	transaction_date TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	debit_amount TEXT NOT NULL,
	credit_amount TEXT NOT NULL,
	running_balance TEXT NOT NULL,
	reconciliation_status TEXT NOT NULL,
	matched_entry_id TEXT,
	notes TEXT NOT NULL DEFAULT '',
	transaction_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (bank_account_id, transaction_hash)
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id TEXT PRIMARY KEY,
	bank_account_id TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	amount TEXT NOT NULL,
	direction TEXT NOT NULL,
	reconciled INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lines_account_date
	ON bank_statement_lines (bank_account_id, transaction_date);
CREATE INDEX IF NOT EXISTS idx_entries_account_reconciled
	ON ledger_entries (bank_account_id, reconciled);
`

// SQLiteStore is an embedded Store implementation for environments
// without a hosted database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path and
// ensures the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeStorageUnavailable, "open database", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, apperrors.StorageError(apperrors.CodeStorageUnavailable, "create schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

// UpsertLines implements Store.
func (ss *SQLiteStore) UpsertLines(ctx context.Context, lines []*models.StatementLine) ([]*models.StatementLine, error) {
	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeStorageUnavailable, "upsert lines", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bank_statement_lines (
			id, bank_account_id, transaction_date, description, reference,
			debit_amount, credit_amount, running_balance,
			reconciliation_status, matched_entry_id, notes, transaction_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (bank_account_id, transaction_hash) DO NOTHING`)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeWriteFailed, "upsert lines", err)
	}
	defer stmt.Close()

	var inserted []*models.StatementLine
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeMissingField, "invalid statement line")
		}

		result, err := stmt.ExecContext(ctx,
			line.ID.String(),
			line.BankAccountID.String(),
			line.TransactionDate.Format("2006-01-02"),
			line.Description,
			line.Reference,
			line.DebitAmount.String(),
			line.CreditAmount.String(),
			line.RunningBalance.String(),
			line.Status.String(),
			nullableID(line.MatchedEntryID),
			line.Notes,
			line.TransactionHash,
			line.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return nil, apperrors.StorageError(apperrors.CodeWriteFailed, "upsert lines", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return nil, apperrors.StorageError(apperrors.CodeWriteFailed, "upsert lines", err)
		}
		if affected > 0 {
			inserted = append(inserted, line)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeWriteFailed, "upsert lines", err)
	}

	return inserted, nil
}

// QueryLines implements Store.
func (ss *SQLiteStore) QueryLines(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*models.StatementLine, error) {
	query := `
		SELECT id, bank_account_id, transaction_date, description, reference,
			debit_amount, credit_amount, running_balance,
			reconciliation_status, matched_entry_id, notes, transaction_hash, created_at
		FROM bank_statement_lines
		WHERE bank_account_id = ?`
	args := []interface{}{accountID.String()}

	if from != nil {
		query += ` AND transaction_date >= ?`
		args = append(args, models.DateOnly(*from).Format("2006-01-02"))
	}
	if to != nil {
		query += ` AND transaction_date <= ?`
		args = append(args, models.DateOnly(*to).Format("2006-01-02"))
	}
	query += ` ORDER BY transaction_date DESC`

	rows, err := ss.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "query lines", err)
	}
	defer rows.Close()

	var result []*models.StatementLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, line)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "query lines", err)
	}

	return result, nil
}

// GetLine implements Store.
func (ss *SQLiteStore) GetLine(ctx context.Context, lineID uuid.UUID) (*models.StatementLine, error) {
	rows, err := ss.db.QueryContext(ctx, `
		SELECT id, bank_account_id, transaction_date, description, reference,
			debit_amount, credit_amount, running_balance,
			reconciliation_status, matched_entry_id, notes, transaction_hash, created_at
		FROM bank_statement_lines WHERE id = ?`, lineID.String())
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "get line", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, apperrors.NotFoundError("statement line", lineID.String())
	}

	return scanLine(rows)
}

// UpdateLineStatus implements Store.
func (ss *SQLiteStore) UpdateLineStatus(ctx context.Context, lineID uuid.UUID, status models.ReconciliationStatus, matchedEntryID *uuid.UUID) error {
	if err := validateStatusUpdate(status, matchedEntryID); err != nil {
		return err
	}

	result, err := ss.db.ExecContext(ctx, `
		UPDATE bank_statement_lines
		SET reconciliation_status = ?, matched_entry_id = ?
		WHERE id = ?`,
		status.String(), nullableID(matchedEntryID), lineID.String())
	if err != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "update line status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "update line status", err)
	}
	if affected == 0 {
		return apperrors.NotFoundError("statement line", lineID.String())
	}

	return nil
}

// CreateEntry implements Store.
func (ss *SQLiteStore) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeMissingField, "invalid ledger entry")
	}

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, bank_account_id, entry_date, description, amount, direction, reconciled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.BankAccountID.String(),
		entry.EntryDate.Format("2006-01-02"),
		entry.Description,
		entry.Amount.String(),
		string(entry.Direction),
		boolToInt(entry.Reconciled),
		entry.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "create entry", err)
	}

	return nil
}

// UnreconciledEntries implements Store.
func (ss *SQLiteStore) UnreconciledEntries(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error) {
	rows, err := ss.db.QueryContext(ctx, `
		SELECT id, bank_account_id, entry_date, description, amount, direction, reconciled, created_at
		FROM ledger_entries
		WHERE bank_account_id = ? AND reconciled = 0
		ORDER BY entry_date ASC, id ASC`, accountID.String())
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "unreconciled entries", err)
	}
	defer rows.Close()

	var result []*models.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "unreconciled entries", err)
	}

	return result, nil
}

// MarkEntryReconciled implements Store.
func (ss *SQLiteStore) MarkEntryReconciled(ctx context.Context, entryID uuid.UUID, reconciled bool) error {
	result, err := ss.db.ExecContext(ctx,
		`UPDATE ledger_entries SET reconciled = ? WHERE id = ?`,
		boolToInt(reconciled), entryID.String())
	if err != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "mark entry reconciled", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "mark entry reconciled", err)
	}
	if affected == 0 {
		return apperrors.NotFoundError("ledger entry", entryID.String())
	}

	return nil
}

func scanLine(rows *sql.Rows) (*models.StatementLine, error) {
	var (
		line                                   models.StatementLine
		id, accountID, date, status, createdAt string
		debit, credit, balance                 string
		matchedEntryID                         sql.NullString
	)

	if err := rows.Scan(&id, &accountID, &date, &line.Description, &line.Reference,
		&debit, &credit, &balance, &status, &matchedEntryID,
		&line.Notes, &line.TransactionHash, &createdAt); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}

	var err error
	if line.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}
	if line.BankAccountID, err = uuid.Parse(accountID); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}
	if line.TransactionDate, err = time.ParseInLocation("2006-01-02", date, time.UTC); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}
	if line.DebitAmount, err = decimal.NewFromString(debit); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}
	if line.CreditAmount, err = decimal.NewFromString(credit); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}
	if line.RunningBalance, err = decimal.NewFromString(balance); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}
	line.Status = models.ReconciliationStatus(status)
	if matchedEntryID.Valid {
		parsed, err := uuid.Parse(matchedEntryID.String)
		if err != nil {
			return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
		}
		line.MatchedEntryID = &parsed
	}
	if line.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan line", err)
	}

	return &line, nil
}

func scanEntry(rows *sql.Rows) (*models.LedgerEntry, error) {
	var (
		entry                                  models.LedgerEntry
		id, accountID, date, amount, createdAt string
		direction                              string
		reconciled                             int
	)

	if err := rows.Scan(&id, &accountID, &date, &entry.Description, &amount, &direction, &reconciled, &createdAt); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan entry", err)
	}

	var err error
	if entry.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan entry", err)
	}
	if entry.BankAccountID, err = uuid.Parse(accountID); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan entry", err)
	}
	if entry.EntryDate, err = time.ParseInLocation("2006-01-02", date, time.UTC); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan entry", err)
	}
	if entry.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan entry", err)
	}
	entry.Direction = models.EntryDirection(direction)
	entry.Reconciled = reconciled != 0
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "scan entry", err)
	}

	return &entry, nil
}

func nullableID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
