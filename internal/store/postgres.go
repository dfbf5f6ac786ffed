package store

import (
	"context"
	"time"

	"statement-reconciliation-service/internal/models"
	apperrors "statement-reconciliation-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// statementLineRow is the gorm mapping for the bank_statement_lines
// table owned by the hosted database.
type statementLineRow struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BankAccountID   uuid.UUID  `gorm:"type:uuid;index;uniqueIndex:idx_account_hash"`
	TransactionDate time.Time  `gorm:"index"`
	Description     string
	Reference       string
	DebitAmount     decimal.Decimal `gorm:"type:numeric"`
	CreditAmount    decimal.Decimal `gorm:"type:numeric"`
	RunningBalance  decimal.Decimal `gorm:"type:numeric"`
	Status          string          `gorm:"column:reconciliation_status;index"`
	MatchedEntryID  *uuid.UUID      `gorm:"type:uuid"`
	Notes           string
	TransactionHash string `gorm:"uniqueIndex:idx_account_hash"`
	CreatedAt       time.Time
}

func (statementLineRow) TableName() string { return "bank_statement_lines" }

// ledgerEntryRow is the gorm mapping for the ledger_entries table.
type ledgerEntryRow struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	BankAccountID uuid.UUID `gorm:"type:uuid;index"`
	EntryDate     time.Time
	Description   string
	Amount        decimal.Decimal `gorm:"type:numeric"`
	Direction     string
	Reconciled    bool `gorm:"index"`
	CreatedAt     time.Time
}

func (ledgerEntryRow) TableName() string { return "ledger_entries" }

// PostgresStore is a Store implementation backed by a hosted Postgres
// database through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to the database at dsn and migrates the
// reconciliation tables.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeStorageUnavailable, "connect database", err)
	}

	if err := db.AutoMigrate(&statementLineRow{}, &ledgerEntryRow{}); err != nil {
		return nil, apperrors.StorageError(apperrors.CodeStorageUnavailable, "migrate schema", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (ps *PostgresStore) Close() error {
	sqlDB, err := ps.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertLines implements Store.
func (ps *PostgresStore) UpsertLines(ctx context.Context, lines []*models.StatementLine) ([]*models.StatementLine, error) {
	var inserted []*models.StatementLine

	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			if err := line.Validate(); err != nil {
				return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeMissingField, "invalid statement line")
			}

			result := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "bank_account_id"}, {Name: "transaction_hash"}},
				DoNothing: true,
			}).Create(lineToRow(line))
			if result.Error != nil {
				return apperrors.StorageError(apperrors.CodeWriteFailed, "upsert lines", result.Error)
			}

			if result.RowsAffected > 0 {
				inserted = append(inserted, line)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return inserted, nil
}

// QueryLines implements Store.
func (ps *PostgresStore) QueryLines(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*models.StatementLine, error) {
	query := ps.db.WithContext(ctx).Where("bank_account_id = ?", accountID)
	if from != nil {
		query = query.Where("transaction_date >= ?", models.DateOnly(*from))
	}
	if to != nil {
		query = query.Where("transaction_date <= ?", models.DateOnly(*to))
	}

	var rows []statementLineRow
	if err := query.Order("transaction_date DESC").Find(&rows).Error; err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "query lines", err)
	}

	result := make([]*models.StatementLine, 0, len(rows))
	for i := range rows {
		result = append(result, rowToLine(&rows[i]))
	}

	return result, nil
}

// GetLine implements Store.
func (ps *PostgresStore) GetLine(ctx context.Context, lineID uuid.UUID) (*models.StatementLine, error) {
	var row statementLineRow
	err := ps.db.WithContext(ctx).First(&row, "id = ?", lineID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.NotFoundError("statement line", lineID.String())
	}
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "get line", err)
	}

	return rowToLine(&row), nil
}

// UpdateLineStatus implements Store.
func (ps *PostgresStore) UpdateLineStatus(ctx context.Context, lineID uuid.UUID, status models.ReconciliationStatus, matchedEntryID *uuid.UUID) error {
	if err := validateStatusUpdate(status, matchedEntryID); err != nil {
		return err
	}

	result := ps.db.WithContext(ctx).Model(&statementLineRow{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"reconciliation_status": status.String(),
			"matched_entry_id":      matchedEntryID,
		})
	if result.Error != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "update line status", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundError("statement line", lineID.String())
	}

	return nil
}

// CreateEntry implements Store.
func (ps *PostgresStore) CreateEntry(ctx context.Context, entry *models.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeMissingField, "invalid ledger entry")
	}

	if err := ps.db.WithContext(ctx).Create(entryToRow(entry)).Error; err != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "create entry", err)
	}

	return nil
}

// UnreconciledEntries implements Store.
func (ps *PostgresStore) UnreconciledEntries(ctx context.Context, accountID uuid.UUID) ([]*models.LedgerEntry, error) {
	var rows []ledgerEntryRow
	err := ps.db.WithContext(ctx).
		Where("bank_account_id = ? AND reconciled = ?", accountID, false).
		Order("entry_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.StorageError(apperrors.CodeQueryFailed, "unreconciled entries", err)
	}

	result := make([]*models.LedgerEntry, 0, len(rows))
	for i := range rows {
		result = append(result, rowToEntry(&rows[i]))
	}

	return result, nil
}

// MarkEntryReconciled implements Store.
func (ps *PostgresStore) MarkEntryReconciled(ctx context.Context, entryID uuid.UUID, reconciled bool) error {
	result := ps.db.WithContext(ctx).Model(&ledgerEntryRow{}).
		Where("id = ?", entryID).
		Update("reconciled", reconciled)
	if result.Error != nil {
		return apperrors.StorageError(apperrors.CodeWriteFailed, "mark entry reconciled", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFoundError("ledger entry", entryID.String())
	}

	return nil
}

func lineToRow(line *models.StatementLine) *statementLineRow {
	return &statementLineRow{
		ID:              line.ID,
		BankAccountID:   line.BankAccountID,
		TransactionDate: line.TransactionDate,
		Description:     line.Description,
		Reference:       line.Reference,
		DebitAmount:     line.DebitAmount,
		CreditAmount:    line.CreditAmount,
		RunningBalance:  line.RunningBalance,
		Status:          line.Status.String(),
		MatchedEntryID:  line.MatchedEntryID,
		Notes:           line.Notes,
		TransactionHash: line.TransactionHash,
		CreatedAt:       line.CreatedAt,
	}
}

func rowToLine(row *statementLineRow) *models.StatementLine {
	return &models.StatementLine{
		ID:              row.ID,
		BankAccountID:   row.BankAccountID,
		TransactionDate: models.DateOnly(row.TransactionDate),
		Description:     row.Description,
		Reference:       row.Reference,
		DebitAmount:     row.DebitAmount,
		CreditAmount:    row.CreditAmount,
		RunningBalance:  row.RunningBalance,
		Status:          models.ReconciliationStatus(row.Status),
		MatchedEntryID:  row.MatchedEntryID,
		Notes:           row.Notes,
		TransactionHash: row.TransactionHash,
		CreatedAt:       row.CreatedAt,
	}
}

func entryToRow(entry *models.LedgerEntry) *ledgerEntryRow {
	return &ledgerEntryRow{
		ID:            entry.ID,
		BankAccountID: entry.BankAccountID,
		EntryDate:     entry.EntryDate,
		Description:   entry.Description,
		Amount:        entry.Amount,
		Direction:     string(entry.Direction),
		Reconciled:    entry.Reconciled,
		CreatedAt:     entry.CreatedAt,
	}
}

func rowToEntry(row *ledgerEntryRow) *models.LedgerEntry {
	return &models.LedgerEntry{
		ID:            row.ID,
		BankAccountID: row.BankAccountID,
		EntryDate:     models.DateOnly(row.EntryDate),
		Description:   row.Description,
		Amount:        row.Amount,
		Direction:     models.EntryDirection(row.Direction),
		Reconciled:    row.Reconciled,
		CreatedAt:     row.CreatedAt,
	}
}
