// Package models defines the core data types for bank statement
// reconciliation: imported statement lines, internal ledger entries,
// and the transient match candidates produced by the matcher.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationStatus represents the reconciliation state of a statement line.
type ReconciliationStatus string

const (
	// StatusUnmatched means no candidate was found, or the best candidate
	// scored below the review threshold.
	StatusUnmatched ReconciliationStatus = "unmatched"

	// StatusNeedsReview means a candidate was found with mid-band
	// confidence and is awaiting human confirmation.
	StatusNeedsReview ReconciliationStatus = "needs_review"

	// StatusMatched means the line is paired with an internal ledger
	// entry, either by high-confidence auto-match or by confirmation.
	StatusMatched ReconciliationStatus = "matched"

	// StatusRecorded means a new internal entry was created directly from
	// the statement line. Terminal; the line is never matched again.
	StatusRecorded ReconciliationStatus = "recorded"
)

// String returns the string representation of the status.
func (s ReconciliationStatus) String() string {
	return string(s)
}

// IsValid checks if the status is one of the known values.
func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case StatusUnmatched, StatusNeedsReview, StatusMatched, StatusRecorded:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further matching.
func (s ReconciliationStatus) IsTerminal() bool {
	return s == StatusRecorded
}

// EntryDirection distinguishes money leaving versus entering the account
// on an internal ledger entry.
type EntryDirection string

const (
	DirectionDebit  EntryDirection = "debit"
	DirectionCredit EntryDirection = "credit"
)

// IsValid checks if the direction is valid.
func (d EntryDirection) IsValid() bool {
	return d == DirectionDebit || d == DirectionCredit
}

// BankAccount is immutable reference data describing one bank account.
// Accounts are created and edited by an external admin flow; the
// reconciliation core only reads them.
type BankAccount struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
}

// StatementLine represents one imported bank statement transaction.
//
// A line's (BankAccountID, TransactionHash) pair is unique: re-importing
// the same statement never creates duplicates. Lines are created on
// import with StatusUnmatched and are mutated only through the matcher
// engine and the reconciliation controller.
type StatementLine struct {
	ID              uuid.UUID            `json:"id"`
	BankAccountID   uuid.UUID            `json:"bank_account_id"`
	TransactionDate time.Time            `json:"transaction_date"`
	Description     string               `json:"description"`
	Reference       string               `json:"reference,omitempty"`
	DebitAmount     decimal.Decimal      `json:"debit_amount"`
	CreditAmount    decimal.Decimal      `json:"credit_amount"`
	RunningBalance  decimal.Decimal      `json:"running_balance"`
	Status          ReconciliationStatus `json:"reconciliation_status"`
	MatchedEntryID  *uuid.UUID           `json:"matched_entry_id,omitempty"`
	Notes           string               `json:"notes,omitempty"`
	TransactionHash string               `json:"transaction_hash"`
	CreatedAt       time.Time            `json:"created_at"`
}

// NewStatementLine creates an unmatched statement line with its
// deduplication hash computed from the imported content.
func NewStatementLine(accountID uuid.UUID, date time.Time, description, reference string, debit, credit, balance decimal.Decimal) *StatementLine {
	line := &StatementLine{
		ID:              uuid.New(),
		BankAccountID:   accountID,
		TransactionDate: DateOnly(date),
		Description:     strings.TrimSpace(description),
		Reference:       strings.TrimSpace(reference),
		DebitAmount:     debit,
		CreditAmount:    credit,
		RunningBalance:  balance,
		Status:          StatusUnmatched,
		CreatedAt:       time.Now().UTC(),
	}
	line.TransactionHash = line.ComputeHash()
	return line
}

// ComputeHash returns the deterministic content fingerprint used for
// import deduplication. It covers the owning account, the date, both
// free-text fields and both amount sides; the running balance is
// excluded so that overlapping exports with recomputed balances still
// deduplicate.
func (sl *StatementLine) ComputeHash() string {
	payload := strings.Join([]string{
		sl.BankAccountID.String(),
		sl.TransactionDate.Format("2006-01-02"),
		strings.TrimSpace(sl.Description),
		strings.TrimSpace(sl.Reference),
		sl.DebitAmount.String(),
		sl.CreditAmount.String(),
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Amount returns the line's nonzero side and its direction. A statement
// line normally carries exactly one of debit or credit; if both are set
// the debit side wins, matching how bank exports list charges first.
func (sl *StatementLine) Amount() (decimal.Decimal, EntryDirection) {
	if !sl.DebitAmount.IsZero() {
		return sl.DebitAmount, DirectionDebit
	}
	return sl.CreditAmount, DirectionCredit
}

// Validate performs basic validation on the StatementLine.
func (sl *StatementLine) Validate() error {
	if sl.BankAccountID == uuid.Nil {
		return fmt.Errorf("statement line must belong to a bank account")
	}

	if sl.TransactionDate.IsZero() {
		return fmt.Errorf("statement line date cannot be zero")
	}

	if !sl.Status.IsValid() {
		return fmt.Errorf("invalid reconciliation status: %s", sl.Status)
	}

	if sl.TransactionHash == "" {
		return fmt.Errorf("statement line transaction hash is not set")
	}

	// A line claiming a match must actually reference an entry.
	if (sl.Status == StatusMatched || sl.Status == StatusNeedsReview) && sl.MatchedEntryID == nil {
		return fmt.Errorf("status %s requires a matched entry", sl.Status)
	}

	return nil
}

// String returns a short representation for logs.
func (sl *StatementLine) String() string {
	amount, direction := sl.Amount()
	return fmt.Sprintf("StatementLine{ID: %s, Date: %s, %s: %s, Status: %s}",
		sl.ID, sl.TransactionDate.Format("2006-01-02"), direction, amount.String(), sl.Status)
}

// LedgerEntry represents one unpaid internal ledger entry that a
// statement line can be reconciled against. Reconciled entries are
// excluded from future auto-match passes.
type LedgerEntry struct {
	ID            uuid.UUID       `json:"id"`
	BankAccountID uuid.UUID       `json:"bank_account_id"`
	EntryDate     time.Time       `json:"entry_date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     EntryDirection  `json:"direction"`
	Reconciled    bool            `json:"reconciled"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewLedgerEntry creates an unreconciled ledger entry.
func NewLedgerEntry(accountID uuid.UUID, date time.Time, description string, amount decimal.Decimal, direction EntryDirection) *LedgerEntry {
	return &LedgerEntry{
		ID:            uuid.New(),
		BankAccountID: accountID,
		EntryDate:     DateOnly(date),
		Description:   strings.TrimSpace(description),
		Amount:        amount,
		Direction:     direction,
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate performs basic validation on the LedgerEntry.
func (le *LedgerEntry) Validate() error {
	if le.BankAccountID == uuid.Nil {
		return fmt.Errorf("ledger entry must belong to a bank account")
	}

	if le.EntryDate.IsZero() {
		return fmt.Errorf("ledger entry date cannot be zero")
	}

	if le.Amount.IsNegative() || le.Amount.IsZero() {
		return fmt.Errorf("ledger entry amount must be positive, got %s", le.Amount)
	}

	if !le.Direction.IsValid() {
		return fmt.Errorf("invalid ledger entry direction: %s", le.Direction)
	}

	return nil
}

// MatchCandidate is a transient proposed pairing between a statement
// line and a ledger entry. Candidates are never persisted; the matcher
// builds them per pass, ranks them by confidence, and only the winning
// assignment is written back to the store.
type MatchCandidate struct {
	Line           *StatementLine
	Entry          *LedgerEntry
	Confidence     float64
	AmountDelta    decimal.Decimal
	DateDeltaDays  int
	TextSimilarity float64
}

// String returns a short representation for logs.
func (mc *MatchCandidate) String() string {
	return fmt.Sprintf("MatchCandidate{Line: %s, Entry: %s, Confidence: %.3f, DateDelta: %dd, TextSim: %.2f}",
		mc.Line.ID, mc.Entry.ID, mc.Confidence, mc.DateDeltaDays, mc.TextSimilarity)
}

// DateOnly truncates a timestamp to its date at midnight UTC. Statement
// and ledger dates carry day precision only; comparing anything finer
// would make the day-distance tolerance dependent on timezones.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the absolute distance in whole days between two
// dates, ignoring the time-of-day component.
func DaysBetween(a, b time.Time) int {
	diff := DateOnly(a).Sub(DateOnly(b))
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
