package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestComputeHashStability(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	a := NewStatementLine(accountID, date, "Payment ABC", "TRX-1",
		decimal.Zero, mustDecimal(t, "500000"), mustDecimal(t, "1500000"))
	b := NewStatementLine(accountID, date, "Payment ABC", "TRX-1",
		decimal.Zero, mustDecimal(t, "500000"), mustDecimal(t, "1500000"))

	if a.TransactionHash == "" {
		t.Fatal("expected a non-empty transaction hash")
	}
	if a.TransactionHash != b.TransactionHash {
		t.Errorf("identical content produced different hashes: %s vs %s", a.TransactionHash, b.TransactionHash)
	}
	if a.ID == b.ID {
		t.Error("distinct lines must get distinct IDs")
	}
}

func TestComputeHashIgnoresRunningBalance(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	a := NewStatementLine(accountID, date, "Payment ABC", "",
		decimal.Zero, mustDecimal(t, "500000"), mustDecimal(t, "1500000"))
	b := NewStatementLine(accountID, date, "Payment ABC", "",
		decimal.Zero, mustDecimal(t, "500000"), mustDecimal(t, "9999999"))

	// Overlapping exports recompute running balances, so balance must
	// not participate in deduplication.
	if a.TransactionHash != b.TransactionHash {
		t.Error("running balance changed the hash")
	}
}

func TestComputeHashDiscriminates(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)
	base := NewStatementLine(accountID, date, "Payment ABC", "REF",
		decimal.Zero, mustDecimal(t, "500000"), decimal.Zero)

	tests := []struct {
		name string
		line *StatementLine
	}{
		{
			name: "different account",
			line: NewStatementLine(uuid.New(), date, "Payment ABC", "REF",
				decimal.Zero, mustDecimal(t, "500000"), decimal.Zero),
		},
		{
			name: "different date",
			line: NewStatementLine(accountID, date.AddDate(0, 0, 1), "Payment ABC", "REF",
				decimal.Zero, mustDecimal(t, "500000"), decimal.Zero),
		},
		{
			name: "different description",
			line: NewStatementLine(accountID, date, "Payment XYZ", "REF",
				decimal.Zero, mustDecimal(t, "500000"), decimal.Zero),
		},
		{
			name: "different amount",
			line: NewStatementLine(accountID, date, "Payment ABC", "REF",
				decimal.Zero, mustDecimal(t, "500001"), decimal.Zero),
		},
		{
			name: "debit instead of credit",
			line: NewStatementLine(accountID, date, "Payment ABC", "REF",
				mustDecimal(t, "500000"), decimal.Zero, decimal.Zero),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.line.TransactionHash == base.TransactionHash {
				t.Error("expected a different hash")
			}
		})
	}
}

func TestStatementLineAmount(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		debit, credit string
		wantAmount    string
		wantDirection EntryDirection
	}{
		{"credit side", "0", "500000", "500000", DirectionCredit},
		{"debit side", "125000", "0", "125000", DirectionDebit},
		{"both filled prefers debit", "100", "200", "100", DirectionDebit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := NewStatementLine(accountID, date, "x", "",
				mustDecimal(t, tt.debit), mustDecimal(t, tt.credit), decimal.Zero)
			amount, direction := line.Amount()
			if !amount.Equal(mustDecimal(t, tt.wantAmount)) {
				t.Errorf("amount = %s, want %s", amount, tt.wantAmount)
			}
			if direction != tt.wantDirection {
				t.Errorf("direction = %s, want %s", direction, tt.wantDirection)
			}
		})
	}
}

func TestStatementLineValidate(t *testing.T) {
	accountID := uuid.New()
	date := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	valid := NewStatementLine(accountID, date, "Payment", "",
		decimal.Zero, mustDecimal(t, "100"), decimal.Zero)
	if err := valid.Validate(); err != nil {
		t.Errorf("valid line failed validation: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*StatementLine)
	}{
		{"missing account", func(l *StatementLine) { l.BankAccountID = uuid.Nil }},
		{"zero date", func(l *StatementLine) { l.TransactionDate = time.Time{} }},
		{"bad status", func(l *StatementLine) { l.Status = "settled" }},
		{"matched without entry", func(l *StatementLine) { l.Status = StatusMatched }},
		{"review without entry", func(l *StatementLine) { l.Status = StatusNeedsReview }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := NewStatementLine(accountID, date, "Payment", "",
				decimal.Zero, mustDecimal(t, "100"), decimal.Zero)
			tt.mutate(line)
			if err := line.Validate(); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestStatusTransitionsTerminal(t *testing.T) {
	if StatusRecorded.IsTerminal() != true {
		t.Error("recorded must be terminal")
	}
	for _, s := range []ReconciliationStatus{StatusUnmatched, StatusNeedsReview, StatusMatched} {
		if s.IsTerminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", base, base, 0},
		{"one day apart", base, base.AddDate(0, 0, 1), 1},
		{"order independent", base.AddDate(0, 0, 5), base, 5},
		{"time of day ignored", base.Add(23 * time.Hour), base, 0},
		{"month boundary", time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC), time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween = %d, want %d", got, tt.want)
			}
		})
	}
}
