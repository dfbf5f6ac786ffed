package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"statement-reconciliation-service/internal/models"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   columnMap
	}{
		{
			name:   "english headers",
			header: []string{"Date", "Description", "Reference", "Debit", "Credit", "Balance"},
			want:   columnMap{date: 0, description: 1, reference: 2, debit: 3, credit: 4, balance: 5},
		},
		{
			name:   "indonesian headers",
			header: []string{"Tanggal", "Keterangan", "Referensi", "Keluar", "Masuk", "Saldo"},
			want:   columnMap{date: 0, description: 1, reference: 2, debit: 3, credit: 4, balance: 5},
		},
		{
			name:   "substring and case insensitive",
			header: []string{"TRANSACTION DATE", "uraian transaksi", "No. Ref", "debit (IDR)", "KREDIT (IDR)", "running balance"},
			want:   columnMap{date: 0, description: 1, reference: 2, debit: 3, credit: 4, balance: 5},
		},
		{
			name:   "shuffled order",
			header: []string{"Saldo", "Kredit", "Debit", "Tanggal", "Keterangan"},
			want:   columnMap{date: 3, description: 4, reference: -1, debit: 2, credit: 1, balance: 0},
		},
		{
			name:   "unrecognized falls back to positions",
			header: []string{"a", "b", "c", "d", "e"},
			want:   columnMap{date: 0, description: 1, reference: -1, debit: 2, credit: 3, balance: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveColumns(tt.header); got != tt.want {
				t.Errorf("resolveColumns() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIngestRows(t *testing.T) {
	accountID := uuid.New()
	rows := [][]string{
		{"Tanggal", "Keterangan", "Referensi", "Debit", "Kredit", "Saldo"},
		{"14/07/2025", "Payment ABC Pharma", "TRX-001", "", "500,000", "1,500,000"},
		{"15/07/2025", "Bank admin fee", "", "15,000", "", "1,485,000"},
		{"", "TOTAL", "", "15,000", "500,000", ""},
	}

	ing := New()
	lines, stats := ing.IngestRows(accountID, rows)

	if stats.RowsRead != 3 {
		t.Errorf("RowsRead = %d, want 3", stats.RowsRead)
	}
	if stats.RowsSkipped != 1 {
		t.Errorf("RowsSkipped = %d, want 1", stats.RowsSkipped)
	}
	if stats.LinesProduced != 2 || len(lines) != 2 {
		t.Fatalf("LinesProduced = %d with %d lines, want 2", stats.LinesProduced, len(lines))
	}

	first := lines[0]
	if !first.TransactionDate.Equal(time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first line date = %v", first.TransactionDate)
	}
	if first.Description != "Payment ABC Pharma" {
		t.Errorf("first line description = %q", first.Description)
	}
	if first.Reference != "TRX-001" {
		t.Errorf("first line reference = %q", first.Reference)
	}
	if !first.CreditAmount.Equal(decimal.NewFromInt(500000)) {
		t.Errorf("first line credit = %s", first.CreditAmount)
	}
	if !first.DebitAmount.IsZero() {
		t.Errorf("first line debit = %s, want zero", first.DebitAmount)
	}
	if first.Status != models.StatusUnmatched {
		t.Errorf("first line status = %s, want unmatched", first.Status)
	}
	if first.TransactionHash == "" {
		t.Error("first line missing transaction hash")
	}

	second := lines[1]
	if !second.DebitAmount.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("second line debit = %s", second.DebitAmount)
	}
	if !second.RunningBalance.Equal(decimal.NewFromInt(1485000)) {
		t.Errorf("second line balance = %s", second.RunningBalance)
	}
}

func TestIngestRowsRaggedAndEmpty(t *testing.T) {
	accountID := uuid.New()
	ing := New()

	lines, stats := ing.IngestRows(accountID, nil)
	if len(lines) != 0 || stats.RowsRead != 0 {
		t.Error("empty input should produce nothing")
	}

	// Rows shorter than the header must not panic; missing cells are
	// read as empty.
	rows := [][]string{
		{"Date", "Description", "Debit", "Credit", "Balance"},
		{"14/07/2025", "Short row"},
	}
	lines, _ = ing.IngestRows(accountID, rows)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !lines[0].DebitAmount.IsZero() || !lines[0].CreditAmount.IsZero() {
		t.Error("missing amount cells should be zero")
	}
}

func TestIngestFileCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.csv")
	content := "Date,Description,Reference,Debit,Credit,Balance\n" +
		"14/07/2025,Payment ABC,TRX-001,,500000,1500000\n" +
		"15/07/2025,Admin fee,,15000,,1485000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	accountID := uuid.New()
	lines, stats, err := New().IngestFile(accountID, path)
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if stats.RowsSkipped != 0 {
		t.Errorf("RowsSkipped = %d, want 0", stats.RowsSkipped)
	}
	for _, line := range lines {
		if line.BankAccountID != accountID {
			t.Errorf("line %s has wrong account", line.ID)
		}
	}
}

func TestIngestFileUnsupportedFormat(t *testing.T) {
	_, _, err := New().IngestFile(uuid.New(), "statement.pdf")
	if err == nil {
		t.Error("expected an error for unsupported format")
	}
}

func TestIngestFileMissing(t *testing.T) {
	_, _, err := New().IngestFile(uuid.New(), filepath.Join(t.TempDir(), "absent.csv"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestIngestRowsDeterministicHashes(t *testing.T) {
	accountID := uuid.New()
	rows := [][]string{
		{"Date", "Description", "Reference", "Debit", "Credit", "Balance"},
		{"14/07/2025", "Payment ABC", "TRX-001", "", "500000", "1500000"},
	}

	ing := New()
	a, _ := ing.IngestRows(accountID, rows)
	b, _ := ing.IngestRows(accountID, rows)

	if a[0].TransactionHash != b[0].TransactionHash {
		t.Error("re-ingesting identical rows must reproduce the hash")
	}
}
