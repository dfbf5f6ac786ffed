package matcher

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/store"
)

var baseDate = time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, st store.Store) *Engine {
	t.Helper()
	engine, err := NewEngine(st, nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func creditLine(accountID uuid.UUID, date time.Time, description, reference string, amount int64) *models.StatementLine {
	return models.NewStatementLine(accountID, date, description, reference,
		decimal.Zero, decimal.NewFromInt(amount), decimal.Zero)
}

func creditEntry(accountID uuid.UUID, date time.Time, description string, amount int64) *models.LedgerEntry {
	return models.NewLedgerEntry(accountID, date, description, decimal.NewFromInt(amount), models.DirectionCredit)
}

func seed(t *testing.T, st store.Store, lines []*models.StatementLine, entries []*models.LedgerEntry) {
	t.Helper()
	ctx := context.Background()
	if len(lines) > 0 {
		if _, err := st.UpsertLines(ctx, lines); err != nil {
			t.Fatalf("seeding lines failed: %v", err)
		}
	}
	for _, entry := range entries {
		if err := st.CreateEntry(ctx, entry); err != nil {
			t.Fatalf("seeding entry failed: %v", err)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"strict preset", func(c *Config) { *c = *StrictConfig() }, false},
		{"relaxed preset", func(c *Config) { *c = *RelaxedConfig() }, false},
		{"negative tolerance", func(c *Config) { c.DateToleranceDays = -1 }, true},
		{"threshold above one", func(c *Config) { c.MatchedThreshold = 1.5 }, true},
		{"review above matched", func(c *Config) { c.ReviewThreshold = 0.9 }, true},
		{"weights not normalized", func(c *Config) { c.Weights.Text = 0.9 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScoreCandidateHardFilters(t *testing.T) {
	accountID := uuid.New()
	engine := newTestEngine(t, store.NewMemoryStore())

	tests := []struct {
		name  string
		line  *models.StatementLine
		entry *models.LedgerEntry
		want  bool
	}{
		{
			name:  "exact pair survives",
			line:  creditLine(accountID, baseDate, "Payment ABC", "", 500000),
			entry: creditEntry(accountID, baseDate, "Payment ABC", 500000),
			want:  true,
		},
		{
			name:  "amount mismatch rejected",
			line:  creditLine(accountID, baseDate, "Payment ABC", "", 500000),
			entry: creditEntry(accountID, baseDate, "Payment ABC", 500001),
			want:  false,
		},
		{
			name:  "seven days is within tolerance",
			line:  creditLine(accountID, baseDate, "Payment ABC", "", 500000),
			entry: creditEntry(accountID, baseDate.AddDate(0, 0, 7), "Payment ABC", 500000),
			want:  true,
		},
		{
			name:  "eight days rejected",
			line:  creditLine(accountID, baseDate, "Payment ABC", "", 500000),
			entry: creditEntry(accountID, baseDate.AddDate(0, 0, 8), "Payment ABC", 500000),
			want:  false,
		},
		{
			name: "direction mismatch rejected",
			line: creditLine(accountID, baseDate, "Payment ABC", "", 500000),
			entry: models.NewLedgerEntry(accountID, baseDate, "Payment ABC",
				decimal.NewFromInt(500000), models.DirectionDebit),
			want: false,
		},
		{
			name: "zero amount line rejected",
			line: models.NewStatementLine(accountID, baseDate, "Payment ABC", "",
				decimal.Zero, decimal.Zero, decimal.Zero),
			entry: creditEntry(accountID, baseDate, "Payment ABC", 500000),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := engine.ScoreCandidate(tt.line, tt.entry)
			if (cand != nil) != tt.want {
				t.Errorf("ScoreCandidate survived = %v, want %v", cand != nil, tt.want)
			}
		})
	}
}

func TestScoreCandidateConfidence(t *testing.T) {
	accountID := uuid.New()
	engine := newTestEngine(t, store.NewMemoryStore())

	tests := []struct {
		name      string
		lineDesc  string
		entryDesc string
		daysApart int
		want      float64
	}{
		// amount 0.5 + date 0.2*(1-d/7) + text 0.3*sim
		{"perfect pair", "Payment ABC", "Payment ABC", 0, 1.0},
		{"same day no text evidence", "Bank fee", "Payment ABC", 0, 0.7},
		{"two days containment", "TRANSFER Payment ABC Pharma", "Payment ABC Pharma", 2, 0.5 + 0.2*(5.0/7.0) + 0.24},
		{"limit of tolerance no text", "Bank fee", "Payment ABC", 7, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := creditLine(accountID, baseDate, tt.lineDesc, "", 500000)
			entry := creditEntry(accountID, baseDate.AddDate(0, 0, tt.daysApart), tt.entryDesc, 500000)
			cand := engine.ScoreCandidate(line, entry)
			if cand == nil {
				t.Fatal("candidate unexpectedly rejected")
			}
			if math.Abs(cand.Confidence-tt.want) > 1e-9 {
				t.Errorf("confidence = %f, want %f", cand.Confidence, tt.want)
			}
		})
	}
}

func TestClassifyBands(t *testing.T) {
	engine := newTestEngine(t, store.NewMemoryStore())

	tests := []struct {
		confidence float64
		want       models.ReconciliationStatus
	}{
		{1.0, models.StatusMatched},
		{0.85, models.StatusMatched},
		{0.8499, models.StatusNeedsReview},
		{0.70, models.StatusNeedsReview},
		{0.6999, models.StatusUnmatched},
		{0.0, models.StatusUnmatched},
	}

	for _, tt := range tests {
		if got := engine.Classify(tt.confidence); got != tt.want {
			t.Errorf("Classify(%f) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestAutoMatchAcceptsHighConfidence(t *testing.T) {
	accountID := uuid.New()
	st := store.NewMemoryStore()
	ctx := context.Background()

	line := creditLine(accountID, baseDate, "Payment ABC", "TRX-1", 500000)
	entry := creditEntry(accountID, baseDate.AddDate(0, 0, 1), "Payment ABC", 500000)
	seed(t, st, []*models.StatementLine{line}, []*models.LedgerEntry{entry})

	engine := newTestEngine(t, st)
	result, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.Matched != 1 || result.Suggested != 0 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 1 matched", result)
	}

	got, err := st.GetLine(ctx, line.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusMatched {
		t.Errorf("line status = %s, want matched", got.Status)
	}
	if got.MatchedEntryID == nil || *got.MatchedEntryID != entry.ID {
		t.Error("line not linked to the entry")
	}

	remaining, err := st.UnreconciledEntries(ctx, accountID)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Error("accepted entry should be reconciled")
	}
}

func TestAutoMatchSuggestsMidBand(t *testing.T) {
	accountID := uuid.New()
	st := store.NewMemoryStore()
	ctx := context.Background()

	// Same day, no text overlap: 0.5 + 0.2 = 0.70, exactly the review
	// threshold.
	line := creditLine(accountID, baseDate, "Setoran tunai", "", 250000)
	entry := creditEntry(accountID, baseDate, "Payment ABC", 250000)
	seed(t, st, []*models.StatementLine{line}, []*models.LedgerEntry{entry})

	engine := newTestEngine(t, st)
	result, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.Suggested != 1 || result.Matched != 0 {
		t.Errorf("result = %+v, want 1 suggested", result)
	}

	got, _ := st.GetLine(ctx, line.ID)
	if got.Status != models.StatusNeedsReview {
		t.Errorf("line status = %s, want needs_review", got.Status)
	}

	// A suggestion does not consume the entry until confirmed.
	remaining, _ := st.UnreconciledEntries(ctx, accountID)
	if len(remaining) != 1 {
		t.Error("suggested entry should stay unreconciled")
	}
}

func TestAutoMatchLeavesLowConfidenceUnmatched(t *testing.T) {
	accountID := uuid.New()
	st := store.NewMemoryStore()
	ctx := context.Background()

	// Seven days out with no text overlap scores 0.5, below the review
	// band; nothing may be persisted.
	line := creditLine(accountID, baseDate, "Setoran tunai", "", 250000)
	entry := creditEntry(accountID, baseDate.AddDate(0, 0, 7), "Payment ABC", 250000)
	seed(t, st, []*models.StatementLine{line}, []*models.LedgerEntry{entry})

	engine := newTestEngine(t, st)
	result, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.Matched != 0 || result.Suggested != 0 {
		t.Errorf("result = %+v, want nothing assigned", result)
	}

	got, _ := st.GetLine(ctx, line.ID)
	if got.Status != models.StatusUnmatched || got.MatchedEntryID != nil {
		t.Error("low-confidence line must stay unmatched and unlinked")
	}
}

func TestAutoMatchNeverDoubleClaims(t *testing.T) {
	accountID := uuid.New()
	st := store.NewMemoryStore()
	ctx := context.Background()

	// Two lines compete for one entry; the closer date wins and the
	// other stays unmatched.
	near := creditLine(accountID, baseDate, "Payment ABC", "TRX-1", 500000)
	far := creditLine(accountID, baseDate.AddDate(0, 0, 3), "Payment ABC", "TRX-2", 500000)
	entry := creditEntry(accountID, baseDate, "Payment ABC", 500000)
	seed(t, st, []*models.StatementLine{near, far}, []*models.LedgerEntry{entry})

	engine := newTestEngine(t, st)
	result, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatalf("AutoMatch failed: %v", err)
	}
	if result.Matched != 1 {
		t.Fatalf("result = %+v, want exactly 1 matched", result)
	}

	gotNear, _ := st.GetLine(ctx, near.ID)
	gotFar, _ := st.GetLine(ctx, far.ID)
	if gotNear.Status != models.StatusMatched {
		t.Errorf("closer line status = %s, want matched", gotNear.Status)
	}
	if gotFar.Status != models.StatusUnmatched {
		t.Errorf("farther line status = %s, want unmatched", gotFar.Status)
	}
}

func TestAutoMatchIdempotent(t *testing.T) {
	accountID := uuid.New()
	st := store.NewMemoryStore()
	ctx := context.Background()

	line := creditLine(accountID, baseDate, "Payment ABC", "", 500000)
	entry := creditEntry(accountID, baseDate, "Payment ABC", 500000)
	seed(t, st, []*models.StatementLine{line}, []*models.LedgerEntry{entry})

	engine := newTestEngine(t, st)
	first, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if first.Matched != 1 {
		t.Fatalf("first pass = %+v, want 1 matched", first)
	}

	second, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if second.Matched != 0 || second.Suggested != 0 {
		t.Errorf("second pass = %+v, want no new assignments", second)
	}
	if second.Skipped != 1 {
		t.Errorf("second pass skipped = %d, want 1", second.Skipped)
	}
}

func TestAutoMatchPreservesReviewSuggestions(t *testing.T) {
	accountID := uuid.New()
	st := store.NewMemoryStore()
	ctx := context.Background()

	line := creditLine(accountID, baseDate, "Setoran tunai", "", 250000)
	entry := creditEntry(accountID, baseDate, "Payment ABC", 250000)
	seed(t, st, []*models.StatementLine{line}, []*models.LedgerEntry{entry})

	engine := newTestEngine(t, st)
	if _, err := engine.AutoMatch(ctx, accountID); err != nil {
		t.Fatal(err)
	}

	before, _ := st.GetLine(ctx, line.ID)
	if before.Status != models.StatusNeedsReview {
		t.Fatalf("setup: line status = %s, want needs_review", before.Status)
	}

	// The suggested entry is still unreconciled, but a re-run must not
	// steal it for another line or churn the pending suggestion.
	rival := creditLine(accountID, baseDate, "Payment ABC", "", 250000)
	seed(t, st, []*models.StatementLine{rival}, nil)

	result, err := engine.AutoMatch(ctx, accountID)
	if err != nil {
		t.Fatal(err)
	}
	if result.Matched != 0 || result.Suggested != 0 {
		t.Errorf("re-run = %+v, want no assignments", result)
	}

	after, _ := st.GetLine(ctx, line.ID)
	if after.Status != models.StatusNeedsReview || after.MatchedEntryID == nil {
		t.Error("pending suggestion was churned by the re-run")
	}
	gotRival, _ := st.GetLine(ctx, rival.ID)
	if gotRival.Status != models.StatusUnmatched {
		t.Errorf("rival line status = %s, want unmatched", gotRival.Status)
	}
}
