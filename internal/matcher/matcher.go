package matcher

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/internal/store"
	apperrors "statement-reconciliation-service/pkg/errors"
	"statement-reconciliation-service/pkg/logger"
)

// Result summarizes one auto-matching pass over an account.
type Result struct {
	// Matched counts lines auto-accepted at or above the matched
	// threshold in this pass.
	Matched int `json:"matched"`

	// Suggested counts lines parked for review in the mid band.
	Suggested int `json:"suggested"`

	// Skipped counts lines that were already matched or recorded and
	// therefore not considered.
	Skipped int `json:"skipped"`
}

// Engine runs the auto-matching pass against a Store. It is the local
// equivalent of the server-side auto_match_smart routine, for
// deployments where no such procedure exists.
type Engine struct {
	store  store.Store
	config *Config
	logger logger.Logger
}

// NewEngine creates an Engine. A nil config falls back to the
// production defaults.
func NewEngine(st store.Store, config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryValidation, apperrors.CodeInvalidFormat, "invalid matcher configuration")
	}

	return &Engine{
		store:  st,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}, nil
}

// AutoMatch runs one matching pass over the account's statement lines.
//
// Only unmatched lines participate. Lines already matched or recorded
// are skipped and counted; lines parked in review keep their pending
// suggestion untouched, so repeated passes never churn human queues.
// Ledger entries already linked by any line are off the table, which
// makes the pass idempotent: re-running it on the same data is a no-op.
func (e *Engine) AutoMatch(ctx context.Context, accountID uuid.UUID) (*Result, error) {
	lines, err := e.store.QueryLines(ctx, accountID, nil, nil)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.UnreconciledEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	claimed := make(map[uuid.UUID]bool)
	for _, line := range lines {
		if line.MatchedEntryID != nil {
			claimed[*line.MatchedEntryID] = true
		}
	}

	pool := make([]*models.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if !claimed[entry.ID] {
			pool = append(pool, entry)
		}
	}

	var open []*models.StatementLine
	for _, line := range lines {
		switch line.Status {
		case models.StatusUnmatched:
			open = append(open, line)
		case models.StatusMatched, models.StatusRecorded:
			result.Skipped++
		}
	}

	e.logger.WithFields(logger.Fields{
		"account_id":   accountID,
		"open_lines":   len(open),
		"pool_entries": len(pool),
	}).Debug("starting auto-match pass")

	candidates := e.buildCandidates(open, pool)

	// Highest confidence claims first. Ties break toward the closer
	// date, then the smaller entry ID, so a pass is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if candidates[i].DateDeltaDays != candidates[j].DateDeltaDays {
			return candidates[i].DateDeltaDays < candidates[j].DateDeltaDays
		}
		return candidates[i].Entry.ID.String() < candidates[j].Entry.ID.String()
	})

	assignedLines := make(map[uuid.UUID]bool)
	for _, cand := range candidates {
		if assignedLines[cand.Line.ID] || claimed[cand.Entry.ID] {
			continue
		}

		status := e.Classify(cand.Confidence)
		if status == models.StatusUnmatched {
			// Below the review band nothing is persisted and the entry
			// stays available for other lines.
			continue
		}
		assignedLines[cand.Line.ID] = true
		claimed[cand.Entry.ID] = true

		entryID := cand.Entry.ID
		if err := e.store.UpdateLineStatus(ctx, cand.Line.ID, status, &entryID); err != nil {
			return nil, err
		}

		if status == models.StatusMatched {
			if err := e.store.MarkEntryReconciled(ctx, entryID, true); err != nil {
				return nil, err
			}
			result.Matched++
		} else {
			result.Suggested++
		}

		e.logger.WithFields(logger.Fields{
			"line_id":    cand.Line.ID,
			"entry_id":   entryID,
			"confidence": cand.Confidence,
			"status":     status,
		}).Debug("candidate assigned")
	}

	e.logger.WithFields(logger.Fields{
		"account_id": accountID,
		"matched":    result.Matched,
		"suggested":  result.Suggested,
		"skipped":    result.Skipped,
	}).Info("auto-match pass complete")

	return result, nil
}

// buildCandidates pairs every open line with every pool entry that
// survives the hard filters and scores the pair.
func (e *Engine) buildCandidates(lines []*models.StatementLine, pool []*models.LedgerEntry) []*models.MatchCandidate {
	var candidates []*models.MatchCandidate
	for _, line := range lines {
		for _, entry := range pool {
			if cand := e.ScoreCandidate(line, entry); cand != nil {
				candidates = append(candidates, cand)
			}
		}
	}
	return candidates
}

// ScoreCandidate applies the hard filters and, if the pair survives,
// computes its confidence. Returns nil when the pair can never match.
func (e *Engine) ScoreCandidate(line *models.StatementLine, entry *models.LedgerEntry) *models.MatchCandidate {
	amount, direction := line.Amount()
	if amount.IsZero() {
		return nil
	}
	if !amount.Equal(entry.Amount) {
		return nil
	}
	if e.config.RequireDirectionMatch && direction != entry.Direction {
		return nil
	}

	days := models.DaysBetween(line.TransactionDate, entry.EntryDate)
	if days > e.config.DateToleranceDays {
		return nil
	}

	dateScore := 1.0
	if e.config.DateToleranceDays > 0 {
		dateScore = 1.0 - float64(days)/float64(e.config.DateToleranceDays)
	}

	textScore := DescriptionSimilarity(line.Description, entry.Description)

	w := e.config.Weights
	confidence := w.Amount + w.Date*dateScore + w.Text*textScore

	return &models.MatchCandidate{
		Line:           line,
		Entry:          entry,
		Confidence:     confidence,
		AmountDelta:    amount.Sub(entry.Amount),
		DateDeltaDays:  days,
		TextSimilarity: textScore,
	}
}

// Classify maps a confidence score to the status band it lands in.
func (e *Engine) Classify(confidence float64) models.ReconciliationStatus {
	switch {
	case confidence >= e.config.MatchedThreshold:
		return models.StatusMatched
	case confidence >= e.config.ReviewThreshold:
		return models.StatusNeedsReview
	default:
		return models.StatusUnmatched
	}
}
