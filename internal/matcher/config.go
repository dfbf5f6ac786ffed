// Package matcher implements the confidence-scored auto-matching pass
// that pairs imported bank statement lines with internal ledger entries.
//
// Matching runs in stages:
//  1. Hard filters: exact amount on the line's nonzero side and a
//     bounded day distance. Candidates outside either can never match.
//  2. Scoring: a weighted combination of the date proximity and the
//     description similarity on top of the amount match.
//  3. Global greedy assignment in descending confidence, so a ledger
//     entry is claimed by at most one statement line per pass.
//  4. Banding: high-confidence pairs are accepted outright, mid-band
//     pairs are parked for human review, the rest stay unmatched.
package matcher

import (
	"fmt"
)

// Weights defines the relative contribution of each signal to the
// confidence score. The amount signal is binary after the hard filter,
// so its weight is the floor every surviving candidate starts from.
type Weights struct {
	Amount float64 `json:"amount"`
	Date   float64 `json:"date"`
	Text   float64 `json:"text"`
}

// Validate checks that the weights form a sane convex combination.
func (w *Weights) Validate() error {
	for name, v := range map[string]float64{"amount": w.Amount, "date": w.Date, "text": w.Text} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0, got %f", name, v)
		}
	}

	total := w.Amount + w.Date + w.Text
	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("weights must sum to 1.0, got %f", total)
	}

	return nil
}

// Config holds the matching parameters. The defaults reproduce the
// behavior of the server-side auto_match_smart routine, so the engine
// is a drop-in replacement where no remote procedure is available.
type Config struct {
	// DateToleranceDays is the hard ceiling on the day distance between
	// a statement line and a candidate entry. This is a cutoff, not a
	// penalty: beyond it a pair can never match regardless of the other
	// signals.
	DateToleranceDays int `json:"date_tolerance_days"`

	// MatchedThreshold is the confidence at or above which a pair is
	// accepted without review.
	MatchedThreshold float64 `json:"matched_threshold"`

	// ReviewThreshold is the confidence at or above which a pair is
	// suggested for human review.
	ReviewThreshold float64 `json:"review_threshold"`

	// RequireDirectionMatch restricts candidates to entries whose
	// debit/credit direction agrees with the statement line's side.
	RequireDirectionMatch bool `json:"require_direction_match"`

	Weights Weights `json:"weights"`
}

// DefaultConfig returns the production matching parameters: 7-day
// tolerance, 0.85 auto-accept band, 0.70 review band.
func DefaultConfig() *Config {
	return &Config{
		DateToleranceDays:     7,
		MatchedThreshold:      0.85,
		ReviewThreshold:       0.70,
		RequireDirectionMatch: true,
		Weights: Weights{
			Amount: 0.5,
			Date:   0.2,
			Text:   0.3,
		},
	}
}

// StrictConfig returns parameters that auto-accept only near-certain
// pairs and send everything else to review.
func StrictConfig() *Config {
	return &Config{
		DateToleranceDays:     2,
		MatchedThreshold:      0.95,
		ReviewThreshold:       0.85,
		RequireDirectionMatch: true,
		Weights: Weights{
			Amount: 0.5,
			Date:   0.3,
			Text:   0.2,
		},
	}
}

// RelaxedConfig returns parameters for exploratory matching over
// poorly-labelled statements.
func RelaxedConfig() *Config {
	return &Config{
		DateToleranceDays:     14,
		MatchedThreshold:      0.80,
		ReviewThreshold:       0.55,
		RequireDirectionMatch: false,
		Weights: Weights{
			Amount: 0.6,
			Date:   0.2,
			Text:   0.2,
		},
	}
}

// Validate checks if the matching configuration is valid.
func (c *Config) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}

	if c.MatchedThreshold < 0.0 || c.MatchedThreshold > 1.0 {
		return fmt.Errorf("matched threshold must be between 0.0 and 1.0: %f", c.MatchedThreshold)
	}

	if c.ReviewThreshold < 0.0 || c.ReviewThreshold > 1.0 {
		return fmt.Errorf("review threshold must be between 0.0 and 1.0: %f", c.ReviewThreshold)
	}

	if c.ReviewThreshold > c.MatchedThreshold {
		return fmt.Errorf("review threshold %f cannot exceed matched threshold %f", c.ReviewThreshold, c.MatchedThreshold)
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DateTolerance: %d days, Matched: %.2f, Review: %.2f}",
		c.DateToleranceDays, c.MatchedThreshold, c.ReviewThreshold)
}
