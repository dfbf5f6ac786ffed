// Package ingest turns uploaded bank statement files into normalized
// statement line candidates.
//
// The ingestor is deliberately forgiving: bank exports carry footer and
// summary rows, locale-specific headers, and formatting noise in amount
// cells. Rows whose date cannot be parsed are dropped silently and
// reported only as an aggregate count; a row-level failure never aborts
// the batch.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"statement-reconciliation-service/internal/models"
	"statement-reconciliation-service/pkg/logger"

	"github.com/google/uuid"
)

// Stats summarizes one ingestion run.
type Stats struct {
	RowsRead      int
	LinesProduced int
	RowsSkipped   int
}

// String returns a human-readable summary of the ingestion statistics.
func (s *Stats) String() string {
	return fmt.Sprintf("Read %d rows, produced %d lines, skipped %d rows", s.RowsRead, s.LinesProduced, s.RowsSkipped)
}

// Ingestor parses tabular statement data into StatementLine candidates.
// Candidates come back with StatusUnmatched and their deduplication
// hash computed; persistence is the caller's concern.
type Ingestor struct {
	logger logger.Logger
}

// New creates an Ingestor.
func New() *Ingestor {
	return &Ingestor{
		logger: logger.GetGlobalLogger().WithComponent("ingestor"),
	}
}

// IngestFile reads a statement file and produces line candidates for
// one bank account. The format is picked by extension: .csv is read as
// delimited text, .xlsx as a spreadsheet workbook (first sheet only).
func (ing *Ingestor) IngestFile(accountID uuid.UUID, path string) ([]*models.StatementLine, *Stats, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSVRows(path)
	case ".xlsx", ".xlsm", ".xls":
		rows, err = readWorkbookRows(path)
	default:
		return nil, nil, fmt.Errorf("unsupported statement file format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, nil, err
	}

	lines, stats := ing.IngestRows(accountID, rows)

	ing.logger.WithFields(logger.Fields{
		"file":    path,
		"rows":    stats.RowsRead,
		"lines":   stats.LinesProduced,
		"skipped": stats.RowsSkipped,
		"account": accountID.String(),
	}).Info("Statement file ingested")

	return lines, stats, nil
}

// IngestRows converts raw tabular rows into statement line candidates.
// The first row is treated as the header and used to resolve columns;
// every following row with a parseable date becomes one candidate.
func (ing *Ingestor) IngestRows(accountID uuid.UUID, rows [][]string) ([]*models.StatementLine, *Stats) {
	stats := &Stats{}
	if len(rows) == 0 {
		return nil, stats
	}

	columns := resolveColumns(rows[0])

	var lines []*models.StatementLine
	for _, row := range rows[1:] {
		stats.RowsRead++

		date, err := ParseCellDate(cellAt(row, columns.date))
		if err != nil {
			// Trailing footer and summary rows have no date; dropping
			// them is policy, not an error.
			stats.RowsSkipped++
			ing.logger.WithField("row", stats.RowsRead).Debug("Skipping row without parseable date")
			continue
		}

		line := models.NewStatementLine(
			accountID,
			date,
			cellAt(row, columns.description),
			cellAt(row, columns.reference),
			ParseCellAmount(cellAt(row, columns.debit)),
			ParseCellAmount(cellAt(row, columns.credit)),
			ParseCellAmount(cellAt(row, columns.balance)),
		)
		lines = append(lines, line)
		stats.LinesProduced++
	}

	return lines, stats
}
