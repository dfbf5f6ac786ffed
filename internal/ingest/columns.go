package ingest

import "strings"

// columnMap holds the resolved column index for each statement field.
// An index of -1 means the column is absent from the input.
type columnMap struct {
	date        int
	description int
	reference   int
	debit       int
	credit      int
	balance     int
}

// headerLabels maps each field to the header substrings that identify
// it. Bank exports in this domain come with either English or
// Indonesian headers, so both vocabularies are recognized.
var headerLabels = map[string][]string{
	"date":        {"date", "tanggal"},
	"description": {"description", "keterangan", "uraian"},
	"reference":   {"reference", "referensi", "ref"},
	"debit":       {"debit", "keluar"},
	"credit":      {"credit", "kredit", "masuk"},
	"balance":     {"balance", "saldo"},
}

// defaultColumns is the positional fallback used when header text
// cannot be recognized: date, description, debit, credit, balance in
// the first five columns, no reference column.
var defaultColumns = columnMap{
	date:        0,
	description: 1,
	reference:   -1,
	debit:       2,
	credit:      3,
	balance:     4,
}

// resolveColumns locates statement fields by case-insensitive substring
// match over the header row. Fields that cannot be identified fall back
// to their positional defaults.
func resolveColumns(header []string) columnMap {
	resolved := columnMap{date: -1, description: -1, reference: -1, debit: -1, credit: -1, balance: -1}

	find := func(field string) int {
		for i, cell := range header {
			lowered := strings.ToLower(strings.TrimSpace(cell))
			if lowered == "" {
				continue
			}
			for _, label := range headerLabels[field] {
				if strings.Contains(lowered, label) {
					return i
				}
			}
		}
		return -1
	}

	resolved.date = find("date")
	resolved.description = find("description")
	resolved.reference = find("reference")
	resolved.debit = find("debit")
	resolved.credit = find("credit")
	resolved.balance = find("balance")

	if resolved.date == -1 {
		resolved.date = defaultColumns.date
	}
	if resolved.description == -1 {
		resolved.description = defaultColumns.description
	}
	if resolved.debit == -1 {
		resolved.debit = defaultColumns.debit
	}
	if resolved.credit == -1 {
		resolved.credit = defaultColumns.credit
	}
	if resolved.balance == -1 {
		resolved.balance = defaultColumns.balance
	}

	return resolved
}

// cellAt returns the trimmed cell value at index, or "" when the index
// is absent or the row is too short. Bank exports frequently have
// ragged trailing columns.
func cellAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
