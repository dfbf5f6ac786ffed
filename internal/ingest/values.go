package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// serialEpoch is the day-zero of spreadsheet serial dates. Spreadsheet
// formats count days from 1899-12-30 (the off-by-two accounts for the
// historical leap-year bug kept for compatibility).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseCellDate parses a statement date cell. Two shapes are accepted:
// a spreadsheet serial number, or a delimited string using '/', '-' or
// '.'. Delimited dates with a 4-digit first segment are read as
// year-month-day; otherwise day-month-year is assumed, which is the
// convention of the bank exports this tool consumes.
func ParseCellDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date cell")
	}

	// Serial number form first: no delimiters, parses as a number.
	if !strings.ContainsAny(value, "/-.") {
		serial, err := strconv.ParseFloat(value, 64)
		if err != nil || serial < 1 {
			return time.Time{}, fmt.Errorf("unrecognized date value '%s'", value)
		}
		return serialEpoch.AddDate(0, 0, int(serial)), nil
	}

	parts := splitDate(value)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("date '%s' does not have three segments", value)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return time.Time{}, fmt.Errorf("date segment '%s' is not numeric", part)
		}
		nums[i] = n
	}

	var year, month, day int
	if len(strings.TrimSpace(parts[0])) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		day, month, year = nums[0], nums[1], nums[2]
		if year < 100 {
			year += 2000
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date '%s' is out of range", value)
	}

	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2); treat that
	// as a parse failure rather than silently shifting the transaction.
	if parsed.Day() != day || parsed.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("date '%s' is not a calendar date", value)
	}

	return parsed, nil
}

func splitDate(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
}

// ParseCellAmount parses a statement amount cell. Everything except
// digits, '.' and '-' is stripped before parsing, so currency symbols
// and thousand-separating commas are tolerated. Empty or unparseable
// cells yield zero; amount columns in bank exports are legitimately
// blank on the side that does not apply.
func ParseCellAmount(value string) decimal.Decimal {
	var cleaned strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			cleaned.WriteRune(r)
		}
	}

	if cleaned.Len() == 0 {
		return decimal.Zero
	}

	amount, err := decimal.NewFromString(cleaned.String())
	if err != nil {
		return decimal.Zero
	}
	return amount
}
