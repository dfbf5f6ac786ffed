package ingest

import (
	"encoding/csv"
	"io"
	"os"

	apperrors "statement-reconciliation-service/pkg/errors"
)

// readCSVRows reads a delimited statement export into raw rows.
func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err)
		}
		return nil, apperrors.FileError(apperrors.CodeFileUnreadable, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // bank exports have ragged rows
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
		}
		rows = append(rows, record)
	}

	return rows, nil
}
