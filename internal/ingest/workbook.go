package ingest

import (
	apperrors "statement-reconciliation-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// readWorkbookRows reads the first sheet of a spreadsheet workbook into
// raw rows. Date cells that excelize returns as raw serial numbers are
// handled downstream by ParseCellDate.
func readWorkbookRows(path string) ([][]string, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileUnreadable, path, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, nil)
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileCorrupted, path, err)
	}

	return rows, nil
}
