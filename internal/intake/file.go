package intake

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"addrparser/internal/domain"
)

// ReadFile decodes an imported file into candidate address lines.
//
// Text files (.txt, .csv) are treated exactly like manual input. Spreadsheets
// (.xlsx, .xlsm) contribute every non-blank text cell of the first sheet in
// row-major order; numbers, dates and booleans are skipped and the row/column
// layout is not preserved. maxBytes <= 0 disables the size check.
func ReadFile(name string, r io.Reader, maxBytes int64) ([]string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	switch fileType {
	case domain.FileTypeSpreadsheet:
		return SpreadsheetLines(bytes.NewReader(data))
	default:
		return SplitLines(strings.ToValidUTF8(string(data), "\uFFFD")), nil
	}
}

// SpreadsheetLines flattens the first sheet of an OOXML workbook.
func SpreadsheetLines(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailed, err)
	}

	var cells []string
	for ri, row := range rows {
		for ci, val := range row {
			if strings.TrimSpace(val) == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailed, err)
			}
			typ, err := f.GetCellType(sheet, axis)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrDecodeFailed, err)
			}
			if isTextCell(typ) {
				cells = append(cells, val)
			}
		}
	}
	return SplitLines(strings.Join(cells, "\n")), nil
}

// isTextCell reports whether a cell stores a string value. Formula cells only
// carry the "str" type when their cached result is text.
func isTextCell(t excelize.CellType) bool {
	switch t {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return true
	default:
		return false
	}
}
