package xlsxexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"addrparser/internal/domain"
)

// ContentType is the MIME type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Column widths in characters, keyed by header.
var columnWidths = map[string]float64{
	"STT":               6,
	"Mã NV":             10,
	"Tên nhân viên":     28,
	"Địa chỉ gốc":       60,
	"Địa chỉ chuẩn hóa": 60,
	"Phường/Xã":         22,
	"Quận/Huyện":        22,
	"Tỉnh/Thành phố":    22,
	"Mức độ thành công": 18,
}

// Write renders rows as a single-sheet workbook to w. It returns
// domain.ErrNothingToExport when rows is empty and writes nothing.
func Write(w io.Writer, kind domain.SessionKind, rows []Row) error {
	if len(rows) == 0 {
		return domain.ErrNothingToExport
	}
	layout := LayoutFor(kind)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), layout.SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	sheet := layout.SheetName

	if err := f.SetSheetRow(sheet, "A1", &layout.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, h := range layout.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if width, ok := columnWidths[h]; ok {
			if err := f.SetColWidth(sheet, col, col, width); err != nil {
				return fmt.Errorf("setting width of %s: %w", col, err)
			}
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := rows[i].values(kind)
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
