// Package xlsxexport projects batch items into a flat report and writes it as
// a single-sheet .xlsx workbook.
package xlsxexport

import (
	"fmt"
	"time"

	"addrparser/internal/domain"
)

// UndeterminedMarker replaces the normalized address when the parser gave no
// address or a zero success level.
const UndeterminedMarker = "Không xác định"

// Row is one line of the report. EmployeeID and EmployeeName are only set for
// employee sessions.
type Row struct {
	Seq               int
	EmployeeID        int
	EmployeeName      string
	OriginalAddress   string
	NormalizedAddress string
	Ward              string
	District          string
	Province          string
	SuccessLevel      int
}

// Layout describes the sheet for one session kind.
type Layout struct {
	SheetName  string
	FilePrefix string
	Columns    []string
}

var (
	manualLayout = Layout{
		SheetName:  "Danh sách địa chỉ",
		FilePrefix: "dia_chi_chuan_hoa",
		Columns: []string{
			"STT",
			"Địa chỉ gốc",
			"Địa chỉ chuẩn hóa",
			"Phường/Xã",
			"Quận/Huyện",
			"Tỉnh/Thành phố",
			"Mức độ thành công",
		},
	}
	employeeLayout = Layout{
		SheetName:  "Nhân viên",
		FilePrefix: "nhan_vien_dia_chi",
		Columns: []string{
			"STT",
			"Mã NV",
			"Tên nhân viên",
			"Địa chỉ gốc",
			"Địa chỉ chuẩn hóa",
			"Phường/Xã",
			"Quận/Huyện",
			"Tỉnh/Thành phố",
			"Mức độ thành công",
		},
	}
)

// LayoutFor returns the sheet layout for kind. Unknown kinds use the manual layout.
func LayoutFor(kind domain.SessionKind) Layout {
	if kind == domain.SessionKindEmployee {
		return employeeLayout
	}
	return manualLayout
}

// BuildReport returns one row per Done item that carries a result, numbered
// from 1 in session order. Pending, Processing and Failed items are skipped.
func BuildReport(kind domain.SessionKind, items []domain.BatchItem) []Row {
	var rows []Row
	for i := range items {
		it := &items[i]
		if it.Status != domain.ItemStatusDone || it.Result == nil {
			continue
		}
		rows = append(rows, itemToRow(kind, it, len(rows)+1))
	}
	return rows
}

func itemToRow(kind domain.SessionKind, it *domain.BatchItem, seq int) Row {
	res := it.Result
	row := Row{
		Seq:               seq,
		OriginalAddress:   res.OriginalAddress,
		NormalizedAddress: normalizedText(res),
		Ward:              res.WardNameNew,
		District:          res.OriginalDistrict,
		Province:          res.ProvinceNameNew,
		SuccessLevel:      int(res.ParseSuccessLevel),
	}
	if row.OriginalAddress == "" {
		row.OriginalAddress = it.Request.Address()
	}
	if kind == domain.SessionKindEmployee && it.Request.Employee != nil {
		row.EmployeeID = it.Request.Employee.ID
		row.EmployeeName = it.Request.Employee.Name
		row.OriginalAddress = it.Request.Employee.StayingAddress
	}
	return row
}

func normalizedText(res *domain.ParseResult) string {
	if !res.Trustworthy() {
		return UndeterminedMarker
	}
	return res.NewAddress
}

// values returns the cells of r in the column order of kind.
func (r *Row) values(kind domain.SessionKind) []interface{} {
	if kind == domain.SessionKindEmployee {
		return []interface{}{
			r.Seq, r.EmployeeID, r.EmployeeName, r.OriginalAddress, r.NormalizedAddress,
			r.Ward, r.District, r.Province, r.SuccessLevel,
		}
	}
	return []interface{}{
		r.Seq, r.OriginalAddress, r.NormalizedAddress,
		r.Ward, r.District, r.Province, r.SuccessLevel,
	}
}

// BuildFilename returns the download name for an export made at now.
// Format: {prefix}_{YYYY-MM-DD}.xlsx, with the date taken in UTC.
func BuildFilename(kind domain.SessionKind, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", LayoutFor(kind).FilePrefix, now.UTC().Format("2006-01-02"))
}
