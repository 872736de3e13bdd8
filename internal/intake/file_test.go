package intake_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"addrparser/internal/domain"
	"addrparser/internal/intake"
)

func buildWorkbook(t *testing.T, fill func(f *excelize.File)) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	fill(f)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadFile_Text(t *testing.T) {
	lines, err := intake.ReadFile("addresses.txt", strings.NewReader("123 Main St\r\n\r\n456 Oak Ave\r\n"), 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"123 Main St", "456 Oak Ave"}, lines)
}

func TestReadFile_CSVIsTreatedAsText(t *testing.T) {
	lines, err := intake.ReadFile("ADDRESSES.CSV", strings.NewReader("a,b\nc"), 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"a,b", "c"}, lines)
}

func TestReadFile_UnsupportedExtension(t *testing.T) {
	for _, name := range []string{"addresses.xls", "addresses.pdf", "addresses"} {
		_, err := intake.ReadFile(name, strings.NewReader("x"), 0)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFileType, name)
	}
}

func TestReadFile_TooLarge(t *testing.T) {
	_, err := intake.ReadFile("big.txt", strings.NewReader(strings.Repeat("a", 11)), 10)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)

	lines, err := intake.ReadFile("fits.txt", strings.NewReader(strings.Repeat("a", 10)), 10)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestReadFile_SpreadsheetKeepsTextCellsOfFirstSheet(t *testing.T) {
	data := buildWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "123 Main St"))
		require.NoError(t, f.SetCellValue("Sheet1", "B1", 42))
		require.NoError(t, f.SetCellValue("Sheet1", "C1", 3.5))
		require.NoError(t, f.SetCellValue("Sheet1", "A2", "   "))
		require.NoError(t, f.SetCellValue("Sheet1", "B2", "456 Oak Ave"))
		require.NoError(t, f.SetCellValue("Sheet1", "A3", true))
		_, err := f.NewSheet("Other")
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Other", "A1", "ignored"))
	})

	lines, err := intake.ReadFile("import.xlsx", bytes.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"123 Main St", "456 Oak Ave"}, lines)
}

func TestReadFile_SpreadsheetCellWithLineBreaks(t *testing.T) {
	data := buildWorkbook(t, func(f *excelize.File) {
		require.NoError(t, f.SetCellValue("Sheet1", "A1", "1 Lê Duẩn\n\n2 Lê Duẩn"))
	})

	lines, err := intake.ReadFile("import.xlsx", bytes.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"1 Lê Duẩn", "2 Lê Duẩn"}, lines)
}

func TestReadFile_SpreadsheetDecodeFailure(t *testing.T) {
	_, err := intake.ReadFile("broken.xlsx", strings.NewReader("not a zip archive"), 0)

	assert.ErrorIs(t, err, domain.ErrDecodeFailed)
}

func TestReadFile_EmptySheet(t *testing.T) {
	data := buildWorkbook(t, func(*excelize.File) {})

	lines, err := intake.ReadFile("empty.xlsx", bytes.NewReader(data), 0)

	require.NoError(t, err)
	assert.Empty(t, lines)
}
