package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SheetCharLimit caps the serialized sheet body to bound token cost.
const SheetCharLimit = 2000

// cfbMagic is the Compound File Binary signature carried by legacy BIFF
// .xls workbooks. OPC workbooks (xlsx/xlsm) are zip containers instead.
var cfbMagic = []byte{0xd0, 0xcf, 0x11, 0xe0, 0xa1, 0xb1, 0x1a, 0xe1}

// extractWorkbook serializes the first sheet of a workbook to delimited text
// with the sheet name as a header. Additional sheets are ignored: the first
// sheet is assumed most relevant, and one bounded sheet keeps the request
// payload predictable. The container format is sniffed from the magic bytes
// so a misnamed file still reaches the right reader.
func extractWorkbook(data []byte) (string, error) {
	if bytes.HasPrefix(data, cfbMagic) {
		return extractLegacyWorkbook(data)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	return sheetText(sheet, b.String()), nil
}

// extractLegacyWorkbook reads BIFF containers, which excelize cannot open.
// The reader predates modules and panics on some malformed inputs, so it
// gets the same recovery treatment as the PDF library.
func extractLegacyWorkbook(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("legacy workbook reader panicked: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("opening legacy workbook: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", fmt.Errorf("legacy workbook has no sheets")
	}

	var b strings.Builder
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return sheetText(sheet.Name, b.String()), nil
}

func sheetText(sheet, body string) string {
	if len(body) > SheetCharLimit {
		body = truncateUTF8(body, SheetCharLimit)
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Sprintf("--- Sheet: %s ---\n", sheet)
	}
	return fmt.Sprintf("--- Sheet: %s ---\n%s", sheet, body)
}
