package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/logbookscan/internal/logbook"
)

// defaultSheet is the sheet a new workbook starts with.
const defaultSheet = "Sheet1"

// Sheet is one worksheet of an XLSX export.
type Sheet struct {
	Name string
	Rows []logbook.Row
}

// PageSheets names one sheet per page ("Page 1", "Page 2", ...).
func PageSheets(pages []logbook.PageResult) []Sheet {
	sheets := make([]Sheet, 0, len(pages))
	for _, p := range pages {
		sheets = append(sheets, Sheet{Name: fmt.Sprintf("Page %d", p.PageNumber), Rows: p.Rows})
	}
	return sheets
}

// WriteXLSX writes the sheets as a workbook. Header rows are bold.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		sheets = []Sheet{{Name: "Logbook"}}
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet, bold); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet, bold int) error {
	cols := Columns(sheet.Rows)
	headerLines := 0
	for _, r := range sheet.Rows {
		if r.IsHeader {
			headerLines = 1
			if len(r.ParentHeaders) > 0 {
				headerLines = 2
			}
		}
	}

	for y, rec := range grid(sheet.Rows, cols) {
		for x, value := range rec {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(x+1, y+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet.Name, cell, value); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet.Name, cell, err)
			}
		}
	}

	if headerLines > 0 && len(cols) > 0 {
		last, err := excelize.CoordinatesToCellName(len(cols), headerLines)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetCellStyle(sheet.Name, "A1", last, bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
	}
	return nil
}
