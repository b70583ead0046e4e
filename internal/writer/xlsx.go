package writer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/invoice-extractor/internal/models"
)

const sheetName = "Invoices"

// WriteFamilyXLSX writes one family's normalized rows to an XLSX workbook
// at the given path, one sheet, canonical header in row 1.
func WriteFamilyXLSX(path string, rows []models.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header cell: %w", err)
		}
	}

	for rowIdx, row := range rows {
		record := Record(row)
		for col, value := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
		// Re-write the numeric columns as numbers so spreadsheet formulas
		// work without manual conversion.
		setNumericCell(f, 14, rowIdx+2, row.UnitPrice)
		setNumericCell(f, 15, rowIdx+2, row.Quantity)
		setNumericCell(f, 16, rowIdx+2, row.Amount)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %q: %w", path, err)
	}
	return nil
}

func setNumericCell(f *excelize.File, col, row int, v *float64) {
	if v == nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(col, row)
	_ = f.SetCellValue(sheetName, cell, *v)
}
