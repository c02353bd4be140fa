// Package export renders dashboard detail tables as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/RoqueChristian/inventario/internal/domain/models"
)

// Sheet names, in workbook order.
const (
	SheetEntries = "Entradas"
	SheetExits   = "Saidas"
	SheetPending = "Pendentes"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook writes the detail tables of a dashboard into an .xlsx file.
type Workbook struct{}

// NewWorkbook returns a Workbook.
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// WriteDetail writes one sheet per detail table to w. Cells are written as
// already formatted for display.
func (wb *Workbook) WriteDetail(w io.Writer, d models.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetEntries); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetExits, SheetPending} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	tables := []struct {
		sheet string
		table models.DetailTable
	}{
		{SheetEntries, d.Entries},
		{SheetExits, d.Exits},
		{SheetPending, d.PendingRows},
	}
	for _, t := range tables {
		if err := writeSheet(f, t.sheet, t.table, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t models.DetailTable, headerStyle int) error {
	if len(t.Columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
