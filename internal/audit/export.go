package audit

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"id", "occurred_at", "actor", "action", "week_start", "details"}

// Export writes the events as an .xlsx workbook.
func Export(events []Event, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "audit"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for i, e := range events {
		row := []any{e.ID, e.OccurredAt.Format("2006-01-02 15:04:05"), e.Actor, e.Action, e.WeekStart, e.Details}
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
