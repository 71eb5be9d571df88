package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// ContentType is the MIME type of the workbook written by WriteWorkbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteWorkbook serializes tables as an xlsx workbook, one sheet per table
// in order.
func WriteWorkbook(w io.Writer, tables []Table) error {
	if len(tables) == 0 {
		return errors.New("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", t.Name, err)
		}

		for r, row := range t.Rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d of %q: %w", r+1, t.Name, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename names an export taken at now.
func Filename(detailed bool, now time.Time) string {
	ts := now.UTC().Format("2006-01-02T15-04-05")
	if detailed {
		return "Hackathon_Detailed_Report_" + ts + ".xlsx"
	}
	return "Hackathon_Results_" + ts + ".xlsx"
}
