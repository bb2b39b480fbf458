package export

import (
	"fmt"
	"io"
	"strconv"

	"hrms/internal/model"
	"hrms/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	statusSheet  = "By status"
)

// WriteXLSX writes a workbook with a per-company summary sheet and a
// minutes-per-status sheet.
func WriteXLSX(w io.Writer, r *service.TimeReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(statusSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	rows := [][]string{reportHeader}
	for _, u := range r.Users {
		rows = append(rows, companyRows(u.DisplayName, u.Email, u.Summary)...)
	}
	rows = append(rows, companyRows("All users", "", r.Overall)...)
	if err := writeRows(f, summarySheet, rows, 4); err != nil {
		return err
	}

	statusHeader := append([]string{"User"}, model.Statuses...)
	statusRows := [][]string{statusHeader}
	for _, u := range r.Users {
		statusRows = append(statusRows, statusRow(u.DisplayName, u.Summary))
	}
	statusRows = append(statusRows, statusRow("All users", r.Overall))
	if err := writeRows(f, statusSheet, statusRows, 2); err != nil {
		return err
	}

	for _, sheet := range []string{summarySheet, statusSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// writeRows stores rows starting at A1. Columns from numericFrom (1-based)
// onward are written as numbers so spreadsheet formulas work on them.
func writeRows(f *excelize.File, sheet string, rows [][]string, numericFrom int) error {
	for i, row := range rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
			if i > 0 && j+1 >= numericFrom {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					values[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
