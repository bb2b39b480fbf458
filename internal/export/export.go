// Package export renders time reports as downloadable files.
package export

import (
	"fmt"
	"io"
	"strconv"

	"hrms/internal/model"
	"hrms/internal/service"
	"hrms/internal/timecalc"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

var reportHeader = []string{"User", "Email", "Company", "Minutes", "Hours"}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename names the download for a report.
func Filename(r *service.TimeReport, format string) string {
	return fmt.Sprintf("time-report_%s_%s.%s", r.From, r.To, format)
}

// Write renders r in format to w.
func Write(w io.Writer, r *service.TimeReport, format string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// companyRows lists one row per company bucket followed by a total row.
func companyRows(name, email string, s timecalc.Summary) [][]string {
	rows := make([][]string, 0, len(s.ByCompany)+1)
	for _, c := range s.ByCompany {
		rows = append(rows, []string{name, email, c.CompanyName, strconv.Itoa(c.Minutes), formatHours(c.Hours)})
	}
	return append(rows, []string{name, email, "Total", strconv.Itoa(s.TotalMinutes), formatHours(s.TotalHours)})
}

func statusRow(name string, s timecalc.Summary) []string {
	row := []string{name}
	for _, st := range model.Statuses {
		row = append(row, strconv.Itoa(s.ByStatus[st]))
	}
	return row
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
