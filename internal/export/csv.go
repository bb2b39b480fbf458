package export

import (
	"encoding/csv"
	"io"

	"hrms/internal/service"
)

// WriteCSV writes one row per user and company plus per-user and overall
// totals.
func WriteCSV(w io.Writer, r *service.TimeReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, u := range r.Users {
		if err := cw.WriteAll(companyRows(u.DisplayName, u.Email, u.Summary)); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(companyRows("All users", "", r.Overall)); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
