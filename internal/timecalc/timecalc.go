// Package timecalc holds the calendar and duration arithmetic shared by the
// time-tracking services. Nothing here touches storage.
package timecalc

import (
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NoCompanyLabel names the bucket for entries without a company.
const NoCompanyLabel = "No Company"

// DateOnly returns the calendar day of t in loc, encoded as UTC midnight.
// Every stored date goes through here so comparisons never depend on the
// server's zone.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ISOWeekday numbers days 1 (Monday) through 7 (Sunday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekStart returns the Monday of the ISO week containing day. A Sunday
// belongs to the week that started six days earlier.
func WeekStart(day time.Time) time.Time {
	return day.AddDate(0, 0, -(ISOWeekday(day) - 1))
}

// WeekEnd is the Sunday closing the week that starts on monday.
func WeekEnd(monday time.Time) time.Time {
	return monday.AddDate(0, 0, 6)
}

// ElapsedMinutes is the whole number of minutes from start to end.
func ElapsedMinutes(start, end time.Time) int {
	return int(end.Sub(start) / time.Minute)
}

// WorkedMinutes subtracts the break from the elapsed time, never going
// below zero.
func WorkedMinutes(start, end time.Time, breakMinutes int) int {
	return max(0, ElapsedMinutes(start, end)-breakMinutes)
}

// ResolveDuration decides an entry's duration. A manual value wins; otherwise
// both ends of the interval are required and start must precede end.
func ResolveDuration(manual *int, start, end *time.Time, breakMinutes int) (int, error) {
	if breakMinutes < 0 {
		return 0, apperror.Validation("break_minutes must not be negative")
	}
	if manual != nil {
		if *manual < 0 {
			return 0, apperror.Validation("duration_minutes must not be negative")
		}
		return *manual, nil
	}
	switch {
	case start != nil && end != nil:
		if !start.Before(*end) {
			return 0, apperror.Validation("start_at must be before end_at").With("field", "start_at")
		}
		return WorkedMinutes(*start, *end, breakMinutes), nil
	case start != nil || end != nil:
		return 0, apperror.Validation("both start_at and end_at must be provided, or neither")
	default:
		return 0, apperror.Validation("either start_at/end_at or duration_minutes must be provided")
	}
}

// Overlaps compares two closed intervals. Touching endpoints count as an
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Hours converts minutes to hours rounded to two decimal places.
func Hours(minutes int) float64 {
	return decimal.NewFromInt(int64(minutes)).
		Div(decimal.NewFromInt(60)).
		Round(2).
		InexactFloat64()
}

// CompanyTotal is one company bucket of a Summary.
type CompanyTotal struct {
	CompanyID   *uuid.UUID `json:"company_id"`
	CompanyName string     `json:"company_name"`
	Minutes     int        `json:"minutes"`
	Hours       float64    `json:"hours"`
}

// Summary aggregates a set of entries. ByStatus sums minutes per status,
// not entry counts.
type Summary struct {
	TotalMinutes int            `json:"total_minutes"`
	TotalHours   float64        `json:"total_hours"`
	ByStatus     map[string]int `json:"by_status"`
	ByCompany    []CompanyTotal `json:"by_company"`
}

// Summarize folds entries into a Summary. Company buckets keep the order
// in which each company first appears.
func Summarize(entries []model.TimeEntry) Summary {
	s := Summary{
		ByStatus:  make(map[string]int, len(model.Statuses)),
		ByCompany: []CompanyTotal{},
	}
	for _, st := range model.Statuses {
		s.ByStatus[st] = 0
	}

	index := make(map[uuid.UUID]int)
	noCompany := -1
	for i := range entries {
		e := &entries[i]
		s.TotalMinutes += e.DurationMinutes
		if _, ok := s.ByStatus[e.Status]; ok {
			s.ByStatus[e.Status] += e.DurationMinutes
		}

		var pos int
		if e.CompanyID == nil {
			if noCompany < 0 {
				noCompany = len(s.ByCompany)
				s.ByCompany = append(s.ByCompany, CompanyTotal{CompanyName: NoCompanyLabel})
			}
			pos = noCompany
		} else {
			p, ok := index[*e.CompanyID]
			if !ok {
				id := *e.CompanyID
				name := id.String()
				if e.Company != nil && e.Company.Name != "" {
					name = e.Company.Name
				}
				p = len(s.ByCompany)
				index[id] = p
				s.ByCompany = append(s.ByCompany, CompanyTotal{CompanyID: &id, CompanyName: name})
			}
			pos = p
		}
		s.ByCompany[pos].Minutes += e.DurationMinutes
	}

	s.TotalHours = Hours(s.TotalMinutes)
	for i := range s.ByCompany {
		s.ByCompany[i].Hours = Hours(s.ByCompany[i].Minutes)
	}
	return s
}
