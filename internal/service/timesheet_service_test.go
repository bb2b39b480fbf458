package service_test

import (
	"context"
	"errors"
	"testing"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/service"
	"hrms/internal/timecalc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimesheetWeekNormalization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "sam@example.com")

	sheet, err := f.timesheets.Create(ctx, full(u), service.CreateTimesheetRequest{WeekStartDate: "2026-03-04"})
	require.NoError(t, err)
	assert.True(t, monday.Equal(sheet.WeekStartDate))
	assert.True(t, monday.AddDate(0, 0, 6).Equal(sheet.WeekEndDate))

	_, err = f.timesheets.Create(ctx, full(u), service.CreateTimesheetRequest{WeekStartDate: "2026-03-08"})
	require.ErrorIs(t, err, apperror.ErrConflict, "Sunday belongs to the same week")

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, sheet.ID, appErr.Fields["conflicting_id"])

	next, err := f.timesheets.Create(ctx, full(u), service.CreateTimesheetRequest{WeekStartDate: "2026-03-09"})
	require.NoError(t, err)
	assert.NotEqual(t, sheet.ID, next.ID)
}

func TestTimesheetSnapshotAndLiveSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "tia@example.com")
	acme := f.companyWithMembers(t, "Acme")

	for i, minutes := range []int{120, 180, 60} {
		req := service.CreateTimeEntryRequest{
			Date:            monday.AddDate(0, 0, i).Format("2006-01-02"),
			DurationMinutes: intPtr(minutes),
		}
		if i == 1 {
			req.CompanyID = &acme.ID
		}
		_, err := f.entries.Create(ctx, full(u), req)
		require.NoError(t, err)
	}
	_, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{Date: "2026-03-09", DurationMinutes: intPtr(500)})
	require.NoError(t, err)

	sheet, err := f.timesheets.Create(ctx, full(u), service.CreateTimesheetRequest{WeekStartDate: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, 360, sheet.TotalMinutes)
	assert.Equal(t, 6.0, sheet.TotalHours)

	_, err = f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{Date: "2026-03-08", DurationMinutes: intPtr(30)})
	require.NoError(t, err)

	detail, err := f.timesheets.Get(ctx, full(u), sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, 360, detail.TotalMinutes, "snapshot is not refreshed")
	assert.Len(t, detail.Entries, 4)
	assert.Equal(t, 390, detail.Summary.TotalMinutes)
	assert.Equal(t, 390, detail.Summary.ByStatus[model.StatusDraft])
	require.Len(t, detail.Summary.ByCompany, 2)
	assert.Equal(t, timecalc.NoCompanyLabel, detail.Summary.ByCompany[0].CompanyName)
	assert.Equal(t, 210, detail.Summary.ByCompany[0].Minutes)
	assert.Equal(t, "Acme", detail.Summary.ByCompany[1].CompanyName)
	assert.Equal(t, 3.0, detail.Summary.ByCompany[1].Hours)
}

func TestTimesheetTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "uma@example.com")
	manager := f.user(t, "val@example.com")

	sheet, err := f.timesheets.Create(ctx, full(owner), service.CreateTimesheetRequest{WeekStartDate: "2026-03-02"})
	require.NoError(t, err)

	_, err = f.timesheets.Approve(ctx, full(manager), sheet.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = f.timesheets.Reject(ctx, full(manager), sheet.ID, service.ReviewRequest{})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	sheet, err = f.timesheets.Submit(ctx, full(owner), sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, sheet.Status)
	assert.Nil(t, sheet.ReviewedBy)

	sheet, err = f.timesheets.Approve(ctx, full(manager), sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, sheet.Status)
	require.NotNil(t, sheet.ReviewedBy)
	assert.Equal(t, manager.ID, *sheet.ReviewedBy)
	require.NotNil(t, sheet.ReviewedAt)

	_, err = f.timesheets.Submit(ctx, full(owner), sheet.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
	_, err = f.timesheets.Reject(ctx, full(manager), sheet.ID, service.ReviewRequest{Reason: "too late"})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionSubmitTimesheet))
	assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionApproveTimesheet))
	assert.Equal(t, []string{service.EventTimesheetSubmitted, service.EventTimesheetApproved}, f.events.names())
}

func TestTimesheetRejectedStaysRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "wes@example.com")
	manager := f.user(t, "xan@example.com")

	sheet, err := f.timesheets.Create(ctx, full(owner), service.CreateTimesheetRequest{WeekStartDate: "2026-03-02"})
	require.NoError(t, err)
	_, err = f.timesheets.Submit(ctx, full(owner), sheet.ID)
	require.NoError(t, err)

	sheet, err = f.timesheets.Reject(ctx, full(manager), sheet.ID, service.ReviewRequest{Reason: "missing Friday"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, sheet.Status)

	_, err = f.timesheets.Submit(ctx, full(owner), sheet.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestTimesheetLimitedApprover(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "yan@example.com")
	stranger := f.user(t, "zed@example.com")
	lead := f.user(t, "amy@example.com")
	team := f.companyWithMembers(t, "Team", owner, lead)

	sheet, err := f.timesheets.Create(ctx, full(owner), service.CreateTimesheetRequest{WeekStartDate: "2026-03-02"})
	require.NoError(t, err)
	_, err = f.timesheets.Submit(ctx, full(owner), sheet.ID)
	require.NoError(t, err)

	_, err = f.timesheets.Approve(ctx, limited(stranger, rbac.TimeApprove), sheet.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.timesheets.Submit(ctx, limited(stranger, rbac.TimeUpdate), sheet.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	approved, err := f.timesheets.Approve(ctx, limited(lead, rbac.TimeApprove, team.ID), sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
}

func TestGenerateTimeReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	carol := f.user(t, "carol@example.com")
	acme := f.companyWithMembers(t, "Acme", alice, bob)

	mk := func(u *model.User, date string, minutes int) {
		_, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:            date,
			CompanyID:       &acme.ID,
			DurationMinutes: intPtr(minutes),
		})
		require.NoError(t, err)
	}
	mk(alice, "2026-03-02", 120)
	mk(alice, "2026-03-03", 60)
	mk(bob, "2026-03-02", 240)
	mk(carol, "2026-03-02", 30)
	mk(carol, "2026-04-01", 999)

	filter := service.TimeReportFilter{From: "2026-03-01", To: "2026-03-31"}

	t.Run("authorized caller sees everyone", func(t *testing.T) {
		report, err := f.timesheets.GenerateTimeReport(ctx, full(alice), filter)
		require.NoError(t, err)
		assert.Equal(t, 450, report.Overall.TotalMinutes)
		assert.Equal(t, 7.5, report.Overall.TotalHours)
		require.Len(t, report.Users, 3)

		byUser := map[string]int{}
		for _, u := range report.Users {
			byUser[u.Email] = u.Summary.TotalMinutes
		}
		assert.Equal(t, map[string]int{
			"alice@example.com": 180,
			"bob@example.com":   240,
			"carol@example.com": 30,
		}, byUser)
	})

	t.Run("user filter", func(t *testing.T) {
		fl := filter
		fl.UserID = &bob.ID
		report, err := f.timesheets.GenerateTimeReport(ctx, full(alice), fl)
		require.NoError(t, err)
		require.Len(t, report.Users, 1)
		assert.Equal(t, bob.ID, report.Users[0].UserID)
	})

	t.Run("limited caller sees self and company members", func(t *testing.T) {
		report, err := f.timesheets.GenerateTimeReport(ctx, limited(alice, rbac.TimeReport, acme.ID), filter)
		require.NoError(t, err)
		assert.Equal(t, 420, report.Overall.TotalMinutes)
		assert.Len(t, report.Users, 2)
	})

	t.Run("limited caller without companies sees only self", func(t *testing.T) {
		report, err := f.timesheets.GenerateTimeReport(ctx, limited(carol, rbac.TimeReport), filter)
		require.NoError(t, err)
		assert.Equal(t, 30, report.Overall.TotalMinutes)
	})

	t.Run("limited caller asking for an outsider", func(t *testing.T) {
		fl := filter
		fl.UserID = &carol.ID
		_, err := f.timesheets.GenerateTimeReport(ctx, limited(alice, rbac.TimeReport, acme.ID), fl)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := f.timesheets.GenerateTimeReport(ctx, full(alice), service.TimeReportFilter{From: "2026-03-31", To: "2026-03-01"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("unknown status", func(t *testing.T) {
		fl := filter
		fl.Status = "PENDING"
		_, err := f.timesheets.GenerateTimeReport(ctx, full(alice), fl)
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}
