package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/repository"
	"hrms/internal/service"
	"hrms/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeEntryDuration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ana@example.com")

	t.Run("derived from interval minus break", func(t *testing.T) {
		e, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:         "2026-03-02",
			StartAt:      at(monday, 9, 0),
			EndAt:        at(monday, 17, 0),
			BreakMinutes: 60,
		})
		require.NoError(t, err)
		assert.Equal(t, 420, e.DurationMinutes)
		assert.Equal(t, model.StatusDraft, e.Status)
		assert.Equal(t, model.SourceManual, e.Source)
	})

	t.Run("manual duration is kept verbatim", func(t *testing.T) {
		e, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:            "2026-03-03",
			StartAt:         at(monday.AddDate(0, 0, 1), 9, 0),
			EndAt:           at(monday.AddDate(0, 0, 1), 10, 0),
			DurationMinutes: intPtr(300),
		})
		require.NoError(t, err)
		assert.Equal(t, 300, e.DurationMinutes)

		e, err = f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:            "2026-03-04",
			DurationMinutes: intPtr(0),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, e.DurationMinutes)
	})

	cases := []struct {
		name string
		req  service.CreateTimeEntryRequest
	}{
		{"only start", service.CreateTimeEntryRequest{Date: "2026-03-05", StartAt: at(monday, 9, 0)}},
		{"start after end", service.CreateTimeEntryRequest{Date: "2026-03-05", StartAt: at(monday, 12, 0), EndAt: at(monday, 9, 0)}},
		{"start equals end", service.CreateTimeEntryRequest{Date: "2026-03-05", StartAt: at(monday, 9, 0), EndAt: at(monday, 9, 0)}},
		{"nothing", service.CreateTimeEntryRequest{Date: "2026-03-05"}},
		{"bad date", service.CreateTimeEntryRequest{Date: "05/03/2026", DurationMinutes: intPtr(10)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.entries.Create(ctx, full(u), tc.req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestTimeEntryOverlap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ben@example.com")

	first, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
		Date:    "2026-03-02",
		StartAt: at(monday, 9, 0),
		EndAt:   at(monday, 12, 0),
	})
	require.NoError(t, err)

	t.Run("crossing interval", func(t *testing.T) {
		_, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:    "2026-03-02",
			StartAt: at(monday, 11, 0),
			EndAt:   at(monday, 13, 0),
		})
		require.ErrorIs(t, err, apperror.ErrConflict)

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, first.ID, appErr.Fields["conflicting_id"])
	})

	t.Run("touching endpoints", func(t *testing.T) {
		_, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:    "2026-03-02",
			StartAt: at(monday, 12, 0),
			EndAt:   at(monday, 14, 0),
		})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("disjoint interval", func(t *testing.T) {
		_, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:    "2026-03-02",
			StartAt: at(monday, 13, 0),
			EndAt:   at(monday, 15, 0),
		})
		assert.NoError(t, err)
	})

	t.Run("update does not collide with itself", func(t *testing.T) {
		e, err := f.entries.Update(ctx, full(u), first.ID, service.UpdateTimeEntryRequest{
			EndAt: at(monday, 12, 30),
		})
		require.NoError(t, err)
		assert.Equal(t, 210, e.DurationMinutes)
	})

	t.Run("update into a neighbour", func(t *testing.T) {
		_, err := f.entries.Update(ctx, full(u), first.ID, service.UpdateTimeEntryRequest{
			EndAt: at(monday, 13, 30),
		})
		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("other user is independent", func(t *testing.T) {
		other := f.user(t, "cy@example.com")
		_, err := f.entries.Create(ctx, full(other), service.CreateTimeEntryRequest{
			Date:    "2026-03-02",
			StartAt: at(monday, 9, 0),
			EndAt:   at(monday, 12, 0),
		})
		assert.NoError(t, err)
	})
}

func TestTimeEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "dee@example.com")
	manager := f.user(t, "eve@example.com")

	e, err := f.entries.Create(ctx, full(owner), service.CreateTimeEntryRequest{
		Date:            "2026-03-02",
		DurationMinutes: intPtr(60),
	})
	require.NoError(t, err)

	_, err = f.entries.Approve(ctx, full(manager), e.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState, "draft entries cannot be approved")

	e, err = f.entries.Submit(ctx, full(owner), e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, e.Status)

	_, err = f.entries.Submit(ctx, full(owner), e.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	e, err = f.entries.Approve(ctx, full(manager), e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, e.Status)
	assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionApproveTimeEntry))

	_, err = f.entries.Update(ctx, full(owner), e.ID, service.UpdateTimeEntryRequest{Notes: strPtr("late edit")})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	err = f.entries.Delete(ctx, full(owner), e.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestTimeEntryRejectedCanBeResubmitted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.user(t, "fay@example.com")
	manager := f.user(t, "gus@example.com")

	e, err := f.entries.Create(ctx, full(owner), service.CreateTimeEntryRequest{Date: "2026-03-02", DurationMinutes: intPtr(30)})
	require.NoError(t, err)
	_, err = f.entries.Submit(ctx, full(owner), e.ID)
	require.NoError(t, err)

	e, err = f.entries.Reject(ctx, full(manager), e.ID, service.ReviewRequest{Reason: "missing notes"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, e.Status)

	e, err = f.entries.Update(ctx, full(owner), e.ID, service.UpdateTimeEntryRequest{Notes: strPtr("client call")})
	require.NoError(t, err)
	assert.Equal(t, 30, e.DurationMinutes)

	e, err = f.entries.Submit(ctx, full(owner), e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, e.Status)
}

func TestTimeEntryScope(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice@example.com")
	bob := f.user(t, "bob@example.com")
	acme := f.companyWithMembers(t, "Acme", alice)

	bobs, err := f.entries.Create(ctx, full(bob), service.CreateTimeEntryRequest{Date: "2026-03-02", DurationMinutes: intPtr(45)})
	require.NoError(t, err)

	t.Run("limited caller cannot create for someone else", func(t *testing.T) {
		_, err := f.entries.Create(ctx, limited(alice, rbac.TimeCreate), service.CreateTimeEntryRequest{
			UserID:          &bob.ID,
			Date:            "2026-03-02",
			DurationMinutes: intPtr(10),
		})
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("limited caller cannot read someone else's entry", func(t *testing.T) {
		_, err := f.entries.Get(ctx, limited(alice, rbac.TimeList), bobs.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("limited listing is forced to the caller", func(t *testing.T) {
		_, err := f.entries.Create(ctx, full(alice), service.CreateTimeEntryRequest{Date: "2026-03-02", DurationMinutes: intPtr(15)})
		require.NoError(t, err)

		rows, total, err := f.entries.List(ctx, limited(alice, rbac.TimeList), service.TimeEntryListFilter{UserID: &bob.ID})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, alice.ID, rows[0].UserID)
	})

	t.Run("limited reviewer needs the entry's company", func(t *testing.T) {
		_, err := f.entries.Submit(ctx, full(bob), bobs.ID)
		require.NoError(t, err)

		_, err = f.entries.Approve(ctx, limited(alice, rbac.TimeApprove, acme.ID), bobs.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		booked, err := f.entries.Create(ctx, full(bob), service.CreateTimeEntryRequest{
			Date:            "2026-03-03",
			CompanyID:       &acme.ID,
			DurationMinutes: intPtr(20),
		})
		require.NoError(t, err)
		_, err = f.entries.Submit(ctx, full(bob), booked.ID)
		require.NoError(t, err)

		approved, err := f.entries.Approve(ctx, limited(alice, rbac.TimeApprove, acme.ID), booked.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, approved.Status)
	})

	t.Run("unknown company", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.entries.Create(ctx, full(bob), service.CreateTimeEntryRequest{
			Date:            "2026-03-02",
			CompanyID:       &missing,
			DurationMinutes: intPtr(10),
		})
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestTimeEntryDeleteWritesAudit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "hal@example.com")

	e, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{Date: "2026-03-02", DurationMinutes: intPtr(10)})
	require.NoError(t, err)

	require.NoError(t, f.entries.Delete(ctx, full(u), e.ID))
	assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionDeleteTimeEntry))

	_, err = f.entries.Get(ctx, full(u), e.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

type failingLookup struct{}

func (failingLookup) GetWorkingHoursForDate(context.Context, uuid.UUID, time.Time) (*service.WorkingHours, error) {
	return nil, errors.New("schedule store unavailable")
}

func TestTimeEntryScheduleIsAdvisory(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "shift@example.com")

	_, err := f.schedules.Create(context.Background(), full(u), service.CreateScheduleRequest{
		Name:      "Office",
		IsDefault: true,
		Days:      []service.ScheduleDayInput{workday(1, "09:00", "17:00")},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.New(logger.Config{Level: "warn", Output: &buf}))
	create := func(svc service.TimeEntryService, day time.Time, start, end *time.Time) *model.TimeEntry {
		t.Helper()
		buf.Reset()
		e, err := svc.Create(ctx, full(u), service.CreateTimeEntryRequest{
			Date:    day.Format("2006-01-02"),
			StartAt: start,
			EndAt:   end,
		})
		require.NoError(t, err)
		return e
	}

	t.Run("inside the window logs nothing", func(t *testing.T) {
		create(f.entries, monday, at(monday, 9, 0), at(monday, 17, 0))
		assert.Empty(t, buf.String())
	})

	t.Run("early entry is saved and warned about", func(t *testing.T) {
		day := monday.AddDate(0, 0, 7)
		e := create(f.entries, day, at(day, 6, 0), at(day, 8, 0))
		assert.Equal(t, 120, e.DurationMinutes)
		assert.Contains(t, buf.String(), "outside scheduled hours")
	})

	t.Run("entry running past midnight is warned about", func(t *testing.T) {
		day := monday.AddDate(0, 0, 14)
		e := create(f.entries, day, at(day, 16, 0), at(day, 26, 0))
		assert.Equal(t, 600, e.DurationMinutes)
		assert.Contains(t, buf.String(), "outside scheduled hours")
	})

	t.Run("failed lookup does not block the write", func(t *testing.T) {
		svc := service.NewTimeEntryService(service.TimeDeps{
			Tx:        f.tx,
			Entries:   repository.NewTimeEntryRepository(f.db),
			Users:     f.users,
			Companies: f.companies,
			Audit:     f.audit,
			Schedules: failingLookup{},
			Clock:     f.clock,
			Log:       logger.Discard(),
		})
		day := monday.AddDate(0, 0, 21)
		e := create(svc, day, at(day, 9, 0), at(day, 10, 0))
		assert.Equal(t, 60, e.DurationMinutes)
		assert.Contains(t, buf.String(), "schedule lookup failed")
	})
}
