package service_test

import (
	"context"
	"testing"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workday(weekday int, start, end string) service.ScheduleDayInput {
	return service.ScheduleDayInput{Weekday: weekday, WorkStart: strPtr(start), WorkEnd: strPtr(end)}
}

func TestScheduleValidation(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "sched@example.com")

	withLunch := func(start, end string) service.ScheduleDayInput {
		d := workday(1, "09:00", "17:00")
		d.LunchStart = strPtr(start)
		d.LunchEnd = strPtr(end)
		return d
	}

	cases := []struct {
		name string
		days []service.ScheduleDayInput
	}{
		{"weekday zero", []service.ScheduleDayInput{workday(0, "09:00", "17:00")}},
		{"weekday eight", []service.ScheduleDayInput{workday(8, "09:00", "17:00")}},
		{"duplicate weekday", []service.ScheduleDayInput{workday(2, "09:00", "17:00"), workday(2, "10:00", "18:00")}},
		{"bad clock", []service.ScheduleDayInput{workday(1, "9am", "17:00")}},
		{"work window inverted", []service.ScheduleDayInput{workday(1, "17:00", "09:00")}},
		{"lunch inverted", []service.ScheduleDayInput{withLunch("13:00", "12:00")}},
		{"lunch touching start", []service.ScheduleDayInput{withLunch("09:00", "10:00")}},
		{"lunch past end", []service.ScheduleDayInput{withLunch("16:30", "17:30")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.schedules.Create(context.Background(), full(u), service.CreateScheduleRequest{Name: "bad", Days: tc.days})
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	t.Run("unknown timezone", func(t *testing.T) {
		_, err := f.schedules.Create(context.Background(), full(u), service.CreateScheduleRequest{Name: "tz", Timezone: "Mars/Olympus"})
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})
}

func TestScheduleWorkingHours(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "hours@example.com")

	monDay := workday(1, "09:00", "17:00")
	monDay.LunchStart = strPtr("12:00")
	monDay.LunchEnd = strPtr("13:00")

	first, err := f.schedules.Create(ctx, full(u), service.CreateScheduleRequest{
		Name:      "Office",
		IsDefault: true,
		Days: []service.ScheduleDayInput{
			monDay,
			{Weekday: 6, IsDayOff: true},
			workday(7, "10:00", "14:00"),
		},
	})
	require.NoError(t, err)
	assert.Len(t, first.Days, 3)

	hours, err := f.schedules.GetWorkingHoursForDate(ctx, u.ID, monday)
	require.NoError(t, err)
	require.NotNil(t, hours)
	assert.Equal(t, "09:00", hours.WorkStart)
	assert.Equal(t, "17:00", hours.WorkEnd)
	require.NotNil(t, hours.LunchStart)
	assert.Equal(t, "12:00", *hours.LunchStart)

	sunday, err := f.schedules.GetWorkingHoursForDate(ctx, u.ID, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.NotNil(t, sunday, "Sunday is weekday 7")
	assert.Equal(t, "10:00", sunday.WorkStart)

	saturday, err := f.schedules.GetWorkingHoursForDate(ctx, u.ID, monday.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Nil(t, saturday)

	tuesday, err := f.schedules.GetWorkingHoursForDate(ctx, u.ID, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, tuesday)

	t.Run("a new default replaces the old one", func(t *testing.T) {
		second, err := f.schedules.Create(ctx, full(u), service.CreateScheduleRequest{
			Name:      "Remote",
			IsDefault: true,
			Days:      []service.ScheduleDayInput{workday(1, "07:00", "15:00")},
		})
		require.NoError(t, err)

		reloaded, err := f.schedules.Get(ctx, full(u), first.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.IsDefault)

		hours, err := f.schedules.GetWorkingHoursForDate(ctx, u.ID, monday)
		require.NoError(t, err)
		require.NotNil(t, hours)
		assert.Equal(t, "07:00", hours.WorkStart)

		updated, err := f.schedules.Update(ctx, full(u), second.ID, service.UpdateScheduleRequest{
			Days: []service.ScheduleDayInput{workday(1, "08:00", "16:00"), workday(2, "08:00", "16:00")},
		})
		require.NoError(t, err)
		assert.Len(t, updated.Days, 2)
		assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionReplaceScheduleDay))
	})

	t.Run("no default schedule", func(t *testing.T) {
		other := f.user(t, "free@example.com")
		hours, err := f.schedules.GetWorkingHoursForDate(ctx, other.ID, monday)
		require.NoError(t, err)
		assert.Nil(t, hours)
	})

	t.Run("limited caller stays on own schedules", func(t *testing.T) {
		other := f.user(t, "peer@example.com")
		_, err := f.schedules.Get(ctx, limited(other, rbac.SchedulesList), first.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		rows, err := f.schedules.List(ctx, limited(other, rbac.SchedulesList), &u.ID)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("working hours lookup by date string", func(t *testing.T) {
		other := f.user(t, "curious@example.com")
		_, err := f.schedules.WorkingHoursFor(ctx, limited(other, rbac.SchedulesList), &u.ID, "2026-03-02")
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		_, err = f.schedules.WorkingHoursFor(ctx, full(u), nil, "03/02/2026")
		assert.ErrorIs(t, err, apperror.ErrValidation)

		hours, err := f.schedules.WorkingHoursFor(ctx, limited(other, rbac.SchedulesList), nil, "2026-03-02")
		require.NoError(t, err)
		assert.Nil(t, hours)
	})
}

func TestScheduleIsAdvisoryForEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "early@example.com")

	_, err := f.schedules.Create(ctx, full(u), service.CreateScheduleRequest{
		Name:      "Office",
		IsDefault: true,
		Days:      []service.ScheduleDayInput{workday(1, "09:00", "17:00")},
	})
	require.NoError(t, err)

	e, err := f.entries.Create(ctx, full(u), service.CreateTimeEntryRequest{
		Date:    "2026-03-02",
		StartAt: at(monday, 5, 0),
		EndAt:   at(monday, 8, 0),
	})
	require.NoError(t, err, "entries outside the schedule are still stored")
	assert.Equal(t, 180, e.DurationMinutes)
}
