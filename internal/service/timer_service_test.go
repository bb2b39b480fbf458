package service_test

import (
	"context"
	"testing"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerStartTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ivy@example.com")

	e, err := f.timer.Start(ctx, full(u), service.StartTimerRequest{Notes: "standup"})
	require.NoError(t, err)
	assert.Equal(t, model.SourceTimer, e.Source)
	assert.Equal(t, monday, e.Date)
	assert.Nil(t, e.EndAt)

	_, err = f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestTimerStartStopStart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "jon@example.com")

	_, err := f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	require.NoError(t, err)

	f.clock.Add(95 * time.Minute)
	stopped, err := f.timer.Stop(ctx, full(u), service.StopTimerRequest{BreakMinutes: 5, Notes: strPtr("done")})
	require.NoError(t, err)
	require.NotNil(t, stopped.EndAt)
	assert.Equal(t, 90, stopped.DurationMinutes)
	assert.Equal(t, 5, stopped.BreakMinutes)
	assert.Equal(t, "done", stopped.Notes)

	f.clock.Add(10 * time.Minute)
	second, err := f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	require.NoError(t, err)
	assert.NotEqual(t, stopped.ID, second.ID)

	assert.Equal(t, []string{
		service.EventTimerStarted,
		service.EventTimerStopped,
		service.EventTimerStarted,
	}, f.events.names())
}

func TestTimerStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "kim@example.com")

	status, err := f.timer.Status(ctx, full(u), nil)
	require.NoError(t, err)
	assert.Nil(t, status)

	_, err = f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	require.NoError(t, err)
	f.clock.Add(42*time.Minute + 30*time.Second)

	status, err = f.timer.Status(ctx, full(u), nil)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, 42, status.ElapsedMinutes)
	assert.Equal(t, 42, status.WorkingMinutes)
	assert.Nil(t, status.Entry.EndAt, "status must not close the timer")
}

func TestTimerCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "lea@example.com")

	err := f.timer.Cancel(ctx, full(u), nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	e, err := f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	require.NoError(t, err)
	require.NoError(t, f.timer.Cancel(ctx, full(u), nil))

	status, err := f.timer.Status(ctx, full(u), nil)
	require.NoError(t, err)
	assert.Nil(t, status)

	_, err = f.entries.Get(ctx, full(u), e.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.EqualValues(t, 1, countAudit(t, f.db, model.ActionCancelTimer))
}

func TestTimerStopWithoutTimer(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "max@example.com")

	_, err := f.timer.Stop(context.Background(), full(u), service.StopTimerRequest{})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestTimerRunningAcrossMidnight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ned@example.com")

	f.clock.Set(monday.Add(23 * time.Hour))
	_, err := f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	require.NoError(t, err)

	f.clock.Add(2 * time.Hour)
	_, err = f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	assert.ErrorIs(t, err, apperror.ErrInvalidState, "an open timer from yesterday still counts")

	stopped, err := f.timer.Stop(ctx, full(u), service.StopTimerRequest{})
	require.NoError(t, err)
	assert.Equal(t, 120, stopped.DurationMinutes)
	assert.True(t, monday.Equal(stopped.Date))
}

func TestTimerLimitedActor(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "ola@example.com")
	other := f.user(t, "pat@example.com")

	_, err := f.timer.Start(context.Background(), limited(u, rbac.TimeCreate), service.StartTimerRequest{UserID: &other.ID})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestTimerPauseResumeUnsupported(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "quin@example.com")

	assert.ErrorIs(t, f.timer.Pause(context.Background(), full(u)), apperror.ErrNotImplemented)
	assert.ErrorIs(t, f.timer.Resume(context.Background(), full(u)), apperror.ErrNotImplemented)
}

func TestTimerEntryCannotBeSubmittedWhileRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "ray@example.com")

	e, err := f.timer.Start(ctx, full(u), service.StartTimerRequest{})
	require.NoError(t, err)

	_, err = f.entries.Submit(ctx, full(u), e.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}
