package service

import (
	"context"
	"errors"
	"fmt"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/timecalc"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StartTimerRequest struct {
	UserID    *uuid.UUID `json:"user_id"`
	CompanyID *uuid.UUID `json:"company_id"`
	Notes     string     `json:"notes"`
}

type StopTimerRequest struct {
	UserID       *uuid.UUID `json:"user_id"`
	BreakMinutes int        `json:"break_minutes" binding:"min=0"`
	Notes        *string    `json:"notes"`
}

// TimerStatus describes a running timer. ElapsedMinutes ignores breaks;
// WorkingMinutes subtracts them.
type TimerStatus struct {
	Entry          *model.TimeEntry `json:"entry"`
	ElapsedMinutes int              `json:"elapsed_minutes"`
	WorkingMinutes int              `json:"working_minutes"`
}

type TimerService interface {
	Start(ctx context.Context, actor Actor, req StartTimerRequest) (*model.TimeEntry, error)
	Stop(ctx context.Context, actor Actor, req StopTimerRequest) (*model.TimeEntry, error)
	Status(ctx context.Context, actor Actor, userID *uuid.UUID) (*TimerStatus, error)
	Cancel(ctx context.Context, actor Actor, userID *uuid.UUID) error
	Pause(ctx context.Context, actor Actor) error
	Resume(ctx context.Context, actor Actor) error
}

type timerService struct {
	TimeDeps
}

func NewTimerService(deps TimeDeps) TimerService {
	return &timerService{TimeDeps: deps.withDefaults()}
}

// Start opens a timer entry dated today. The partial unique index on open
// timers backs up the lookup under concurrent starts.
func (s *timerService) Start(ctx context.Context, actor Actor, req StartTimerRequest) (*model.TimeEntry, error) {
	userID, err := actor.targetUser(req.UserID)
	if err != nil {
		return nil, err
	}
	if req.CompanyID != nil {
		ok, err := s.Companies.Exists(ctx, *req.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to check company: %w", err)
		}
		if !ok {
			return nil, apperror.NotFound("company %s not found", *req.CompanyID).With("field", "company_id")
		}
	}

	now := s.Clock.Now().UTC()
	entry := &model.TimeEntry{
		UserID:    userID,
		CompanyID: req.CompanyID,
		Date:      timecalc.DateOnly(now, s.Location),
		StartAt:   &now,
		Status:    model.StatusDraft,
		Source:    model.SourceTimer,
		Notes:     req.Notes,
	}

	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.Users.GetByID(txCtx, userID); err != nil {
			return notFoundOr(err, "user", userID)
		}
		if err := s.Users.LockForUpdate(txCtx, userID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		open, err := s.Entries.FindOpenTimer(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to look up active timer: %w", err)
		}
		if open != nil {
			return apperror.InvalidState("a timer is already running").With("time_entry_id", open.ID)
		}
		if err := s.Entries.Create(txCtx, entry); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("a timer is already running")
			}
			return fmt.Errorf("failed to start timer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.ObserveTimer(EventTimerStarted)
	s.Events.Publish(EventTimerStarted, userID, entry)
	s.Log.Info("timer started", "user_id", userID, "time_entry_id", entry.ID)
	return entry, nil
}

// Stop closes the running timer and derives its duration.
func (s *timerService) Stop(ctx context.Context, actor Actor, req StopTimerRequest) (*model.TimeEntry, error) {
	userID, err := actor.targetUser(req.UserID)
	if err != nil {
		return nil, err
	}
	if req.BreakMinutes < 0 {
		return nil, apperror.Validation("break_minutes must not be negative").With("field", "break_minutes")
	}

	var entry *model.TimeEntry
	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.LockForUpdate(txCtx, userID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		entry, err = s.Entries.FindOpenTimer(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to look up active timer: %w", err)
		}
		if entry == nil {
			return apperror.InvalidState("no active timer")
		}

		now := s.Clock.Now().UTC()
		entry.EndAt = &now
		entry.BreakMinutes = req.BreakMinutes
		entry.DurationMinutes = timecalc.WorkedMinutes(*entry.StartAt, now, req.BreakMinutes)
		if req.Notes != nil {
			entry.Notes = *req.Notes
		}
		return s.Entries.Update(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.ObserveTimer(EventTimerStopped)
	s.Events.Publish(EventTimerStopped, userID, entry)
	s.Log.Info("timer stopped", "user_id", userID, "time_entry_id", entry.ID, "duration_minutes", entry.DurationMinutes)
	return entry, nil
}

// Status is a pure read; nil means no timer is running.
func (s *timerService) Status(ctx context.Context, actor Actor, userID *uuid.UUID) (*TimerStatus, error) {
	id, err := actor.targetUser(userID)
	if err != nil {
		return nil, err
	}
	entry, err := s.Entries.FindOpenTimer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active timer: %w", err)
	}
	if entry == nil {
		return nil, nil
	}

	elapsed := timecalc.ElapsedMinutes(*entry.StartAt, s.Clock.Now())
	return &TimerStatus{
		Entry:          entry,
		ElapsedMinutes: elapsed,
		WorkingMinutes: max(0, elapsed-entry.BreakMinutes),
	}, nil
}

// Cancel discards the running timer without keeping a record.
func (s *timerService) Cancel(ctx context.Context, actor Actor, userID *uuid.UUID) error {
	id, err := actor.targetUser(userID)
	if err != nil {
		return err
	}

	var entry *model.TimeEntry
	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.LockForUpdate(txCtx, id); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		entry, err = s.Entries.FindOpenTimer(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to look up active timer: %w", err)
		}
		if entry == nil {
			return apperror.InvalidState("no active timer")
		}
		if err := s.Entries.Delete(txCtx, entry.ID); err != nil {
			return fmt.Errorf("failed to cancel timer: %w", err)
		}
		return writeAudit(txCtx, s.Audit, &actor.UserID, model.ActionCancelTimer, entry.ID.String(), "", map[string]any{
			"user_id":  id,
			"start_at": entry.StartAt,
		})
	})
	if err != nil {
		return err
	}

	s.Metrics.ObserveTimer(EventTimerCancelled)
	s.Events.Publish(EventTimerCancelled, id, map[string]any{"time_entry_id": entry.ID})
	return nil
}

func (s *timerService) Pause(context.Context, Actor) error {
	return apperror.NotImplemented("pausing a timer is not supported")
}

func (s *timerService) Resume(context.Context, Actor) error {
	return apperror.NotImplemented("resuming a timer is not supported")
}
