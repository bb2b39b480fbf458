package service

import (
	"context"
	"fmt"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/repository"
	"hrms/internal/timecalc"
	"hrms/pkg/logger"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateTimeEntryRequest struct {
	UserID          *uuid.UUID `json:"user_id"`
	CompanyID       *uuid.UUID `json:"company_id"`
	Date            string     `json:"date" binding:"required"`
	StartAt         *time.Time `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	BreakMinutes    int        `json:"break_minutes" binding:"min=0"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=0"`
	Notes           string     `json:"notes"`
}

type UpdateTimeEntryRequest struct {
	CompanyID       *uuid.UUID `json:"company_id"`
	Date            *string    `json:"date"`
	StartAt         *time.Time `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	BreakMinutes    *int       `json:"break_minutes" binding:"omitempty,min=0"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=0"`
	Notes           *string    `json:"notes"`
}

type TimeEntryListFilter struct {
	UserID    *uuid.UUID
	CompanyID *uuid.UUID
	Status    string
	From      *string
	To        *string
	Page      int
	Limit     int
}

type ReviewRequest struct {
	Reason string `json:"reason"`
}

// --- Interface ---

type TimeEntryService interface {
	Create(ctx context.Context, actor Actor, req CreateTimeEntryRequest) (*model.TimeEntry, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateTimeEntryRequest) (*model.TimeEntry, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.TimeEntry, error)
	List(ctx context.Context, actor Actor, filter TimeEntryListFilter) ([]model.TimeEntry, int64, error)
	Submit(ctx context.Context, actor Actor, id uuid.UUID) (*model.TimeEntry, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.TimeEntry, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, req ReviewRequest) (*model.TimeEntry, error)
}

type timeEntryService struct {
	TimeDeps
}

func NewTimeEntryService(deps TimeDeps) TimeEntryService {
	return &timeEntryService{TimeDeps: deps.withDefaults()}
}

// --- Implementation ---

func (s *timeEntryService) ensureCompany(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	ok, err := s.Companies.Exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to check company: %w", err)
	}
	if !ok {
		return apperror.NotFound("company %s not found", *id).With("field", "company_id")
	}
	return nil
}

// checkOverlap rejects an entry whose closed interval touches or crosses
// another entry of the same user on the same date.
func (s *timeEntryService) checkOverlap(ctx context.Context, e *model.TimeEntry, exclude *uuid.UUID) error {
	if e.StartAt == nil || e.EndAt == nil {
		return nil
	}
	hit, err := s.Entries.FindOverlapping(ctx, e.UserID, e.Date, *e.StartAt, *e.EndAt, exclude)
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", err)
	}
	if hit != nil {
		return apperror.Conflict("time entry overlaps with existing entry %s", hit.ID).With("conflicting_id", hit.ID)
	}
	return nil
}

// checkSchedule compares the entry with the user's working hours and only
// ever logs.
func (s *timeEntryService) checkSchedule(ctx context.Context, e *model.TimeEntry) {
	if s.Schedules == nil || e.StartAt == nil || e.EndAt == nil {
		return
	}
	log := logger.FromContextOr(ctx, s.Log)
	hours, err := s.Schedules.GetWorkingHoursForDate(ctx, e.UserID, e.Date)
	if err != nil {
		log.Warn("schedule lookup failed", "user_id", e.UserID, "error", err)
		return
	}
	if hours == nil {
		return
	}

	workStart, err := clockOn(e.Date, hours.WorkStart, hours.Location)
	if err != nil {
		log.Warn("schedule has an unreadable work_start", "user_id", e.UserID, "work_start", hours.WorkStart)
		return
	}
	workEnd, err := clockOn(e.Date, hours.WorkEnd, hours.Location)
	if err != nil {
		log.Warn("schedule has an unreadable work_end", "user_id", e.UserID, "work_end", hours.WorkEnd)
		return
	}
	if e.StartAt.Before(workStart) || e.EndAt.After(workEnd) {
		log.Warn("time entry outside scheduled hours",
			"user_id", e.UserID,
			"date", e.Date.Format(dateLayout),
			"entry_start", e.StartAt.In(hours.Location).Format(time.RFC3339),
			"entry_end", e.EndAt.In(hours.Location).Format(time.RFC3339),
			"work_start", hours.WorkStart,
			"work_end", hours.WorkEnd,
		)
	}
}

// clockOn places an HH:MM wall-clock time on the calendar day of date in loc.
func clockOn(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
}

// persist runs the overlap check and the write under the user's row lock.
func (s *timeEntryService) persist(ctx context.Context, e *model.TimeEntry, create bool) error {
	return s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.LockForUpdate(txCtx, e.UserID); err != nil {
			return notFoundOr(err, "user", e.UserID)
		}
		var exclude *uuid.UUID
		if !create {
			exclude = &e.ID
		}
		if err := s.checkOverlap(txCtx, e, exclude); err != nil {
			return err
		}
		if create {
			return conflictOr(s.Entries.Create(txCtx, e), "time entry conflicts with an existing entry")
		}
		return s.Entries.Update(txCtx, e)
	})
}

func (s *timeEntryService) Create(ctx context.Context, actor Actor, req CreateTimeEntryRequest) (*model.TimeEntry, error) {
	userID, err := actor.targetUser(req.UserID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	duration, err := timecalc.ResolveDuration(req.DurationMinutes, req.StartAt, req.EndAt, req.BreakMinutes)
	if err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
		return nil, err
	}

	entry := &model.TimeEntry{
		UserID:          userID,
		CompanyID:       req.CompanyID,
		Date:            date,
		StartAt:         utcPtr(req.StartAt),
		EndAt:           utcPtr(req.EndAt),
		BreakMinutes:    req.BreakMinutes,
		DurationMinutes: duration,
		Status:          model.StatusDraft,
		Source:          model.SourceManual,
		Notes:           req.Notes,
	}

	if err := s.persist(ctx, entry, true); err != nil {
		return nil, err
	}
	s.checkSchedule(ctx, entry)
	return s.Entries.FindByID(ctx, entry.ID)
}

// Update merges the request into the entry. A supplied duration is taken as
// manual; otherwise a complete interval re-derives it and an incomplete one
// keeps the stored value.
func (s *timeEntryService) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateTimeEntryRequest) (*model.TimeEntry, error) {
	entry, err := s.Entries.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "time entry", id)
	}
	if err := actor.ownerOnly(entry.UserID); err != nil {
		return nil, err
	}
	if entry.Status == model.StatusApproved {
		return nil, apperror.InvalidState("approved time entry %s cannot be modified", id).With("status", entry.Status)
	}

	if req.Date != nil {
		d, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		entry.Date = d
	}
	if req.StartAt != nil {
		entry.StartAt = utcPtr(req.StartAt)
	}
	if req.EndAt != nil {
		entry.EndAt = utcPtr(req.EndAt)
	}
	if req.BreakMinutes != nil {
		entry.BreakMinutes = *req.BreakMinutes
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	if req.CompanyID != nil {
		if err := s.ensureCompany(ctx, req.CompanyID); err != nil {
			return nil, err
		}
		entry.CompanyID = req.CompanyID
		entry.Company = nil
	}

	switch {
	case req.DurationMinutes != nil:
		d, err := timecalc.ResolveDuration(req.DurationMinutes, entry.StartAt, entry.EndAt, entry.BreakMinutes)
		if err != nil {
			return nil, err
		}
		entry.DurationMinutes = d
	case entry.StartAt != nil && entry.EndAt != nil:
		d, err := timecalc.ResolveDuration(nil, entry.StartAt, entry.EndAt, entry.BreakMinutes)
		if err != nil {
			return nil, err
		}
		entry.DurationMinutes = d
	}

	if err := s.persist(ctx, entry, false); err != nil {
		return nil, err
	}
	s.checkSchedule(ctx, entry)
	return s.Entries.FindByID(ctx, id)
}

func (s *timeEntryService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		entry, err := s.Entries.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "time entry", id)
		}
		if err := actor.ownerOnly(entry.UserID); err != nil {
			return err
		}
		if entry.Status == model.StatusApproved {
			return apperror.InvalidState("approved time entry %s cannot be deleted", id).With("status", entry.Status)
		}
		if err := s.Entries.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete time entry: %w", err)
		}
		return writeAudit(txCtx, s.Audit, &actor.UserID, model.ActionDeleteTimeEntry, id.String(), "", map[string]any{
			"user_id":          entry.UserID,
			"date":             entry.Date.Format(dateLayout),
			"duration_minutes": entry.DurationMinutes,
		})
	})
}

func (s *timeEntryService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.TimeEntry, error) {
	entry, err := s.Entries.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "time entry", id)
	}
	if err := actor.ownerOnly(entry.UserID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryService) List(ctx context.Context, actor Actor, filter TimeEntryListFilter) ([]model.TimeEntry, int64, error) {
	from, err := parseOptionalDate("from", filter.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := parseOptionalDate("to", filter.To)
	if err != nil {
		return nil, 0, err
	}
	return s.Entries.List(ctx, repository.TimeEntryFilter{
		UserID:    actor.userFilter(filter.UserID),
		CompanyID: filter.CompanyID,
		Status:    filter.Status,
		From:      from,
		To:        to,
	}, filter.Page, filter.Limit)
}

// Submit moves a DRAFT or REJECTED entry to SUBMITTED.
func (s *timeEntryService) Submit(ctx context.Context, actor Actor, id uuid.UUID) (*model.TimeEntry, error) {
	var entry *model.TimeEntry
	err := s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		entry, err = s.Entries.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "time entry", id)
		}
		if err := actor.ownerOnly(entry.UserID); err != nil {
			return err
		}
		if entry.Status != model.StatusDraft && entry.Status != model.StatusRejected {
			return apperror.InvalidState("time entry in status %s cannot be submitted", entry.Status).With("status", entry.Status)
		}
		if entry.IsOpenTimer() {
			return apperror.InvalidState("stop the running timer before submitting")
		}
		entry.Status = model.StatusSubmitted
		return s.Entries.Update(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// canReview applies the company scope of a limited approver: the entry must
// be booked against one of the approver's companies.
func canReview(actor Actor, e *model.TimeEntry) error {
	if !actor.Scope.Limited {
		return nil
	}
	if e.CompanyID != nil && actor.Scope.AllowsCompany(*e.CompanyID) {
		return nil
	}
	return actor.forbidden()
}

func (s *timeEntryService) review(ctx context.Context, actor Actor, id uuid.UUID, to, action string, details map[string]any) (*model.TimeEntry, error) {
	var entry *model.TimeEntry
	err := s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		entry, err = s.Entries.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "time entry", id)
		}
		if err := canReview(actor, entry); err != nil {
			return err
		}
		if entry.Status != model.StatusSubmitted {
			return apperror.InvalidState("time entry in status %s cannot be reviewed", entry.Status).With("status", entry.Status)
		}
		entry.Status = to
		if err := s.Entries.Update(txCtx, entry); err != nil {
			return fmt.Errorf("failed to update time entry: %w", err)
		}
		details["user_id"] = entry.UserID
		details["duration_minutes"] = entry.DurationMinutes
		return writeAudit(txCtx, s.Audit, &actor.UserID, action, id.String(), "", details)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.TimeEntry, error) {
	return s.review(ctx, actor, id, model.StatusApproved, model.ActionApproveTimeEntry, map[string]any{})
}

func (s *timeEntryService) Reject(ctx context.Context, actor Actor, id uuid.UUID, req ReviewRequest) (*model.TimeEntry, error) {
	return s.review(ctx, actor, id, model.StatusRejected, model.ActionRejectTimeEntry, map[string]any{"reason": req.Reason})
}
