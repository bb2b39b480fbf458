package service

import (
	"context"
	"fmt"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/repository"
	"hrms/internal/timecalc"

	"github.com/google/uuid"
)

type ScheduleDayInput struct {
	Weekday    int     `json:"weekday" binding:"required,min=1,max=7"`
	WorkStart  *string `json:"work_start" binding:"omitempty,hhmm"`
	WorkEnd    *string `json:"work_end" binding:"omitempty,hhmm"`
	LunchStart *string `json:"lunch_start" binding:"omitempty,hhmm"`
	LunchEnd   *string `json:"lunch_end" binding:"omitempty,hhmm"`
	IsDayOff   bool    `json:"is_day_off"`
}

type CreateScheduleRequest struct {
	UserID    *uuid.UUID         `json:"user_id"`
	Name      string             `json:"name" binding:"required"`
	Timezone  string             `json:"timezone"`
	IsDefault bool               `json:"is_default"`
	Days      []ScheduleDayInput `json:"days" binding:"dive"`
}

type UpdateScheduleRequest struct {
	Name      *string            `json:"name"`
	Timezone  *string            `json:"timezone"`
	IsDefault *bool              `json:"is_default"`
	Days      []ScheduleDayInput `json:"days" binding:"omitempty,dive"`
}

// WorkingHours is the configured window for one day, as HH:MM strings in
// Location.
type WorkingHours struct {
	WorkStart  string         `json:"work_start"`
	WorkEnd    string         `json:"work_end"`
	LunchStart *string        `json:"lunch_start,omitempty"`
	LunchEnd   *string        `json:"lunch_end,omitempty"`
	Location   *time.Location `json:"-"`
}

// ScheduleLookup answers which hours a user is expected to work on a date.
// A nil result means a day off or no schedule.
type ScheduleLookup interface {
	GetWorkingHoursForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*WorkingHours, error)
}

type ScheduleService interface {
	ScheduleLookup
	Create(ctx context.Context, actor Actor, req CreateScheduleRequest) (*model.Schedule, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateScheduleRequest) (*model.Schedule, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Schedule, error)
	List(ctx context.Context, actor Actor, userID *uuid.UUID) ([]model.Schedule, error)
	WorkingHoursFor(ctx context.Context, actor Actor, userID *uuid.UUID, date string) (*WorkingHours, error)
}

type scheduleService struct {
	tx          repository.TransactionManager
	repo        repository.ScheduleRepository
	users       repository.UserRepository
	audit       repository.AuditRepository
	defaultZone string
}

func NewScheduleService(tx repository.TransactionManager, repo repository.ScheduleRepository, users repository.UserRepository, audit repository.AuditRepository, defaultZone string) ScheduleService {
	if defaultZone == "" {
		defaultZone = "UTC"
	}
	return &scheduleService{tx: tx, repo: repo, users: users, audit: audit, defaultZone: defaultZone}
}

func parseClock(field, v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, apperror.Validation("%s must be HH:MM", field).With("field", field)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// validateScheduleDays checks weekday range and uniqueness, time formats,
// ordering of the work and lunch windows and that lunch sits strictly inside
// working hours.
func validateScheduleDays(days []ScheduleDayInput) error {
	seen := make(map[int]bool, len(days))
	for _, d := range days {
		if d.Weekday < 1 || d.Weekday > 7 {
			return apperror.Validation("weekday must be between 1 and 7").With("weekday", d.Weekday)
		}
		if seen[d.Weekday] {
			return apperror.Validation("duplicate weekdays are not allowed").With("weekday", d.Weekday)
		}
		seen[d.Weekday] = true

		if d.IsDayOff {
			continue
		}

		var ws, we int
		hasWork := d.WorkStart != nil && d.WorkEnd != nil
		if hasWork {
			var err error
			if ws, err = parseClock("work_start", *d.WorkStart); err != nil {
				return err
			}
			if we, err = parseClock("work_end", *d.WorkEnd); err != nil {
				return err
			}
			if ws >= we {
				return apperror.Validation("work start time must be before work end time").With("weekday", d.Weekday)
			}
		}

		if d.LunchStart != nil && d.LunchEnd != nil {
			ls, err := parseClock("lunch_start", *d.LunchStart)
			if err != nil {
				return err
			}
			le, err := parseClock("lunch_end", *d.LunchEnd)
			if err != nil {
				return err
			}
			if ls >= le {
				return apperror.Validation("lunch start time must be before lunch end time").With("weekday", d.Weekday)
			}
			if hasWork && (ls <= ws || le >= we) {
				return apperror.Validation("lunch time must be within working hours").With("weekday", d.Weekday)
			}
		}
	}
	return nil
}

func toScheduleDays(in []ScheduleDayInput) []model.ScheduleDay {
	days := make([]model.ScheduleDay, 0, len(in))
	for _, d := range in {
		days = append(days, model.ScheduleDay{
			Weekday:    d.Weekday,
			WorkStart:  d.WorkStart,
			WorkEnd:    d.WorkEnd,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
			IsDayOff:   d.IsDayOff,
		})
	}
	return days
}

func validZone(field, name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return apperror.Validation("unknown timezone '%s'", name).With("field", field)
	}
	return nil
}

func (s *scheduleService) Create(ctx context.Context, actor Actor, req CreateScheduleRequest) (*model.Schedule, error) {
	userID, err := actor.targetUser(req.UserID)
	if err != nil {
		return nil, err
	}
	if err := validateScheduleDays(req.Days); err != nil {
		return nil, err
	}
	zone := req.Timezone
	if zone == "" {
		zone = s.defaultZone
	}
	if err := validZone("timezone", zone); err != nil {
		return nil, err
	}

	schedule := &model.Schedule{
		UserID:    userID,
		Name:      req.Name,
		Timezone:  zone,
		IsDefault: req.IsDefault,
		Days:      toScheduleDays(req.Days),
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetByID(txCtx, userID); err != nil {
			return notFoundOr(err, "user", userID)
		}
		if err := s.repo.Create(txCtx, schedule); err != nil {
			return fmt.Errorf("failed to create schedule: %w", err)
		}
		if schedule.IsDefault {
			return s.repo.ClearDefault(txCtx, userID, schedule.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, schedule.ID)
}

// Update applies the supplied fields. When days are given the whole set is
// replaced in the same transaction.
func (s *scheduleService) Update(ctx context.Context, actor Actor, id uuid.UUID, req UpdateScheduleRequest) (*model.Schedule, error) {
	if req.Days != nil {
		if err := validateScheduleDays(req.Days); err != nil {
			return nil, err
		}
	}
	if req.Timezone != nil {
		if err := validZone("timezone", *req.Timezone); err != nil {
			return nil, err
		}
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		schedule, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "schedule", id)
		}
		if err := actor.ownerOnly(schedule.UserID); err != nil {
			return err
		}

		if req.Name != nil {
			schedule.Name = *req.Name
		}
		if req.Timezone != nil {
			schedule.Timezone = *req.Timezone
		}
		if req.IsDefault != nil {
			schedule.IsDefault = *req.IsDefault
		}
		if err := s.repo.Update(txCtx, schedule); err != nil {
			return fmt.Errorf("failed to update schedule: %w", err)
		}
		if schedule.IsDefault {
			if err := s.repo.ClearDefault(txCtx, schedule.UserID, schedule.ID); err != nil {
				return fmt.Errorf("failed to clear default schedule: %w", err)
			}
		}
		if req.Days != nil {
			if err := s.repo.ReplaceDays(txCtx, schedule.ID, toScheduleDays(req.Days)); err != nil {
				return fmt.Errorf("failed to replace schedule days: %w", err)
			}
			return writeAudit(txCtx, s.audit, &actor.UserID, model.ActionReplaceScheduleDay, schedule.ID.String(), schedule.Name, map[string]any{"days": len(req.Days)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *scheduleService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		schedule, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "schedule", id)
		}
		if err := actor.ownerOnly(schedule.UserID); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, id)
	})
}

func (s *scheduleService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Schedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "schedule", id)
	}
	if err := actor.ownerOnly(schedule.UserID); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *scheduleService) List(ctx context.Context, actor Actor, userID *uuid.UUID) ([]model.Schedule, error) {
	return s.repo.List(ctx, actor.userFilter(userID))
}

// GetWorkingHoursForDate reads the user's default schedule for the ISO
// weekday of date (Sunday is 7).
func (s *scheduleService) GetWorkingHoursForDate(ctx context.Context, userID uuid.UUID, date time.Time) (*WorkingHours, error) {
	schedule, err := s.repo.FindDefault(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load default schedule: %w", err)
	}
	if schedule == nil {
		return nil, nil
	}

	weekday := timecalc.ISOWeekday(date)
	for _, d := range schedule.Days {
		if d.Weekday != weekday {
			continue
		}
		if d.IsDayOff || d.WorkStart == nil || d.WorkEnd == nil {
			return nil, nil
		}
		loc, err := time.LoadLocation(schedule.Timezone)
		if err != nil {
			loc = time.UTC
		}
		return &WorkingHours{
			WorkStart:  *d.WorkStart,
			WorkEnd:    *d.WorkEnd,
			LunchStart: d.LunchStart,
			LunchEnd:   d.LunchEnd,
			Location:   loc,
		}, nil
	}
	return nil, nil
}

// WorkingHoursFor is the lookup exposed over HTTP. Limited callers may only
// query themselves.
func (s *scheduleService) WorkingHoursFor(ctx context.Context, actor Actor, userID *uuid.UUID, date string) (*WorkingHours, error) {
	target, err := actor.targetUser(userID)
	if err != nil {
		return nil, err
	}
	day, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.GetWorkingHoursForDate(ctx, target, day)
}
