package service

import (
	"context"
	"fmt"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/repository"
	"hrms/internal/timecalc"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateTimesheetRequest struct {
	UserID        *uuid.UUID `json:"user_id"`
	WeekStartDate string     `json:"week_start_date" binding:"required"`
}

type TimesheetListFilter struct {
	UserID *uuid.UUID
	Status string
	From   *string
	To     *string
	Page   int
	Limit  int
}

// TimesheetDetail is a sheet with its entries and summary read live.
type TimesheetDetail struct {
	*model.Timesheet
	Entries []model.TimeEntry `json:"entries"`
	Summary timecalc.Summary  `json:"summary"`
}

type TimeReportFilter struct {
	From      string     `form:"from" binding:"required"`
	To        string     `form:"to" binding:"required"`
	UserID    *uuid.UUID `form:"-"`
	CompanyID *uuid.UUID `form:"-"`
	Status    string     `form:"status"`
}

type UserTimeReport struct {
	UserID      uuid.UUID        `json:"user_id"`
	DisplayName string           `json:"display_name"`
	Email       string           `json:"email"`
	Summary     timecalc.Summary `json:"summary"`
}

type TimeReport struct {
	From    string           `json:"from"`
	To      string           `json:"to"`
	Users   []UserTimeReport `json:"users"`
	Overall timecalc.Summary `json:"overall"`
}

// --- Interface ---

type TimesheetService interface {
	Create(ctx context.Context, actor Actor, req CreateTimesheetRequest) (*model.Timesheet, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*TimesheetDetail, error)
	List(ctx context.Context, actor Actor, filter TimesheetListFilter) ([]model.Timesheet, int64, error)
	Submit(ctx context.Context, actor Actor, id uuid.UUID) (*model.Timesheet, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.Timesheet, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, req ReviewRequest) (*model.Timesheet, error)
	GenerateTimeReport(ctx context.Context, actor Actor, filter TimeReportFilter) (*TimeReport, error)
}

type timesheetService struct {
	TimeDeps
}

func NewTimesheetService(deps TimeDeps) TimesheetService {
	return &timesheetService{TimeDeps: deps.withDefaults()}
}

// --- Implementation ---

// Create normalizes the date to its Monday and snapshots the week's totals.
func (s *timesheetService) Create(ctx context.Context, actor Actor, req CreateTimesheetRequest) (*model.Timesheet, error) {
	userID, err := actor.targetUser(req.UserID)
	if err != nil {
		return nil, err
	}
	day, err := parseDate("week_start_date", req.WeekStartDate)
	if err != nil {
		return nil, err
	}
	monday := timecalc.WeekStart(day)
	sunday := timecalc.WeekEnd(monday)

	sheet := &model.Timesheet{
		UserID:        userID,
		WeekStartDate: monday,
		WeekEndDate:   sunday,
		Status:        model.StatusDraft,
	}

	err = s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.Users.GetByID(txCtx, userID); err != nil {
			return notFoundOr(err, "user", userID)
		}
		if err := s.Users.LockForUpdate(txCtx, userID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		existing, err := s.Sheets.FindByUserWeek(txCtx, userID, monday)
		if err != nil {
			return fmt.Errorf("failed to look up timesheet: %w", err)
		}
		if existing != nil {
			return apperror.Conflict("timesheet for week starting %s already exists", monday.Format(dateLayout)).
				With("conflicting_id", existing.ID)
		}

		entries, err := s.Entries.ListForUserBetween(txCtx, userID, monday, sunday)
		if err != nil {
			return fmt.Errorf("failed to load time entries: %w", err)
		}
		summary := timecalc.Summarize(entries)
		sheet.TotalMinutes = summary.TotalMinutes
		sheet.TotalHours = summary.TotalHours

		return conflictOr(s.Sheets.Create(txCtx, sheet), "timesheet for week starting %s already exists", monday.Format(dateLayout))
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (s *timesheetService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*TimesheetDetail, error) {
	sheet, err := s.Sheets.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "timesheet", id)
	}
	if err := actor.ownerOnly(sheet.UserID); err != nil {
		return nil, err
	}
	entries, err := s.Entries.ListForUserBetween(ctx, sheet.UserID, sheet.WeekStartDate, sheet.WeekEndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}
	return &TimesheetDetail{
		Timesheet: sheet,
		Entries:   entries,
		Summary:   timecalc.Summarize(entries),
	}, nil
}

func (s *timesheetService) List(ctx context.Context, actor Actor, filter TimesheetListFilter) ([]model.Timesheet, int64, error) {
	from, err := parseOptionalDate("from", filter.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := parseOptionalDate("to", filter.To)
	if err != nil {
		return nil, 0, err
	}
	return s.Sheets.List(ctx, repository.TimesheetFilter{
		UserID: actor.userFilter(filter.UserID),
		Status: filter.Status,
		From:   from,
		To:     to,
	}, filter.Page, filter.Limit)
}

// transition moves a sheet from one status to another inside a transaction
// and records the audit row. check runs after the sheet is loaded.
func (s *timesheetService) transition(ctx context.Context, actor Actor, id uuid.UUID, from, to, action string, check func(context.Context, *model.Timesheet) error, details map[string]any) (*model.Timesheet, error) {
	var sheet *model.Timesheet
	err := s.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		sheet, err = s.Sheets.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "timesheet", id)
		}
		if err := check(txCtx, sheet); err != nil {
			return err
		}
		if sheet.Status != from {
			return apperror.InvalidState("timesheet in status %s cannot move to %s", sheet.Status, to).
				With("status", sheet.Status)
		}

		sheet.Status = to
		if to != model.StatusSubmitted {
			now := s.Clock.Now().UTC()
			reviewer := actor.UserID
			sheet.ReviewedBy = &reviewer
			sheet.ReviewedAt = &now
		}
		if err := s.Sheets.Update(txCtx, sheet); err != nil {
			return fmt.Errorf("failed to update timesheet: %w", err)
		}

		details["user_id"] = sheet.UserID
		details["week_start_date"] = sheet.WeekStartDate.Format(dateLayout)
		return writeAudit(txCtx, s.Audit, &actor.UserID, action, id.String(), "", details)
	})
	if err != nil {
		return nil, err
	}
	return sheet, nil
}

func (s *timesheetService) Submit(ctx context.Context, actor Actor, id uuid.UUID) (*model.Timesheet, error) {
	owner := func(_ context.Context, ts *model.Timesheet) error { return actor.ownerOnly(ts.UserID) }
	sheet, err := s.transition(ctx, actor, id, model.StatusDraft, model.StatusSubmitted, model.ActionSubmitTimesheet, owner, map[string]any{})
	if err != nil {
		return nil, err
	}
	s.Events.Publish(EventTimesheetSubmitted, sheet.UserID, sheet)
	return sheet, nil
}

// sharesCompany applies the scope of a limited approver: the sheet owner
// must belong to one of the approver's companies.
func (s *timesheetService) sharesCompany(actor Actor) func(context.Context, *model.Timesheet) error {
	return func(ctx context.Context, ts *model.Timesheet) error {
		if !actor.Scope.Limited {
			return nil
		}
		ids, err := s.Companies.CompanyIDsForUser(ctx, ts.UserID)
		if err != nil {
			return fmt.Errorf("failed to load memberships: %w", err)
		}
		for _, id := range ids {
			if actor.Scope.AllowsCompany(id) {
				return nil
			}
		}
		return actor.forbidden()
	}
}

func (s *timesheetService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*model.Timesheet, error) {
	sheet, err := s.transition(ctx, actor, id, model.StatusSubmitted, model.StatusApproved, model.ActionApproveTimesheet, s.sharesCompany(actor), map[string]any{})
	if err != nil {
		return nil, err
	}
	s.Events.Publish(EventTimesheetApproved, sheet.UserID, sheet)
	return sheet, nil
}

func (s *timesheetService) Reject(ctx context.Context, actor Actor, id uuid.UUID, req ReviewRequest) (*model.Timesheet, error) {
	sheet, err := s.transition(ctx, actor, id, model.StatusSubmitted, model.StatusRejected, model.ActionRejectTimesheet, s.sharesCompany(actor), map[string]any{"reason": req.Reason})
	if err != nil {
		return nil, err
	}
	s.Events.Publish(EventTimesheetRejected, sheet.UserID, sheet)
	return sheet, nil
}

// reportUsers returns the users a report may cover; nil means everyone.
// A limited caller sees themselves and members of their companies.
func (s *timesheetService) reportUsers(ctx context.Context, actor Actor, requested *uuid.UUID) ([]uuid.UUID, error) {
	if !actor.Scope.Limited {
		if requested != nil && *requested != uuid.Nil {
			return []uuid.UUID{*requested}, nil
		}
		return nil, nil
	}

	allowed := []uuid.UUID{actor.UserID}
	if len(actor.Scope.CompanyIDs) > 0 {
		members, err := s.Companies.MemberIDs(ctx, actor.Scope.CompanyIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load company members: %w", err)
		}
		for _, id := range members {
			if !containsID(allowed, id) {
				allowed = append(allowed, id)
			}
		}
	}

	if requested == nil || *requested == uuid.Nil {
		return allowed, nil
	}
	if !containsID(allowed, *requested) {
		return nil, actor.forbidden()
	}
	return []uuid.UUID{*requested}, nil
}

// GenerateTimeReport aggregates entries per user and overall. Nothing is
// persisted.
func (s *timesheetService) GenerateTimeReport(ctx context.Context, actor Actor, filter TimeReportFilter) (*TimeReport, error) {
	from, err := parseDate("from", filter.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", filter.To)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperror.Validation("to must not be before from").With("field", "to")
	}
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, apperror.Validation("unknown status %q", filter.Status).With("field", "status")
	}

	users, err := s.reportUsers(ctx, actor, filter.UserID)
	if err != nil {
		return nil, err
	}

	entries, err := s.Entries.ListForReport(ctx, repository.TimeEntryFilter{
		CompanyID: filter.CompanyID,
		Status:    filter.Status,
		From:      &from,
		To:        &to,
	}, users)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}

	report := &TimeReport{
		From:    from.Format(dateLayout),
		To:      to.Format(dateLayout),
		Users:   []UserTimeReport{},
		Overall: timecalc.Summarize(entries),
	}

	grouped := make(map[uuid.UUID][]model.TimeEntry)
	var order []uuid.UUID
	for _, e := range entries {
		if _, ok := grouped[e.UserID]; !ok {
			order = append(order, e.UserID)
		}
		grouped[e.UserID] = append(grouped[e.UserID], e)
	}
	for _, id := range order {
		rows := grouped[id]
		r := UserTimeReport{UserID: id, Summary: timecalc.Summarize(rows)}
		if u := rows[0].User; u != nil {
			r.DisplayName = u.DisplayName
			r.Email = u.Email
		}
		report.Users = append(report.Users, r)
	}
	return report, nil
}

func validStatus(status string) bool {
	for _, st := range model.Statuses {
		if st == status {
			return true
		}
	}
	return false
}
