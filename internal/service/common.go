package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Actor is the authenticated caller of an operation together with the scope
// the guard granted for the permission key that protects it.
type Actor struct {
	UserID uuid.UUID
	Key    rbac.Key
	Scope  rbac.Scope
}

// NewActor builds an Actor from the decision recorded for key.
func NewActor(d *rbac.Decision, key rbac.Key) Actor {
	a := Actor{Key: key}
	if d != nil {
		a.UserID = d.UserID
		a.Scope = d.Scope(key)
	}
	return a
}

func (a Actor) forbidden() error {
	return apperror.Forbidden(a.Key.String(), rbac.Authorized.String(), rbac.Limited.String())
}

// targetUser resolves an optional user id from a request. Limited callers
// may only act on themselves.
func (a Actor) targetUser(requested *uuid.UUID) (uuid.UUID, error) {
	if requested == nil || *requested == uuid.Nil {
		return a.UserID, nil
	}
	if !a.Scope.AllowsUser(*requested) {
		return uuid.Nil, a.forbidden()
	}
	return *requested, nil
}

// ownerOnly rejects limited callers touching someone else's record.
func (a Actor) ownerOnly(ownerID uuid.UUID) error {
	if !a.Scope.AllowsUser(ownerID) {
		return a.forbidden()
	}
	return nil
}

// userFilter returns the user id a listing must be restricted to.
func (a Actor) userFilter(requested *uuid.UUID) *uuid.UUID {
	if a.Scope.Limited {
		id := a.Scope.UserID
		return &id
	}
	if requested != nil && *requested != uuid.Nil {
		return requested
	}
	return nil
}

// notFoundOr maps gorm's missing-row error to a NotFound naming the entity.
func notFoundOr(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s %v not found", entity, id)
	}
	return fmt.Errorf("load %s: %w", entity, err)
}

// conflictOr maps a unique violation to a Conflict.
func conflictOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(format, args...)
	}
	return err
}

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, apperror.Validation("%s must be a YYYY-MM-DD date", field).With("field", field)
	}
	return d, nil
}

func parseOptionalDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := parseDate(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// writeAudit records an audit row through the repository so it joins the
// caller's transaction. A nil or zero actor is recorded as the system.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor *uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	if actor != nil && *actor == uuid.Nil {
		actor = nil
	}
	raw, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}
	if err := repo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// Realtime event names pushed to websocket clients.
const (
	EventTimerStarted       = "timer.started"
	EventTimerStopped       = "timer.stopped"
	EventTimerCancelled     = "timer.cancelled"
	EventTimesheetSubmitted = "timesheet.submitted"
	EventTimesheetApproved  = "timesheet.approved"
	EventTimesheetRejected  = "timesheet.rejected"
)

// EventPublisher fans domain events out to connected clients.
type EventPublisher interface {
	Publish(event string, userID uuid.UUID, payload any)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, uuid.UUID, any) {}
