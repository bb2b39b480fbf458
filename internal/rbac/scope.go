package rbac

import (
	"context"

	"github.com/google/uuid"
)

// Scope narrows a LIMITED grant. A non-limited scope imposes no filter.
type Scope struct {
	Limited    bool
	UserID     uuid.UUID
	CompanyIDs []uuid.UUID
}

// AllowsCompany reports whether id is visible under the scope.
func (s Scope) AllowsCompany(id uuid.UUID) bool {
	if !s.Limited {
		return true
	}
	for _, c := range s.CompanyIDs {
		if c == id {
			return true
		}
	}
	return false
}

// AllowsUser reports whether records owned by userID are visible.
func (s Scope) AllowsUser(userID uuid.UUID) bool {
	return !s.Limited || s.UserID == userID
}

// Decision is the successful outcome of an authorization check.
type Decision struct {
	UserID uuid.UUID
	Levels map[string]Level
	Scopes map[string]Scope
}

// Scope returns the scope recorded for key; unrecorded keys are unrestricted.
func (d *Decision) Scope(key Key) Scope {
	if d == nil {
		return Scope{}
	}
	return d.Scopes[key.String()]
}

// Limited reports whether any checked requirement resolved to Limited.
func (d *Decision) Limited() bool {
	if d == nil {
		return false
	}
	for _, s := range d.Scopes {
		if s.Limited {
			return true
		}
	}
	return false
}

type decisionKey struct{}

func WithDecision(ctx context.Context, d *Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

func DecisionFromContext(ctx context.Context) (*Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(*Decision)
	return d, ok
}
