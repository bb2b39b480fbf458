package service

import (
	"context"
	"fmt"

	"hrms/internal/apperror"
	"hrms/internal/metrics"
	"hrms/internal/rbac"
	"hrms/internal/repository"
	"hrms/pkg/logger"

	"github.com/google/uuid"
)

// AuthorizationService evaluates permission requirements against a user's
// roles. Role data is read fresh on every call.
type AuthorizationService interface {
	Authorize(ctx context.Context, userID uuid.UUID, reqs ...rbac.Requirement) (*rbac.Decision, error)
	EffectivePermissions(ctx context.Context, userID uuid.UUID) (rbac.Effective, error)
}

type authorizationService struct {
	roles     repository.RoleRepository
	companies repository.CompanyRepository
	metrics   *metrics.Metrics
	log       logger.Logger
}

func NewAuthorizationService(roles repository.RoleRepository, companies repository.CompanyRepository, m *metrics.Metrics, log logger.Logger) AuthorizationService {
	return &authorizationService{roles: roles, companies: companies, metrics: m, log: log}
}

// loadEffective reads the user's roles with their permission links once and
// merges them.
func (s *authorizationService) loadEffective(ctx context.Context, userID uuid.UUID) (rbac.Effective, error) {
	roles, err := s.roles.FindRolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load roles for user %s: %w", userID, err)
	}
	grants := make([]rbac.Grants, 0, len(roles))
	for i := range roles {
		grants = append(grants, roles[i].Grants())
	}
	return rbac.Merge(grants...), nil
}

func (s *authorizationService) EffectivePermissions(ctx context.Context, userID uuid.UUID) (rbac.Effective, error) {
	return s.loadEffective(ctx, userID)
}

// Authorize fails closed on the first unmet requirement. A requirement met
// at exactly LIMITED records a narrowed scope instead of full access.
func (s *authorizationService) Authorize(ctx context.Context, userID uuid.UUID, reqs ...rbac.Requirement) (*rbac.Decision, error) {
	eff, err := s.loadEffective(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := &rbac.Decision{
		UserID: userID,
		Levels: make(map[string]rbac.Level, len(reqs)),
		Scopes: make(map[string]rbac.Scope, len(reqs)),
	}

	var companyIDs []uuid.UUID
	companiesLoaded := false

	for _, req := range reqs {
		key := req.Key.String()
		level := eff.Level(req.Key)
		required := req.Required()

		if !rbac.Satisfies(level, required) {
			actual := "none"
			if _, ok := eff[key]; ok {
				actual = level.String()
			}
			s.metrics.ObserveDecision(key, metrics.OutcomeDenied)
			s.log.Debug("authorization denied", "user_id", userID, "key", key, "required", required, "actual", actual)
			return nil, apperror.Forbidden(key, required.String(), actual)
		}

		decision.Levels[key] = level
		if level != rbac.Limited {
			decision.Scopes[key] = rbac.Scope{}
			s.metrics.ObserveDecision(key, metrics.OutcomeGranted)
			continue
		}

		scope := rbac.Scope{Limited: true, UserID: userID}
		if scopedByCompany(req.Key.Resource) {
			if !companiesLoaded {
				companyIDs, err = s.companies.CompanyIDsForUser(ctx, userID)
				if err != nil {
					return nil, fmt.Errorf("load company scope for user %s: %w", userID, err)
				}
				companiesLoaded = true
			}
			scope.CompanyIDs = companyIDs
		}
		decision.Scopes[key] = scope
		s.metrics.ObserveDecision(key, metrics.OutcomeLimited)
	}

	return decision, nil
}

func scopedByCompany(resource string) bool {
	switch resource {
	case rbac.ResourceUsers, rbac.ResourceCompanies, rbac.ResourceTime:
		return true
	}
	return false
}
