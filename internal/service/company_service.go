package service

import (
	"context"
	"fmt"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/repository"

	"github.com/google/uuid"
)

type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"omitempty,oneof=CLIENT CONTRACTOR INTERNAL"`
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type CompanyService interface {
	Create(ctx context.Context, req CreateCompanyRequest) (*model.Company, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Company, error)
	List(ctx context.Context, actor Actor, page, limit int) ([]model.Company, int64, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	AddMember(ctx context.Context, companyID uuid.UUID, req AddMemberRequest) error
	RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error
}

type companyService struct {
	repo  repository.CompanyRepository
	users repository.UserRepository
}

func NewCompanyService(repo repository.CompanyRepository, users repository.UserRepository) CompanyService {
	return &companyService{repo: repo, users: users}
}

func (s *companyService) Create(ctx context.Context, req CreateCompanyRequest) (*model.Company, error) {
	c := &model.Company{Name: req.Name, Type: req.Type}
	if c.Type == "" {
		c.Type = model.CompanyTypeClient
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return c, nil
}

func (s *companyService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Company, error) {
	if !actor.Scope.AllowsCompany(id) {
		return nil, apperror.NotFound("company %s not found", id)
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "company", id)
	}
	return c, nil
}

func (s *companyService) List(ctx context.Context, actor Actor, page, limit int) ([]model.Company, int64, error) {
	var ids []uuid.UUID
	if actor.Scope.Limited {
		ids = append([]uuid.UUID{}, actor.Scope.CompanyIDs...)
	}
	return s.repo.List(ctx, ids, page, limit)
}

func (s *companyService) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *companyService) AddMember(ctx context.Context, companyID uuid.UUID, req AddMemberRequest) error {
	if _, err := s.repo.FindByID(ctx, companyID); err != nil {
		return notFoundOr(err, "company", companyID)
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return notFoundOr(err, "user", req.UserID)
	}
	m := &model.CompanyMembership{UserID: req.UserID, CompanyID: companyID}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return conflictOr(err, "user %s is already a member of company %s", req.UserID, companyID)
	}
	return nil
}

func (s *companyService) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	return s.repo.RemoveMember(ctx, companyID, userID)
}
