package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/auth"
	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/repository"
	"hrms/pkg/logger"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for any failed login so callers cannot
// probe which part was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DTOs for Request validation
type CreateUserRequest struct {
	Email       string      `json:"email" binding:"required,email"`
	DisplayName string      `json:"display_name" binding:"required"`
	Password    string      `json:"password" binding:"required,min=8"`
	RoleIDs     []uuid.UUID `json:"role_ids"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	Roles       []string  `json:"roles"`
	CreatedAt   string    `json:"created_at"`
}

type MeResponse struct {
	UserResponse
	Permissions map[string]rbac.Level `json:"permissions"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error)
	GetUserByID(ctx context.Context, actor Actor, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, actor Actor, page, limit int) ([]UserResponse, int64, error)
}

type userService struct {
	tx         repository.TransactionManager
	repo       repository.UserRepository
	roles      repository.RoleRepository
	companies  repository.CompanyRepository
	authz      AuthorizationService
	jwt        *auth.JWTManager
	refreshTTL time.Duration
	clock      clock.Clock
	log        logger.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(
	tx repository.TransactionManager,
	repo repository.UserRepository,
	roles repository.RoleRepository,
	companies repository.CompanyRepository,
	authz AuthorizationService,
	jwt *auth.JWTManager,
	refreshTTL time.Duration,
	clk clock.Clock,
	log logger.Logger,
) UserService {
	if clk == nil {
		clk = clock.New()
	}
	return &userService{
		tx: tx, repo: repo, roles: roles, companies: companies, authz: authz,
		jwt: jwt, refreshTTL: refreshTTL, clock: clk, log: log,
	}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, ur := range user.Roles {
		roles = append(roles, ur.Role.Name)
	}
	return &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsActive:    user.IsActive,
		Roles:       roles,
		CreatedAt:   user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already exists").With("email", email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:       email,
		DisplayName: req.DisplayName,
		Password:    string(hashedPassword),
		IsActive:    true,
	}

	roleIDs := uniqueIDs(req.RoleIDs)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return conflictOr(err, "email already exists")
		}
		if len(roleIDs) == 0 {
			return nil
		}
		found, err := s.roles.FindByIDs(txCtx, roleIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch roles: %w", err)
		}
		if len(found) != len(roleIDs) {
			return apperror.Validation("one or more roles do not exist").With("field", "role_ids")
		}
		return s.roles.ReplaceUserRoles(txCtx, user.ID, roleIDs)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, notFoundOr(err, "user", user.ID)
	}
	return mapToResponse(created), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.DeleteExpiredRefreshTokens(ctx, s.clock.Now().UTC()); err != nil {
		s.log.Warn("failed to prune expired refresh tokens", "error", err)
	}

	s.log.Info("user logged in", "user_id", user.ID)
	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token, exp, err := s.jwt.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString() + uuid.NewString(),
		ExpiresAt: s.clock.Now().Add(s.refreshTTL).UTC(),
	}
	if err := s.repo.SaveRefreshToken(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{Token: token, ExpiresAt: exp, RefreshToken: rt.Token}, nil
}

// RefreshToken rotates the refresh token: the presented one is consumed.
func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	var res *TokenResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		rt, err := s.repo.FindRefreshToken(txCtx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		if err := s.repo.DeleteRefreshToken(txCtx, rt.Token); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		if s.clock.Now().After(rt.ExpiresAt) || !rt.User.IsActive {
			return ErrInvalidCredentials
		}
		res, err = s.issueTokens(txCtx, &rt.User)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	eff, err := s.authz.EffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{UserResponse: *mapToResponse(user), Permissions: eff}, nil
}

// GetUserByID applies the company scope when the caller is limited: the
// caller sees themselves and members of their companies.
func (s *userService) GetUserByID(ctx context.Context, actor Actor, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	if actor.Scope.Limited && id != actor.UserID {
		members, err := s.companies.MemberIDs(ctx, actor.Scope.CompanyIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve company scope: %w", err)
		}
		if !containsID(members, id) {
			return nil, apperror.NotFound("user %s not found", id)
		}
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, actor Actor, page, limit int) ([]UserResponse, int64, error) {
	var companyIDs []uuid.UUID
	if actor.Scope.Limited {
		companyIDs = actor.Scope.CompanyIDs
		if companyIDs == nil {
			companyIDs = []uuid.UUID{}
		}
	}

	users, total, err := s.repo.List(ctx, companyIDs, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
