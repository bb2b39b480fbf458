package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrms/internal/apperror"
	"hrms/internal/model"
	"hrms/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateRateRequest struct {
	UserID    uuid.UUID       `json:"user_id" binding:"required"`
	Type      string          `json:"type" binding:"required,oneof=HOURLY DAILY MONTHLY"`
	Value     decimal.Decimal `json:"value"`
	Currency  string          `json:"currency" binding:"omitempty,len=3"`
	ValidFrom string          `json:"valid_from" binding:"required"`
	ValidTo   *string         `json:"valid_to"`
}

type UpdateRateRequest struct {
	Type      *string          `json:"type" binding:"omitempty,oneof=HOURLY DAILY MONTHLY"`
	Value     *decimal.Decimal `json:"value"`
	Currency  *string          `json:"currency" binding:"omitempty,len=3"`
	ValidFrom *string          `json:"valid_from"`
	ValidTo   *string          `json:"valid_to"`
}

type RateService interface {
	Create(ctx context.Context, req CreateRateRequest) (*model.Rate, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRateRequest) (*model.Rate, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Rate, error)
	List(ctx context.Context, actor Actor, userID *uuid.UUID, page, limit int) ([]model.Rate, int64, error)
	Current(ctx context.Context, actor Actor, userID *uuid.UUID, rateType, date string) (*model.Rate, error)
}

type rateService struct {
	tx    repository.TransactionManager
	repo  repository.RateRepository
	users repository.UserRepository
}

func NewRateService(tx repository.TransactionManager, repo repository.RateRepository, users repository.UserRepository) RateService {
	return &rateService{tx: tx, repo: repo, users: users}
}

func validatePeriod(from time.Time, to *time.Time) error {
	if to != nil && to.Before(from) {
		return apperror.Validation("valid_to must not be before valid_from").With("field", "valid_to")
	}
	return nil
}

func (s *rateService) checkOverlap(ctx context.Context, r *model.Rate, exclude *uuid.UUID) error {
	hit, err := s.repo.FindOverlapping(ctx, r.UserID, r.Type, r.ValidFrom, r.ValidTo, exclude)
	if err != nil {
		return fmt.Errorf("failed to check rate overlap: %w", err)
	}
	if hit != nil {
		return apperror.Conflict("rate period overlaps with existing rate %s", hit.ID).With("conflicting_id", hit.ID)
	}
	return nil
}

func (s *rateService) Create(ctx context.Context, req CreateRateRequest) (*model.Rate, error) {
	if req.Value.IsNegative() {
		return nil, apperror.Validation("value must not be negative").With("field", "value")
	}
	from, err := parseDate("valid_from", req.ValidFrom)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate("valid_to", req.ValidTo)
	if err != nil {
		return nil, err
	}
	if err := validatePeriod(from, to); err != nil {
		return nil, err
	}

	rate := &model.Rate{
		UserID:    req.UserID,
		Type:      req.Type,
		Value:     req.Value,
		Currency:  strings.ToUpper(req.Currency),
		ValidFrom: from,
		ValidTo:   to,
	}
	if rate.Currency == "" {
		rate.Currency = "USD"
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetByID(txCtx, req.UserID); err != nil {
			return notFoundOr(err, "user", req.UserID)
		}
		if err := s.users.LockForUpdate(txCtx, req.UserID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if err := s.checkOverlap(txCtx, rate, nil); err != nil {
			return err
		}
		return s.repo.Create(txCtx, rate)
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *rateService) Update(ctx context.Context, id uuid.UUID, req UpdateRateRequest) (*model.Rate, error) {
	var rate *model.Rate
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		rate, err = s.repo.FindByID(txCtx, id)
		if err != nil {
			return notFoundOr(err, "rate", id)
		}

		if req.Type != nil {
			rate.Type = *req.Type
		}
		if req.Value != nil {
			if req.Value.IsNegative() {
				return apperror.Validation("value must not be negative").With("field", "value")
			}
			rate.Value = *req.Value
		}
		if req.Currency != nil {
			rate.Currency = strings.ToUpper(*req.Currency)
		}
		if req.ValidFrom != nil {
			from, err := parseDate("valid_from", *req.ValidFrom)
			if err != nil {
				return err
			}
			rate.ValidFrom = from
		}
		if req.ValidTo != nil {
			// An empty string clears the end date.
			to, err := parseOptionalDate("valid_to", req.ValidTo)
			if err != nil {
				return err
			}
			rate.ValidTo = to
		}
		if err := validatePeriod(rate.ValidFrom, rate.ValidTo); err != nil {
			return err
		}

		if err := s.users.LockForUpdate(txCtx, rate.UserID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}
		if err := s.checkOverlap(txCtx, rate, &rate.ID); err != nil {
			return err
		}
		return s.repo.Update(txCtx, rate)
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *rateService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOr(err, "rate", id)
	}
	return s.repo.Delete(ctx, id)
}

func (s *rateService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Rate, error) {
	rate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "rate", id)
	}
	if err := actor.ownerOnly(rate.UserID); err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *rateService) List(ctx context.Context, actor Actor, userID *uuid.UUID, page, limit int) ([]model.Rate, int64, error) {
	return s.repo.List(ctx, actor.userFilter(userID), page, limit)
}

// Current returns the rate of rateType in force on date, or nil. Limited
// callers may only look up their own rate.
func (s *rateService) Current(ctx context.Context, actor Actor, userID *uuid.UUID, rateType, date string) (*model.Rate, error) {
	target, err := actor.targetUser(userID)
	if err != nil {
		return nil, err
	}
	switch rateType {
	case model.RateTypeHourly, model.RateTypeDaily, model.RateTypeMonthly:
	default:
		return nil, apperror.Validation("type must be one of HOURLY, DAILY, MONTHLY").With("field", "type")
	}
	on, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	return s.repo.FindOverlapping(ctx, target, rateType, on, &on, nil)
}
