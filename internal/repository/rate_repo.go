package repository

import (
	"context"
	"time"

	"hrms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RateRepository interface {
	Create(ctx context.Context, rate *model.Rate) error
	Update(ctx context.Context, rate *model.Rate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error)
	List(ctx context.Context, userID *uuid.UUID, page, limit int) ([]model.Rate, int64, error)
	FindOverlapping(ctx context.Context, userID uuid.UUID, rateType string, from time.Time, to *time.Time, excludeID *uuid.UUID) (*model.Rate, error)
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) Create(ctx context.Context, rate *model.Rate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *rateRepository) Update(ctx context.Context, rate *model.Rate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *rateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Rate{}).Error
}

func (r *rateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Rate, error) {
	var rate model.Rate
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *rateRepository) List(ctx context.Context, userID *uuid.UUID, page, limit int) ([]model.Rate, int64, error) {
	var rates []model.Rate
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Rate{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("valid_from desc").Scopes(paginate(page, limit)).Find(&rates).Error; err != nil {
		return nil, 0, err
	}
	return rates, total, nil
}

// FindOverlapping returns a rate of the same type for the user whose validity
// period intersects [from, to]. A nil end on either side is open-ended.
func (r *rateRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, rateType string, from time.Time, to *time.Time, excludeID *uuid.UUID) (*model.Rate, error) {
	query := GetDB(ctx, r.db).
		Where("user_id = ? AND type = ?", userID, rateType).
		Where("valid_to IS NULL OR valid_to >= ?", from)
	if to != nil {
		query = query.Where("valid_from <= ?", *to)
	}
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var rates []model.Rate
	if err := query.Order("valid_from asc").Limit(1).Find(&rates).Error; err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, nil
	}
	return &rates[0], nil
}
