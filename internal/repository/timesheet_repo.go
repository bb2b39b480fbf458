package repository

import (
	"context"
	"time"

	"hrms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimesheetFilter struct {
	UserID *uuid.UUID
	Status string
	From   *time.Time
	To     *time.Time
}

type TimesheetRepository interface {
	Create(ctx context.Context, ts *model.Timesheet) error
	Update(ctx context.Context, ts *model.Timesheet) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Timesheet, error)
	FindByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*model.Timesheet, error)
	List(ctx context.Context, filter TimesheetFilter, page, limit int) ([]model.Timesheet, int64, error)
}

type timesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) TimesheetRepository {
	return &timesheetRepository{db: db}
}

func (r *timesheetRepository) Create(ctx context.Context, ts *model.Timesheet) error {
	return GetDB(ctx, r.db).Omit("User").Create(ts).Error
}

func (r *timesheetRepository) Update(ctx context.Context, ts *model.Timesheet) error {
	return GetDB(ctx, r.db).Omit("User").Save(ts).Error
}

func (r *timesheetRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Timesheet, error) {
	var ts model.Timesheet
	if err := GetDB(ctx, r.db).Preload("User").First(&ts, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ts, nil
}

// FindByUserWeek returns the sheet for the week, or nil when none exists.
func (r *timesheetRepository) FindByUserWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*model.Timesheet, error) {
	var sheets []model.Timesheet
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND week_start_date = ?", userID, weekStart).
		Limit(1).
		Find(&sheets).Error
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, nil
	}
	return &sheets[0], nil
}

func (r *timesheetRepository) List(ctx context.Context, filter TimesheetFilter, page, limit int) ([]model.Timesheet, int64, error) {
	var sheets []model.Timesheet
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Timesheet{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("week_start_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("week_start_date <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Preload("User").Order("week_start_date desc").Scopes(paginate(page, limit)).Find(&sheets).Error; err != nil {
		return nil, 0, err
	}
	return sheets, total, nil
}
