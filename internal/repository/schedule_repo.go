package repository

import (
	"context"

	"hrms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *model.Schedule) error
	Update(ctx context.Context, s *model.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
	FindDefault(ctx context.Context, userID uuid.UUID) (*model.Schedule, error)
	List(ctx context.Context, userID *uuid.UUID) ([]model.Schedule, error)
	ReplaceDays(ctx context.Context, scheduleID uuid.UUID, days []model.ScheduleDay) error
	ClearDefault(ctx context.Context, userID uuid.UUID, exceptID uuid.UUID) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func orderedDays(db *gorm.DB) *gorm.DB {
	return db.Order("weekday asc")
}

// Create inserts the schedule and its days.
func (r *scheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	return GetDB(ctx, r.db).Create(s).Error
}

// Update writes the schedule's own columns. Days are replaced separately.
func (r *scheduleRepository) Update(ctx context.Context, s *model.Schedule) error {
	return GetDB(ctx, r.db).Model(s).
		Select("name", "timezone", "is_default").
		Updates(map[string]any{"name": s.Name, "timezone": s.Timezone, "is_default": s.IsDefault}).Error
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("schedule_id = ?", id).Delete(&model.ScheduleDay{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Schedule{}).Error
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	var s model.Schedule
	if err := GetDB(ctx, r.db).Preload("Days", orderedDays).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindDefault returns the user's default schedule, or nil.
func (r *scheduleRepository) FindDefault(ctx context.Context, userID uuid.UUID) (*model.Schedule, error) {
	var schedules []model.Schedule
	err := GetDB(ctx, r.db).
		Preload("Days", orderedDays).
		Where("user_id = ? AND is_default = ?", userID, true).
		Limit(1).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, nil
	}
	return &schedules[0], nil
}

func (r *scheduleRepository) List(ctx context.Context, userID *uuid.UUID) ([]model.Schedule, error) {
	var schedules []model.Schedule
	query := GetDB(ctx, r.db).Preload("Days", orderedDays)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if err := query.Order("created_at asc").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// ReplaceDays deletes every day of the schedule and inserts days. Callers
// run it inside a transaction.
func (r *scheduleRepository) ReplaceDays(ctx context.Context, scheduleID uuid.UUID, days []model.ScheduleDay) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("schedule_id = ?", scheduleID).Delete(&model.ScheduleDay{}).Error; err != nil {
		return err
	}
	if len(days) == 0 {
		return nil
	}
	for i := range days {
		days[i].ScheduleID = scheduleID
	}
	return db.Create(&days).Error
}

func (r *scheduleRepository) ClearDefault(ctx context.Context, userID uuid.UUID, exceptID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Schedule{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, exceptID, true).
		Update("is_default", false).Error
}
