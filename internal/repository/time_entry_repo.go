package repository

import (
	"context"
	"time"

	"hrms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeEntryFilter narrows entry listings. Zero fields are ignored.
type TimeEntryFilter struct {
	UserID    *uuid.UUID
	CompanyID *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

func (f TimeEntryFilter) apply(db *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		db = db.Where("time_entries.user_id = ?", *f.UserID)
	}
	if f.CompanyID != nil {
		db = db.Where("time_entries.company_id = ?", *f.CompanyID)
	}
	if f.Status != "" {
		db = db.Where("time_entries.status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("time_entries.date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("time_entries.date <= ?", *f.To)
	}
	return db
}

type TimeEntryRepository interface {
	Create(ctx context.Context, entry *model.TimeEntry) error
	Update(ctx context.Context, entry *model.TimeEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TimeEntry, error)
	FindOverlapping(ctx context.Context, userID uuid.UUID, date, start, end time.Time, excludeID *uuid.UUID) (*model.TimeEntry, error)
	FindOpenTimer(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error)
	List(ctx context.Context, filter TimeEntryFilter, page, limit int) ([]model.TimeEntry, int64, error)
	ListForUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.TimeEntry, error)
	ListForReport(ctx context.Context, filter TimeEntryFilter, userIDs []uuid.UUID) ([]model.TimeEntry, error)
}

type timeEntryRepository struct {
	db *gorm.DB
}

func NewTimeEntryRepository(db *gorm.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

func (r *timeEntryRepository) Create(ctx context.Context, entry *model.TimeEntry) error {
	return GetDB(ctx, r.db).Omit("User", "Company").Create(entry).Error
}

func (r *timeEntryRepository) Update(ctx context.Context, entry *model.TimeEntry) error {
	return GetDB(ctx, r.db).Omit("User", "Company").Save(entry).Error
}

// Delete removes the row permanently.
func (r *timeEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TimeEntry{}).Error
}

func (r *timeEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TimeEntry, error) {
	var e model.TimeEntry
	if err := GetDB(ctx, r.db).Preload("Company").First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// FindOverlapping returns one closed entry of the user on date whose
// interval touches or intersects [start, end], or nil.
func (r *timeEntryRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, date, start, end time.Time, excludeID *uuid.UUID) (*model.TimeEntry, error) {
	query := GetDB(ctx, r.db).
		Where("user_id = ? AND date = ?", userID, date).
		Where("start_at IS NOT NULL AND end_at IS NOT NULL").
		Where("start_at <= ? AND end_at >= ?", end, start)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var entries []model.TimeEntry
	if err := query.Order("start_at asc").Limit(1).Find(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// FindOpenTimer returns the user's running timer regardless of date, or nil.
func (r *timeEntryRepository) FindOpenTimer(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error) {
	var entries []model.TimeEntry
	err := GetDB(ctx, r.db).
		Where("user_id = ? AND source = ? AND start_at IS NOT NULL AND end_at IS NULL", userID, model.SourceTimer).
		Order("start_at desc").
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *timeEntryRepository) List(ctx context.Context, filter TimeEntryFilter, page, limit int) ([]model.TimeEntry, int64, error) {
	var entries []model.TimeEntry
	var total int64

	query := filter.apply(GetDB(ctx, r.db).Model(&model.TimeEntry{}))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Company").
		Order("time_entries.date desc").
		Order("time_entries.start_at desc").
		Scopes(paginate(page, limit)).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListForUserBetween returns every entry of the user dated within [from, to].
func (r *timeEntryRepository) ListForUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	err := GetDB(ctx, r.db).
		Preload("Company").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date asc").
		Order("start_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ListForReport loads entries with their user and company. A non-nil
// userIDs limits the result to those users.
func (r *timeEntryRepository) ListForReport(ctx context.Context, filter TimeEntryFilter, userIDs []uuid.UUID) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	query := filter.apply(GetDB(ctx, r.db).Model(&model.TimeEntry{}))
	if userIDs != nil {
		query = query.Where("time_entries.user_id IN ?", userIDs)
	}
	err := query.
		Preload("User").
		Preload("Company").
		Order("time_entries.user_id asc").
		Order("time_entries.date asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
