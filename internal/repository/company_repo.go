package repository

import (
	"context"

	"hrms/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, ids []uuid.UUID, page, limit int) ([]model.Company, int64, error)
	AddMember(ctx context.Context, m *model.CompanyMembership) error
	RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error
	CompanyIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	MemberIDs(ctx context.Context, companyIDs []uuid.UUID) ([]uuid.UUID, error)
}

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return GetDB(ctx, r.db).Create(company).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	if err := GetDB(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *companyRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	if err := GetDB(ctx, r.db).Model(&model.Company{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// List pages through companies. A non-nil ids restricts the result set.
func (r *companyRepository) List(ctx context.Context, ids []uuid.UUID, page, limit int) ([]model.Company, int64, error) {
	var companies []model.Company
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Company{})
	if ids != nil {
		query = query.Where("id IN ?", ids)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("name asc").Scopes(paginate(page, limit)).Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

func (r *companyRepository) AddMember(ctx context.Context, m *model.CompanyMembership) error {
	return GetDB(ctx, r.db).Omit("Company").Create(m).Error
}

func (r *companyRepository) RemoveMember(ctx context.Context, companyID, userID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Delete(&model.CompanyMembership{}).Error
}

func (r *companyRepository) CompanyIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := GetDB(ctx, r.db).Model(&model.CompanyMembership{}).
		Where("user_id = ?", userID).
		Pluck("company_id", &ids).Error
	return ids, err
}

func (r *companyRepository) MemberIDs(ctx context.Context, companyIDs []uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if len(companyIDs) == 0 {
		return ids, nil
	}
	err := GetDB(ctx, r.db).Model(&model.CompanyMembership{}).
		Distinct("user_id").
		Where("company_id IN ?", companyIDs).
		Pluck("user_id", &ids).Error
	return ids, err
}
