package postgres

import (
	"context"

	"github.com/yoockh/jobber/internal/models"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, r *models.Role) error
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) Create(ctx context.Context, role *models.Role) error {
	return translate(r.db.WithContext(ctx).Create(role).Error)
}

func (r *roleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Take(&role, id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepo) List(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	err := r.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}
