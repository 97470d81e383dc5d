package postgres

import (
	"context"

	"github.com/yoockh/jobber/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if err := r.db.WithContext(ctx).Omit("Role").Create(u).Error; err != nil {
		return translate(err)
	}
	return r.db.WithContext(ctx).Take(&u.Role, u.RoleID).Error
}

func (r *userRepo) take(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where(query, arg).
		Take(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.take(ctx, "username = ?", username)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.take(ctx, "email = ?", email)
}

func (r *userRepo) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where(query, arg).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.db.WithContext(ctx).Preload("Role").Order("id").Find(&out).Error
	return out, err
}

func (r *userRepo) Update(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{ID: u.ID}).
		Select("full_name", "phone", "skills", "experience", "resume_url", "skill_vector", "role_id").
		Updates(u)
	return affected(res)
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&models.User{}, id))
}

func (r *userRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Name  string
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("roles.name AS name, COUNT(*) AS total").
		Joins("JOIN roles ON roles.id = users.role_id").
		Group("roles.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Total
	}
	return out, nil
}
