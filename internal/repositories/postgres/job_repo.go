package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/jobber/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository interface {
	Create(ctx context.Context, j *models.Job) error
	GetByID(ctx context.Context, id int64) (*models.Job, error)
	List(ctx context.Context) ([]models.Job, error)
	ListByEmployer(ctx context.Context, employerID int64) ([]models.Job, error)
	Update(ctx context.Context, j *models.Job) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context) (map[models.JobStatus]int64, error)
	// Recommend returns open jobs ordered by cosine distance to vec.
	Recommend(ctx context.Context, vec pgvector.Vector, limit int) ([]models.Job, error)
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) withEmployer(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Employer").Preload("Employer.Role")
}

func (r *jobRepo) Create(ctx context.Context, j *models.Job) error {
	return translate(r.db.WithContext(ctx).Omit("Employer").Create(j).Error)
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*models.Job, error) {
	var j models.Job
	if err := r.withEmployer(ctx).Take(&j, id).Error; err != nil {
		return nil, translate(err)
	}
	return &j, nil
}

func (r *jobRepo) List(ctx context.Context) ([]models.Job, error) {
	var out []models.Job
	err := r.withEmployer(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *jobRepo) ListByEmployer(ctx context.Context, employerID int64) ([]models.Job, error) {
	var out []models.Job
	err := r.withEmployer(ctx).
		Where("employer_id = ?", employerID).
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *jobRepo) Update(ctx context.Context, j *models.Job) error {
	res := r.db.WithContext(ctx).
		Model(&models.Job{ID: j.ID}).
		Select("title", "slug", "description", "location", "salary", "status", "skill_vector").
		Updates(j)
	return affected(res)
}

func (r *jobRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Job{}, id))
}

func (r *jobRepo) CountByStatus(ctx context.Context) (map[models.JobStatus]int64, error) {
	var rows []struct {
		Status models.JobStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Job{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.JobStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *jobRepo) Recommend(ctx context.Context, vec pgvector.Vector, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []models.Job
	err := r.withEmployer(ctx).
		Where("status = ? AND skill_vector IS NOT NULL", models.JobOpen).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "skill_vector <=> ?", Vars: []any{vec}},
		}).
		Limit(limit).
		Find(&out).Error
	return out, err
}
