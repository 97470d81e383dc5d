package postgres

import (
	"context"

	"github.com/yoockh/jobber/internal/models"
	"gorm.io/gorm"
)

type ApplicationRepository interface {
	Create(ctx context.Context, a *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	Exists(ctx context.Context, applicantID, jobID int64) (bool, error)
	ListByApplicant(ctx context.Context, applicantID int64) ([]models.Application, error)
	ListByApplicantAndStatus(ctx context.Context, applicantID int64, status models.ApplicationStatus) ([]models.Application, error)
	ListByJob(ctx context.Context, jobID int64) ([]models.Application, error)
	ListByEmployer(ctx context.Context, employerID int64) ([]models.Application, error)
	ListAll(ctx context.Context) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type applicationRepo struct {
	db *gorm.DB
}

func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) full(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Job").
		Preload("Job.Employer").
		Preload("Applicant").
		Preload("Applicant.Role")
}

func (r *applicationRepo) Create(ctx context.Context, a *models.Application) error {
	return translate(r.db.WithContext(ctx).Omit("Job", "Applicant").Create(a).Error)
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	var a models.Application
	if err := r.full(ctx).Take(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *applicationRepo) Exists(ctx context.Context, applicantID, jobID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("applicant_id = ? AND job_id = ?", applicantID, jobID).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepo) list(ctx context.Context, query string, args ...any) ([]models.Application, error) {
	var out []models.Application
	q := r.full(ctx)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Order("applied_at DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *applicationRepo) ListByApplicant(ctx context.Context, applicantID int64) ([]models.Application, error) {
	return r.list(ctx, "applicant_id = ?", applicantID)
}

func (r *applicationRepo) ListByApplicantAndStatus(ctx context.Context, applicantID int64, status models.ApplicationStatus) ([]models.Application, error) {
	return r.list(ctx, "applicant_id = ? AND status = ?", applicantID, status)
}

func (r *applicationRepo) ListByJob(ctx context.Context, jobID int64) ([]models.Application, error) {
	return r.list(ctx, "job_id = ?", jobID)
}

func (r *applicationRepo) ListByEmployer(ctx context.Context, employerID int64) ([]models.Application, error) {
	return r.list(ctx, "job_id IN (?)",
		r.db.WithContext(ctx).Model(&models.Job{}).Select("id").Where("employer_id = ?", employerID))
}

func (r *applicationRepo) ListAll(ctx context.Context) ([]models.Application, error) {
	return r.list(ctx, "")
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	return affected(r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Update("status", status))
}

func (r *applicationRepo) Delete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&models.Application{}, id))
}

func (r *applicationRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Application{}).Count(&n).Error
	return n, err
}
