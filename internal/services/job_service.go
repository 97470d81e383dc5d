package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/cache"
	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/skills"
	"github.com/yoockh/jobber/internal/utils"
	"gorm.io/datatypes"
)

type JobInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Salary      float64 `json:"salary"`
	Status      string  `json:"status"`
}

type JobUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Salary      *float64 `json:"salary,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

type JobService interface {
	Create(ctx context.Context, actor auth.Principal, in JobInput) (*models.Job, error)
	Get(ctx context.Context, id int64) (*models.Job, error)
	List(ctx context.Context) ([]models.Job, error)
	ListByEmployer(ctx context.Context, employerID int64) ([]models.Job, error)
	Update(ctx context.Context, actor auth.Principal, id int64, in JobUpdate) (*models.Job, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*models.Job, error)
	Delete(ctx context.Context, actor auth.Principal, id int64) error
	Recommend(ctx context.Context, applicantID int64, limit int) ([]models.Job, error)
	JobCacheEvicter
}

const jobListKey = "jobs:list"

func jobKey(id int64) string { return "jobs:" + strconv.FormatInt(id, 10) }

type jobService struct {
	jobs  pgrepo.JobRepository
	users pgrepo.UserRepository
	cache cache.Cache
	ttl   time.Duration
	log   *logrus.Logger
	now   func() time.Time
}

// NewJobService wires the job use cases; c may be nil to disable caching.
func NewJobService(jobs pgrepo.JobRepository, users pgrepo.UserRepository, c cache.Cache, ttl time.Duration, log *logrus.Logger) JobService {
	if log == nil {
		log = logrus.New()
	}
	return &jobService{jobs: jobs, users: users, cache: c, ttl: ttl, log: log, now: time.Now}
}

func parseJobStatus(op, s string) (models.JobStatus, error) {
	st := models.JobStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st == "ACTIVE" {
		st = models.JobOpen
	}
	if !st.Valid() {
		return "", utils.E(utils.CodeInvalidArgument, op, "status must be one of OPEN, INACTIVE, CLOSED", nil)
	}
	return st, nil
}

func jobVector(j *models.Job) {
	j.SkillVector = skills.Vector(skills.Extract(j.Title + "\n" + j.Description))
}

func (s *jobService) Create(ctx context.Context, actor auth.Principal, in JobInput) (*models.Job, error) {
	const op = "JobService.Create"

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "title is required", nil)
	}
	if in.Salary < 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "salary must not be negative", nil)
	}
	status := models.JobOpen
	if in.Status != "" {
		st, err := parseJobStatus(op, in.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}

	employer, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, utils.Repo(op, "Employer not found", err)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	j := &models.Job{
		Title:       title,
		Slug:        slug.Make(title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Salary:      in.Salary,
		Status:      status,
		CreatedOn:   datatypes.Date(today),
		EmployerID:  employer.ID,
	}
	jobVector(j)

	if err := s.jobs.Create(ctx, j); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create job", err)
	}
	j.Employer = employer
	s.invalidate(ctx)
	return j, nil
}

func (s *jobService) Get(ctx context.Context, id int64) (*models.Job, error) {
	const op = "JobService.Get"

	j, err := cache.Remember(ctx, s.cache, jobKey(id), s.ttl, s.cacheError(jobKey(id)),
		func(ctx context.Context) (*models.Job, error) { return s.jobs.GetByID(ctx, id) })
	if err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	return j, nil
}

func (s *jobService) List(ctx context.Context) ([]models.Job, error) {
	const op = "JobService.List"

	out, err := cache.Remember(ctx, s.cache, jobListKey, s.ttl, s.cacheError(jobListKey), s.jobs.List)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list jobs", err)
	}
	return out, nil
}

func (s *jobService) ListByEmployer(ctx context.Context, employerID int64) ([]models.Job, error) {
	const op = "JobService.ListByEmployer"

	if _, err := s.users.GetByID(ctx, employerID); err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	out, err := s.jobs.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list jobs", err)
	}
	return out, nil
}

// Update applies a partial update; only the owning employer may edit.
func (s *jobService) Update(ctx context.Context, actor auth.Principal, id int64, in JobUpdate) (*models.Job, error) {
	const op = "JobService.Update"

	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	if j.EmployerID != actor.UserID {
		return nil, utils.E(utils.CodeForbidden, op, "You can only update your own jobs", nil)
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "title must not be empty", nil)
		}
		j.Title = title
		j.Slug = slug.Make(title)
	}
	if in.Description != nil {
		j.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		j.Location = strings.TrimSpace(*in.Location)
	}
	if in.Salary != nil {
		if *in.Salary < 0 {
			return nil, utils.E(utils.CodeInvalidArgument, op, "salary must not be negative", nil)
		}
		j.Salary = *in.Salary
	}
	if in.Status != nil {
		st, err := parseJobStatus(op, *in.Status)
		if err != nil {
			return nil, err
		}
		j.Status = st
	}
	jobVector(j)

	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	s.invalidate(ctx, id)
	return j, nil
}

func (s *jobService) UpdateStatus(ctx context.Context, id int64, status string) (*models.Job, error) {
	const op = "JobService.UpdateStatus"

	st, err := parseJobStatus(op, status)
	if err != nil {
		return nil, err
	}
	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	j.Status = st
	if err := s.jobs.Update(ctx, j); err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	s.invalidate(ctx, id)
	return j, nil
}

// Delete removes a job; the owner or an admin may delete.
func (s *jobService) Delete(ctx context.Context, actor auth.Principal, id int64) error {
	const op = "JobService.Delete"

	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return utils.Repo(op, "Job not found", err)
	}
	if actor.Role != models.RoleAdmin && j.EmployerID != actor.UserID {
		return utils.E(utils.CodeForbidden, op, "You can only delete your own jobs", nil)
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return utils.Repo(op, "Job not found", err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *jobService) Recommend(ctx context.Context, applicantID int64, limit int) ([]models.Job, error) {
	const op = "JobService.Recommend"

	u, err := s.users.GetByID(ctx, applicantID)
	if err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	if u.SkillVector == nil {
		return []models.Job{}, nil
	}
	out, err := s.jobs.Recommend(ctx, *u.SkillVector, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to recommend jobs", err)
	}
	return out, nil
}

func (s *jobService) cacheError(key string) func(error) {
	return func(err error) {
		s.log.WithError(err).WithField("key", key).Warn("job cache unavailable")
	}
}

func (s *jobService) EmployerJobIDs(ctx context.Context, employerID int64) ([]int64, error) {
	jobs, err := s.jobs.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids, nil
}

// Evict drops the listing and the given jobs from the cache.
func (s *jobService) Evict(ctx context.Context, ids ...int64) { s.invalidate(ctx, ids...) }

func (s *jobService) invalidate(ctx context.Context, ids ...int64) {
	if s.cache == nil {
		return
	}
	keys := []string{jobListKey}
	for _, id := range ids {
		keys = append(keys, jobKey(id))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.WithError(err).Warn("job cache invalidation failed")
	}
}
