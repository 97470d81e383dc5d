package memory

import (
	"context"
	"sort"

	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/skills"
	"github.com/yoockh/jobber/internal/utils"
)

type jobRepo struct{ s *Store }

func (r *jobRepo) Create(_ context.Context, j *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[j.EmployerID]; !ok {
		return utils.ErrNotFound
	}
	j.ID = r.s.nextID("jobs")
	if j.Status == "" {
		j.Status = models.JobOpen
	}
	stored := *j
	stored.Employer = nil
	r.s.jobs[j.ID] = stored
	return nil
}

func (r *jobRepo) GetByID(_ context.Context, id int64) (*models.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := r.s.jobWithEmployer(j)
	return &out, nil
}

func (r *jobRepo) filter(match func(models.Job) bool) []models.Job {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Job{}
	for _, j := range r.s.jobs {
		if match(j) {
			out = append(out, r.s.jobWithEmployer(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (r *jobRepo) List(_ context.Context) ([]models.Job, error) {
	return r.filter(func(models.Job) bool { return true }), nil
}

func (r *jobRepo) ListByEmployer(_ context.Context, employerID int64) ([]models.Job, error) {
	return r.filter(func(j models.Job) bool { return j.EmployerID == employerID }), nil
}

func (r *jobRepo) Update(_ context.Context, j *models.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.jobs[j.ID]
	if !ok {
		return utils.ErrNotFound
	}
	cur.Title = j.Title
	cur.Slug = j.Slug
	cur.Description = j.Description
	cur.Location = j.Location
	cur.Salary = j.Salary
	cur.Status = j.Status
	cur.SkillVector = j.SkillVector
	r.s.jobs[j.ID] = cur
	return nil
}

func (r *jobRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[id]; !ok {
		return utils.ErrNotFound
	}
	r.s.deleteJobLocked(id)
	return nil
}

func (s *Store) deleteJobLocked(id int64) {
	delete(s.jobs, id)
	for aid, a := range s.applications {
		if a.JobID == id {
			delete(s.applications, aid)
		}
	}
}

func (r *jobRepo) CountByStatus(_ context.Context) (map[models.JobStatus]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := map[models.JobStatus]int64{}
	for _, j := range r.s.jobs {
		out[j.Status]++
	}
	return out, nil
}

func (r *jobRepo) Recommend(_ context.Context, vec pgvector.Vector, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	open := r.filter(func(j models.Job) bool { return j.Status == models.JobOpen && j.SkillVector != nil })
	sort.SliceStable(open, func(i, k int) bool {
		return skills.Similarity(&vec, open[i].SkillVector) > skills.Similarity(&vec, open[k].SkillVector)
	})
	if len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}
