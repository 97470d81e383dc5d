package memory

import (
	"context"
	"sort"

	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
)

type applicationRepo struct{ s *Store }

func (r *applicationRepo) Create(_ context.Context, a *models.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[a.JobID]; !ok {
		return utils.ErrNotFound
	}
	if _, ok := r.s.users[a.ApplicantID]; !ok {
		return utils.ErrNotFound
	}
	for _, existing := range r.s.applications {
		if existing.ApplicantID == a.ApplicantID && existing.JobID == a.JobID {
			return utils.ErrConflict
		}
	}
	a.ID = r.s.nextID("applications")
	if a.Status == "" {
		a.Status = models.StatusPending
	}
	stored := *a
	stored.Job, stored.Applicant = nil, nil
	r.s.applications[a.ID] = stored
	return nil
}

func (r *applicationRepo) GetByID(_ context.Context, id int64) (*models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	out := r.s.applicationFull(a)
	return &out, nil
}

func (r *applicationRepo) Exists(_ context.Context, applicantID, jobID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.applications {
		if a.ApplicantID == applicantID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

// filter returns matches newest first, like the SQL ordering.
func (r *applicationRepo) filter(match func(models.Application) bool) []models.Application {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []models.Application{}
	for _, a := range r.s.applications {
		if match(a) {
			out = append(out, r.s.applicationFull(a))
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if !out[i].AppliedAt.Equal(out[k].AppliedAt) {
			return out[i].AppliedAt.After(out[k].AppliedAt)
		}
		return out[i].ID > out[k].ID
	})
	return out
}

func (r *applicationRepo) ListByApplicant(_ context.Context, applicantID int64) ([]models.Application, error) {
	return r.filter(func(a models.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (r *applicationRepo) ListByApplicantAndStatus(_ context.Context, applicantID int64, status models.ApplicationStatus) ([]models.Application, error) {
	return r.filter(func(a models.Application) bool {
		return a.ApplicantID == applicantID && a.Status == status
	}), nil
}

func (r *applicationRepo) ListByJob(_ context.Context, jobID int64) ([]models.Application, error) {
	return r.filter(func(a models.Application) bool { return a.JobID == jobID }), nil
}

func (r *applicationRepo) ListByEmployer(_ context.Context, employerID int64) ([]models.Application, error) {
	r.s.mu.RLock()
	owned := map[int64]bool{}
	for id, j := range r.s.jobs {
		if j.EmployerID == employerID {
			owned[id] = true
		}
	}
	r.s.mu.RUnlock()
	return r.filter(func(a models.Application) bool { return owned[a.JobID] }), nil
}

func (r *applicationRepo) ListAll(_ context.Context) ([]models.Application, error) {
	return r.filter(func(models.Application) bool { return true }), nil
}

func (r *applicationRepo) UpdateStatus(_ context.Context, id int64, status models.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return utils.ErrNotFound
	}
	a.Status = status
	r.s.applications[id] = a
	return nil
}

func (r *applicationRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.applications, id)
	return nil
}

func (r *applicationRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.applications)), nil
}
