package memory

import (
	"context"
	"sort"

	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return utils.ErrConflict
		}
	}
	if _, ok := r.s.roles[u.RoleID]; !ok {
		return utils.ErrNotFound
	}
	u.ID = r.s.nextID("users")
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now().UTC()
	}
	stored := *u
	stored.Role = models.Role{}
	r.s.users[u.ID] = stored
	u.Role = r.s.roles[u.RoleID]
	return nil
}

func (r *userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			out := r.s.userWithRole(u)
			return &out, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *userRepo) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, r.s.userWithRole(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return utils.ErrNotFound
	}
	cur.FullName = u.FullName
	cur.Phone = u.Phone
	cur.Skills = append(u.Skills[:0:0], u.Skills...)
	cur.Experience = u.Experience
	cur.ResumeURL = u.ResumeURL
	cur.SkillVector = u.SkillVector
	cur.RoleID = u.RoleID
	r.s.users[u.ID] = cur
	return nil
}

// Delete cascades to the user's jobs and applications like the FK constraints.
func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.s.users, id)
	for jid, j := range r.s.jobs {
		if j.EmployerID == id {
			r.s.deleteJobLocked(jid)
		}
	}
	for aid, a := range r.s.applications {
		if a.ApplicantID == id {
			delete(r.s.applications, aid)
		}
	}
	return nil
}

func (r *userRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := map[string]int64{}
	for _, u := range r.s.users {
		if role, ok := r.s.roles[u.RoleID]; ok {
			out[role.Name]++
		}
	}
	return out, nil
}
