package memory

import (
	"context"
	"sort"

	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
)

type roleRepo struct{ s *Store }

func (r *roleRepo) Create(_ context.Context, role *models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return utils.ErrConflict
		}
	}
	role.ID = r.s.nextID("roles")
	r.s.roles[role.ID] = *role
	return nil
}

func (r *roleRepo) GetByID(_ context.Context, id int64) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &role, nil
}

func (r *roleRepo) GetByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			out := role
			return &out, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *roleRepo) List(_ context.Context) ([]models.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]models.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
