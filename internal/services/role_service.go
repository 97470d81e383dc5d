package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/utils"
)

type RoleService interface {
	Create(ctx context.Context, name string) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	EnsureDefaults(ctx context.Context) error
}

type roleService struct {
	roles pgrepo.RoleRepository
}

func NewRoleService(roles pgrepo.RoleRepository) RoleService {
	return &roleService{roles: roles}
}

func normalizeRole(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (s *roleService) Create(ctx context.Context, name string) (*models.Role, error) {
	const op = "RoleService.Create"

	name = normalizeRole(name)
	if name == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "role name is required", nil)
	}
	role := &models.Role{Name: name}
	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeConflict, op, "Role already exists", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create role", err)
	}
	return role, nil
}

func (s *roleService) GetByName(ctx context.Context, name string) (*models.Role, error) {
	const op = "RoleService.GetByName"

	role, err := s.roles.GetByName(ctx, normalizeRole(name))
	if err != nil {
		return nil, utils.Repo(op, "Role not found", err)
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]models.Role, error) {
	const op = "RoleService.List"

	out, err := s.roles.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list roles", err)
	}
	return out, nil
}

// EnsureDefaults creates the built-in roles that are missing.
func (s *roleService) EnsureDefaults(ctx context.Context) error {
	const op = "RoleService.EnsureDefaults"

	for _, name := range models.DefaultRoles {
		_, err := s.roles.GetByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeInternal, op, "failed to look up role", err)
		}
		if err := s.roles.Create(ctx, &models.Role{Name: name}); err != nil && !errors.Is(err, utils.ErrConflict) {
			return utils.E(utils.CodeInternal, op, "failed to seed role "+name, err)
		}
	}
	return nil
}
