package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/skills"
	"github.com/yoockh/jobber/internal/utils"
	"gorm.io/datatypes"
)

type RegisterInput struct {
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	Password   string          `json:"password"`
	FullName   string          `json:"fullName"`
	Phone      string          `json:"phone"`
	Skills     []string        `json:"skills"`
	Experience json.RawMessage `json:"experience"`
	// Role is a role name; RoleID is accepted for clients that post {"role":{"id":1}}.
	Role   string `json:"-"`
	RoleID int64  `json:"-"`
}

type ProfileUpdate struct {
	FullName   *string          `json:"fullName,omitempty"`
	Phone      *string          `json:"phone,omitempty"`
	Skills     *[]string        `json:"skills,omitempty"`
	Experience *json.RawMessage `json:"experience,omitempty"`
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*models.User, error)
	SetResume(ctx context.Context, id int64, url string, found []string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type UserOption func(*userService)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) UserOption {
	return func(s *userService) { s.hashCost = cost }
}

func WithUserLogger(l *logrus.Logger) UserOption {
	return func(s *userService) { s.log = l }
}

// WithJobCacheEvicter clears cached jobs of deleted users; their jobs go
// with them.
func WithJobCacheEvicter(e JobCacheEvicter) UserOption {
	return func(s *userService) { s.jobCache = e }
}

// JobCacheEvicter drops cached job entries.
type JobCacheEvicter interface {
	EmployerJobIDs(ctx context.Context, employerID int64) ([]int64, error)
	Evict(ctx context.Context, ids ...int64)
}

type userService struct {
	users    pgrepo.UserRepository
	roles    pgrepo.RoleRepository
	hashCost int
	jobCache JobCacheEvicter
	log      *logrus.Logger
}

func NewUserService(users pgrepo.UserRepository, roles pgrepo.RoleRepository, opts ...UserOption) UserService {
	s := &userService{users: users, roles: roles}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	return s
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "UserService.Register"

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case len(in.Username) < 3 || len(in.Username) > 64:
		return nil, utils.E(utils.CodeInvalidArgument, op, "username must be 3-64 characters", nil)
	case in.Email == "":
		return nil, utils.E(utils.CodeInvalidArgument, op, "email is required", nil)
	case len(in.Password) < 6:
		return nil, utils.E(utils.CodeInvalidArgument, op, "password must be at least 6 characters", nil)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email is invalid", err)
	}

	if taken, err := s.users.ExistsByUsername(ctx, in.Username); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check username", err)
	} else if taken {
		return nil, utils.E(utils.CodeConflict, op, "Username already exists", nil)
	}
	if taken, err := s.users.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check email", err)
	} else if taken {
		return nil, utils.E(utils.CodeConflict, op, "Email already exists", nil)
	}

	role, err := s.resolveRole(ctx, in)
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.hashCost)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to hash password", err)
	}

	list := skills.Normalize(in.Skills)
	u := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		Skills:       list,
		SkillVector:  skills.Vector(list),
		RoleID:       role.ID,
	}
	if len(in.Experience) > 0 {
		u.Experience = datatypes.JSON(in.Experience)
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeConflict, op, "Username or email already exists", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create user", err)
	}
	u.Role = *role
	return u, nil
}

func (s *userService) resolveRole(ctx context.Context, in RegisterInput) (*models.Role, error) {
	const op = "UserService.Register"

	var (
		role *models.Role
		err  error
	)
	switch {
	case in.RoleID > 0:
		role, err = s.roles.GetByID(ctx, in.RoleID)
	case strings.TrimSpace(in.Role) != "":
		role, err = s.roles.GetByName(ctx, normalizeRole(in.Role))
	default:
		role, err = s.roles.GetByName(ctx, models.RoleApplicant)
	}
	if errors.Is(err, utils.ErrNotFound) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Invalid role selected", err)
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to resolve role", err)
	}
	if role.Name == models.RoleAdmin {
		return nil, utils.E(utils.CodeForbidden, op, "admin accounts cannot self-register", nil)
	}
	return role, nil
}

// Authenticate accepts a username or an email as login.
func (s *userService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	const op = "UserService.Authenticate"

	invalid := utils.E(utils.CodeUnauthorized, op, "Invalid username or password", nil)

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, invalid
	}

	u, err := s.users.GetByUsername(ctx, login)
	if errors.Is(err, utils.ErrNotFound) && strings.Contains(login, "@") {
		u, err = s.users.GetByEmail(ctx, strings.ToLower(login))
	}
	if errors.Is(err, utils.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}

	if err := utils.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, invalid
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo("UserService.GetByID", "User not found", err)
	}
	return u, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, utils.Repo("UserService.GetByUsername", "User not found", err)
	}
	return u, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, utils.Repo("UserService.GetByEmail", "User not found", err)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	out, err := s.users.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "UserService.List", "failed to list users", err)
	}
	return out, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, in ProfileUpdate) (*models.User, error) {
	const op = "UserService.UpdateProfile"

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}

	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Skills != nil {
		u.Skills = skills.Normalize(*in.Skills)
		u.SkillVector = skills.Vector(u.Skills)
	}
	if in.Experience != nil {
		if !json.Valid(*in.Experience) {
			return nil, utils.E(utils.CodeInvalidArgument, op, "experience must be valid JSON", nil)
		}
		u.Experience = datatypes.JSON(*in.Experience)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	return u, nil
}

// SetResume stores the resume URL and merges extracted skills into the profile.
func (s *userService) SetResume(ctx context.Context, id int64, url string, found []string) (*models.User, error) {
	const op = "UserService.SetResume"

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	u.ResumeURL = url
	if len(found) > 0 {
		u.Skills = skills.Normalize(append([]string(u.Skills), found...))
		u.SkillVector = skills.Vector(u.Skills)
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	return u, nil
}

// Delete removes the user. Jobs they posted are removed with them, so their
// cache entries are collected first and evicted once the delete succeeds.
func (s *userService) Delete(ctx context.Context, id int64) error {
	const op = "UserService.Delete"

	var jobIDs []int64
	if s.jobCache != nil {
		ids, err := s.jobCache.EmployerJobIDs(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("user_id", id).Warn("could not list jobs to evict")
		}
		jobIDs = ids
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return utils.Repo(op, "User not found", err)
	}
	if s.jobCache != nil {
		s.jobCache.Evict(ctx, jobIDs...)
	}
	return nil
}
