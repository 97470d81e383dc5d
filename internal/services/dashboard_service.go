package services

import (
	"context"

	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/utils"
)

type UserDashboard struct {
	User         *models.User         `json:"user"`
	Applications []models.Application `json:"applications"`
	StatusCounts StatusCounts         `json:"statusCounts"`
}

type EmployerDashboard struct {
	Jobs              []models.Job  `json:"jobs"`
	ApplicationCounts map[int64]int `json:"applicationCounts"`
	TotalJobs         int           `json:"totalJobs"`
	OpenJobs          int           `json:"openJobs"`
	TotalApplications int           `json:"totalApplications"`
}

type AdminDashboard struct {
	TotalUsers        int              `json:"totalUsers"`
	TotalJobs         int              `json:"totalJobs"`
	TotalApplications int64            `json:"totalApplications"`
	UsersByRole       map[string]int64 `json:"usersByRole"`
	JobsByStatus      map[string]int64 `json:"jobsByStatus"`
	Users             []models.User    `json:"users"`
	Jobs              []models.Job     `json:"jobs"`
}

type DashboardService interface {
	User(ctx context.Context, userID int64) (*UserDashboard, error)
	Employer(ctx context.Context, employerID int64) (*EmployerDashboard, error)
	Admin(ctx context.Context) (*AdminDashboard, error)
}

type dashboardService struct {
	users pgrepo.UserRepository
	jobs  pgrepo.JobRepository
	apps  pgrepo.ApplicationRepository
}

func NewDashboardService(users pgrepo.UserRepository, jobs pgrepo.JobRepository, apps pgrepo.ApplicationRepository) DashboardService {
	return &dashboardService{users: users, jobs: jobs, apps: apps}
}

func (s *dashboardService) User(ctx context.Context, userID int64) (*UserDashboard, error) {
	const op = "DashboardService.User"

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	apps, err := s.apps.ListByApplicant(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load applications", err)
	}
	return &UserDashboard{User: u, Applications: apps, StatusCounts: countStatuses(apps)}, nil
}

func (s *dashboardService) Employer(ctx context.Context, employerID int64) (*EmployerDashboard, error) {
	const op = "DashboardService.Employer"

	jobs, err := s.jobs.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load jobs", err)
	}
	apps, err := s.apps.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load applications", err)
	}

	d := &EmployerDashboard{
		Jobs:              jobs,
		ApplicationCounts: make(map[int64]int, len(jobs)),
		TotalJobs:         len(jobs),
		TotalApplications: len(apps),
	}
	for _, j := range jobs {
		d.ApplicationCounts[j.ID] = 0
		if j.Status == models.JobOpen {
			d.OpenJobs++
		}
	}
	for _, a := range apps {
		d.ApplicationCounts[a.JobID]++
	}
	return d, nil
}

func (s *dashboardService) Admin(ctx context.Context) (*AdminDashboard, error) {
	const op = "DashboardService.Admin"

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load users", err)
	}
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load jobs", err)
	}
	total, err := s.apps.Count(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applications", err)
	}
	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count users", err)
	}
	byStatus, err := s.jobs.CountByStatus(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count jobs", err)
	}

	jobsByStatus := make(map[string]int64, len(byStatus))
	for st, n := range byStatus {
		jobsByStatus[string(st)] = n
	}
	return &AdminDashboard{
		TotalUsers:        len(users),
		TotalJobs:         len(jobs),
		TotalApplications: total,
		UsersByRole:       byRole,
		JobsByStatus:      jobsByStatus,
		Users:             users,
		Jobs:              jobs,
	}, nil
}
