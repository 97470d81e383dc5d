package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/utils"
)

const (
	overTimeDays = 30
	topJobsLimit = 5
	dayLayout    = "2006-01-02"
)

// DateRange bounds applied-at dates, inclusive on both ends. Nil means open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

func (r DateRange) contains(t time.Time) bool {
	d := day(t)
	if r.Start != nil && d.Before(day(*r.Start)) {
		return false
	}
	if r.End != nil && d.After(day(*r.End)) {
		return false
	}
	return true
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type JobCount struct {
	JobID int64  `json:"jobId"`
	Title string `json:"title"`
	Count int    `json:"count"`
}

type StatusCounts struct {
	Pending  int `json:"pendingApplications"`
	Reviewed int `json:"reviewedApplications"`
	Accepted int `json:"acceptedApplications"`
	Rejected int `json:"rejectedApplications"`
}

type EmployerAnalytics struct {
	TotalJobs         int `json:"totalJobs"`
	TotalApplications int `json:"totalApplications"`
	StatusCounts
	ApplicationsByJob    map[string]int `json:"applicationsByJob"`
	ApplicationsOverTime []DayCount     `json:"applicationsOverTime"`
	StatusDistribution   map[string]int `json:"statusDistribution"`
	TopJobs              []JobCount     `json:"topJobs"`
}

type ApplicantAnalytics struct {
	TotalApplications int `json:"totalApplications"`
	StatusCounts
	SuccessRate           float64        `json:"successRate"`
	ApplicationsOverTime  []DayCount     `json:"applicationsOverTime"`
	StatusDistribution    map[string]int `json:"statusDistribution"`
	ApplicationsByCompany map[string]int `json:"applicationsByCompany"`
}

type AnalyticsService interface {
	Employer(ctx context.Context, employerID int64, rng DateRange) (*EmployerAnalytics, error)
	Applicant(ctx context.Context, applicantID int64, rng DateRange) (*ApplicantAnalytics, error)
}

type analyticsService struct {
	jobs  pgrepo.JobRepository
	apps  pgrepo.ApplicationRepository
	users pgrepo.UserRepository
	now   func() time.Time
}

func NewAnalyticsService(jobs pgrepo.JobRepository, apps pgrepo.ApplicationRepository, users pgrepo.UserRepository) AnalyticsService {
	return &analyticsService{jobs: jobs, apps: apps, users: users, now: time.Now}
}

func (s *analyticsService) Employer(ctx context.Context, employerID int64, rng DateRange) (*EmployerAnalytics, error) {
	const op = "AnalyticsService.Employer"

	if _, err := s.users.GetByID(ctx, employerID); err != nil {
		return nil, utils.Repo(op, "Employer not found", err)
	}
	jobs, err := s.jobs.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load jobs", err)
	}
	apps, err := s.apps.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load applications", err)
	}
	out := BuildEmployerAnalytics(jobs, apps, rng, s.now())
	return &out, nil
}

func (s *analyticsService) Applicant(ctx context.Context, applicantID int64, rng DateRange) (*ApplicantAnalytics, error) {
	const op = "AnalyticsService.Applicant"

	if _, err := s.users.GetByID(ctx, applicantID); err != nil {
		return nil, utils.Repo(op, "Applicant not found", err)
	}
	apps, err := s.apps.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to load applications", err)
	}
	out := BuildApplicantAnalytics(apps, rng, s.now())
	return &out, nil
}

// BuildEmployerAnalytics aggregates an employer's jobs and their applications.
func BuildEmployerAnalytics(jobs []models.Job, apps []models.Application, rng DateRange, now time.Time) EmployerAnalytics {
	apps = filterRange(apps, rng)

	perJob := make(map[int64]int, len(jobs))
	for _, a := range apps {
		perJob[a.JobID]++
	}

	byTitle := make(map[string]int, len(jobs))
	top := make([]JobCount, 0, len(jobs))
	for _, j := range jobs {
		byTitle[j.Title] += perJob[j.ID]
		top = append(top, JobCount{JobID: j.ID, Title: j.Title, Count: perJob[j.ID]})
	}
	sort.SliceStable(top, func(i, k int) bool {
		if top[i].Count != top[k].Count {
			return top[i].Count > top[k].Count
		}
		return top[i].JobID < top[k].JobID
	})
	if len(top) > topJobsLimit {
		top = top[:topJobsLimit]
	}

	counts := countStatuses(apps)
	return EmployerAnalytics{
		TotalJobs:            len(jobs),
		TotalApplications:    len(apps),
		StatusCounts:         counts,
		ApplicationsByJob:    byTitle,
		ApplicationsOverTime: overTime(apps, now, overTimeDays),
		StatusDistribution:   counts.distribution(),
		TopJobs:              top,
	}
}

// BuildApplicantAnalytics aggregates one applicant's applications.
func BuildApplicantAnalytics(apps []models.Application, rng DateRange, now time.Time) ApplicantAnalytics {
	apps = filterRange(apps, rng)
	counts := countStatuses(apps)

	rate := 0.0
	if len(apps) > 0 {
		rate = math.Round(float64(counts.Accepted)*100/float64(len(apps))*100) / 100
	}

	byCompany := map[string]int{}
	for _, a := range apps {
		if a.Job != nil && a.Job.Employer != nil {
			byCompany[a.Job.Employer.Username]++
		}
	}

	return ApplicantAnalytics{
		TotalApplications:     len(apps),
		StatusCounts:          counts,
		SuccessRate:           rate,
		ApplicationsOverTime:  overTime(apps, now, overTimeDays),
		StatusDistribution:    counts.distribution(),
		ApplicationsByCompany: byCompany,
	}
}

func filterRange(apps []models.Application, rng DateRange) []models.Application {
	if rng.Start == nil && rng.End == nil {
		return apps
	}
	out := make([]models.Application, 0, len(apps))
	for _, a := range apps {
		if !a.AppliedAt.IsZero() && rng.contains(a.AppliedAt) {
			out = append(out, a)
		}
	}
	return out
}

func countStatuses(apps []models.Application) StatusCounts {
	var c StatusCounts
	for _, a := range apps {
		switch a.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusReviewed:
			c.Reviewed++
		case models.StatusAccepted:
			c.Accepted++
		case models.StatusRejected:
			c.Rejected++
		}
	}
	return c
}

func (c StatusCounts) distribution() map[string]int {
	return map[string]int{
		string(models.StatusPending):  c.Pending,
		string(models.StatusReviewed): c.Reviewed,
		string(models.StatusAccepted): c.Accepted,
		string(models.StatusRejected): c.Rejected,
	}
}

// overTime returns one bucket per day for the last n days ending today, oldest first.
func overTime(apps []models.Application, now time.Time, n int) []DayCount {
	perDay := map[string]int{}
	for _, a := range apps {
		if !a.AppliedAt.IsZero() {
			perDay[day(a.AppliedAt).Format(dayLayout)]++
		}
	}
	today := day(now)
	out := make([]DayCount, 0, n)
	for i := n - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i).Format(dayLayout)
		out = append(out, DayCount{Date: d, Count: perDay[d]})
	}
	return out
}
