package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
	"github.com/yoockh/jobber/internal/utils"
)

const msgAlreadyApplied = "You have already applied for this job."

type ApplyInput struct {
	JobID       int64  `json:"jobId"`
	ResumeURL   string `json:"resumeUrl"`
	CoverLetter string `json:"coverLetter"`
}

type ApplicationService interface {
	Apply(ctx context.Context, actor auth.Principal, in ApplyInput) (*models.Application, error)
	Get(ctx context.Context, actor auth.Principal, id int64) (*models.Application, error)
	ListMine(ctx context.Context, applicantID int64) ([]models.Application, error)
	ListByJob(ctx context.Context, actor auth.Principal, jobID int64) ([]models.Application, error)
	ListAll(ctx context.Context) ([]models.Application, error)
	Filter(ctx context.Context, applicantID int64, status string) ([]models.Application, error)
	UpdateStatus(ctx context.Context, actor auth.Principal, id int64, status string) (*models.Application, error)
	Cancel(ctx context.Context, actor auth.Principal, id int64) error
	CountByStatus(ctx context.Context, actor auth.Principal, username string) (map[string]int64, error)
}

type applicationService struct {
	apps     pgrepo.ApplicationRepository
	jobs     pgrepo.JobRepository
	users    pgrepo.UserRepository
	notifier Notifier
	log      *logrus.Logger
	now      func() time.Time
}

// NewApplicationService wires the application use cases; notifier may be nil.
func NewApplicationService(apps pgrepo.ApplicationRepository, jobs pgrepo.JobRepository, users pgrepo.UserRepository, notifier Notifier, log *logrus.Logger) ApplicationService {
	if log == nil {
		log = logrus.New()
	}
	return &applicationService{apps: apps, jobs: jobs, users: users, notifier: notifier, log: log, now: time.Now}
}

func (s *applicationService) Apply(ctx context.Context, actor auth.Principal, in ApplyInput) (*models.Application, error) {
	const op = "ApplicationService.Apply"

	if in.JobID <= 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "jobId is required", nil)
	}
	applicant, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	job, err := s.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	if job.Status != models.JobOpen {
		return nil, utils.E(utils.CodeInvalidArgument, op, "Job is not accepting applications", nil)
	}

	dup, err := s.apps.Exists(ctx, applicant.ID, job.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to check existing application", err)
	}
	if dup {
		return nil, utils.E(utils.CodeConflict, op, msgAlreadyApplied, nil)
	}

	resume := strings.TrimSpace(in.ResumeURL)
	if resume == "" {
		resume = applicant.ResumeURL
	}
	a := &models.Application{
		ResumeURL:   resume,
		CoverLetter: strings.TrimSpace(in.CoverLetter),
		AppliedAt:   s.now().UTC(),
		Status:      models.StatusPending,
		JobID:       job.ID,
		ApplicantID: applicant.ID,
	}
	if err := s.apps.Create(ctx, a); err != nil {
		// lost a race with a concurrent apply
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.E(utils.CodeConflict, op, msgAlreadyApplied, err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to create application", err)
	}
	a.Job, a.Applicant = job, applicant

	s.notify(ctx, &models.Notification{
		UserID:  applicant.ID,
		Kind:    models.KindApplicationSubmitted,
		Email:   applicant.Email,
		Subject: "Application received: " + job.Title,
		Body: fmt.Sprintf("Hi %s,\n\nyour application for %q has been received and is pending review.\n",
			displayName(applicant), job.Title),
	})
	return a, nil
}

func (s *applicationService) Get(ctx context.Context, actor auth.Principal, id int64) (*models.Application, error) {
	const op = "ApplicationService.Get"

	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo(op, "Application not found", err)
	}
	owner := a.ApplicantID == actor.UserID
	employer := a.Job != nil && a.Job.EmployerID == actor.UserID
	if !owner && !employer && actor.Role != models.RoleAdmin {
		return nil, utils.E(utils.CodeForbidden, op, "You cannot view this application", nil)
	}
	return a, nil
}

func (s *applicationService) ListMine(ctx context.Context, applicantID int64) ([]models.Application, error) {
	out, err := s.apps.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "ApplicationService.ListMine", "failed to list applications", err)
	}
	return out, nil
}

// ListByJob is restricted to the job's employer.
func (s *applicationService) ListByJob(ctx context.Context, actor auth.Principal, jobID int64) ([]models.Application, error) {
	const op = "ApplicationService.ListByJob"

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, utils.Repo(op, "Job not found", err)
	}
	if job.EmployerID != actor.UserID && actor.Role != models.RoleAdmin {
		return nil, utils.E(utils.CodeForbidden, op, "You don't have permission to view applications for this job", nil)
	}
	out, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list applications", err)
	}
	return out, nil
}

func (s *applicationService) ListAll(ctx context.Context) ([]models.Application, error) {
	out, err := s.apps.ListAll(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, "ApplicationService.ListAll", "failed to list applications", err)
	}
	return out, nil
}

func (s *applicationService) Filter(ctx context.Context, applicantID int64, status string) ([]models.Application, error) {
	const op = "ApplicationService.Filter"

	if strings.TrimSpace(status) == "" {
		return s.ListMine(ctx, applicantID)
	}
	st, ok := models.ParseApplicationStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown application status", nil)
	}
	out, err := s.apps.ListByApplicantAndStatus(ctx, applicantID, st)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to filter applications", err)
	}
	return out, nil
}

// UpdateStatus is allowed only for the employer that owns the job.
func (s *applicationService) UpdateStatus(ctx context.Context, actor auth.Principal, id int64, status string) (*models.Application, error) {
	const op = "ApplicationService.UpdateStatus"

	st, ok := models.ParseApplicationStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return nil, utils.E(utils.CodeInvalidArgument, op, "status must be one of PENDING, REVIEWED, ACCEPTED, REJECTED", nil)
	}
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, utils.Repo(op, "Application not found", err)
	}
	if a.Job == nil || a.Job.EmployerID != actor.UserID {
		return nil, utils.E(utils.CodeForbidden, op, "You can only update applications for your own jobs", nil)
	}
	if err := s.apps.UpdateStatus(ctx, id, st); err != nil {
		return nil, utils.Repo(op, "Application not found", err)
	}
	a.Status = st

	if a.Applicant != nil {
		s.notify(ctx, &models.Notification{
			UserID:  a.ApplicantID,
			Kind:    models.KindApplicationStatus,
			Email:   a.Applicant.Email,
			Subject: "Application update: " + a.Job.Title,
			Body: fmt.Sprintf("Hi %s,\n\nyour application for %q is now %s.\n",
				displayName(a.Applicant), a.Job.Title, st),
		})
	}
	return a, nil
}

// Cancel withdraws an application; only its applicant may cancel.
func (s *applicationService) Cancel(ctx context.Context, actor auth.Principal, id int64) error {
	const op = "ApplicationService.Cancel"

	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return utils.Repo(op, "Application not found", err)
	}
	if a.ApplicantID != actor.UserID {
		return utils.E(utils.CodeForbidden, op, "You can only cancel your own applications", nil)
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		return utils.Repo(op, "Application not found", err)
	}
	return nil
}

// CountByStatus reports PENDING/ACCEPTED/REJECTED totals for username.
// Applicants may only count their own applications.
func (s *applicationService) CountByStatus(ctx context.Context, actor auth.Principal, username string) (map[string]int64, error) {
	const op = "ApplicationService.CountByStatus"

	username = strings.TrimSpace(username)
	if username == "" {
		username = actor.Username
	}
	if actor.Role != models.RoleAdmin && username != actor.Username {
		return nil, utils.E(utils.CodeForbidden, op, "You can only view your own application counts", nil)
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, utils.Repo(op, "User not found", err)
	}
	list, err := s.apps.ListByApplicant(ctx, u.ID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count applications", err)
	}

	out := map[string]int64{
		string(models.StatusPending):  0,
		string(models.StatusAccepted): 0,
		string(models.StatusRejected): 0,
	}
	for _, a := range list {
		if _, tracked := out[string(a.Status)]; tracked {
			out[string(a.Status)]++
		}
	}
	return out, nil
}

// notify is best-effort; failures never fail the calling operation.
func (s *applicationService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id": n.UserID,
			"kind":    n.Kind,
		}).Warn("notification not queued")
	}
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
