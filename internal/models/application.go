package models

import "time"

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "PENDING"
	StatusReviewed ApplicationStatus = "REVIEWED"
	StatusAccepted ApplicationStatus = "ACCEPTED"
	StatusRejected ApplicationStatus = "REJECTED"
)

var ApplicationStatuses = []ApplicationStatus{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	for _, st := range ApplicationStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type Application struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ResumeURL   string            `gorm:"column:resume_url;type:text" json:"resumeUrl"`
	CoverLetter string            `gorm:"column:cover_letter;type:text" json:"coverLetter"`
	AppliedAt   time.Time         `gorm:"column:applied_at;type:timestamptz" json:"appliedAt"`
	Status      ApplicationStatus `gorm:"column:status;type:varchar(16);default:PENDING;index" json:"status"`

	JobID       int64 `gorm:"column:job_id;uniqueIndex:uniq_applicant_job,priority:2" json:"jobId"`
	Job         *Job  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
	ApplicantID int64 `gorm:"column:applicant_id;uniqueIndex:uniq_applicant_job,priority:1" json:"applicantId"`
	Applicant   *User `gorm:"foreignKey:ApplicantID;constraint:OnDelete:CASCADE" json:"applicant,omitempty"`
}

func (Application) TableName() string { return "applications" }
