package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type JobStatus string

const (
	JobOpen     JobStatus = "OPEN"
	JobInactive JobStatus = "INACTIVE"
	JobClosed   JobStatus = "CLOSED"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobOpen, JobInactive, JobClosed:
		return true
	}
	return false
}

type Job struct {
	ID          int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title       string         `gorm:"column:title;type:text;not null" json:"title"`
	Slug        string         `gorm:"column:slug;type:text;index" json:"slug"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	Location    string         `gorm:"column:location;type:text" json:"location"`
	Salary      float64        `gorm:"column:salary" json:"salary"`
	Status      JobStatus      `gorm:"column:status;type:varchar(16);default:OPEN;index" json:"status"`
	CreatedOn   datatypes.Date `gorm:"column:created_on;type:date" json:"createdAt"`

	EmployerID int64 `gorm:"column:employer_id;index" json:"employerId"`
	Employer   *User `gorm:"foreignKey:EmployerID;constraint:OnDelete:CASCADE" json:"employer,omitempty"`

	SkillVector *pgvector.Vector `gorm:"column:skill_vector;type:vector(15)" json:"-"`
}

func (Job) TableName() string { return "jobs" }

// CreatedTime returns CreatedOn as a time.Time at midnight UTC.
func (j *Job) CreatedTime() time.Time { return time.Time(j.CreatedOn) }
