package models

const (
	RoleApplicant = "APPLICANT"
	RoleEmployer  = "EMPLOYER"
	RoleAdmin     = "ADMIN"
)

// DefaultRoles are seeded at startup.
var DefaultRoles = []string{RoleApplicant, RoleEmployer, RoleAdmin}

type Role struct {
	ID   int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;type:varchar(32);uniqueIndex;not null" json:"name"`
}

func (Role) TableName() string { return "roles" }
