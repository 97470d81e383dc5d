package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type User struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:text;not null" json:"-"`
	FullName     string `gorm:"column:full_name;type:text" json:"fullName"`
	Phone        string `gorm:"column:phone;type:text" json:"phone"`

	Skills     pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`
	Experience datatypes.JSON `gorm:"column:experience;type:jsonb" json:"experience,omitempty"`
	ResumeURL  string         `gorm:"column:resume_url;type:text" json:"resumeUrl,omitempty"`

	// keyword-space embedding of Skills, see SkillVector
	SkillVector *pgvector.Vector `gorm:"column:skill_vector;type:vector(15)" json:"-"`

	RoleID int64 `gorm:"column:role_id;index" json:"-"`
	Role   Role  `gorm:"foreignKey:RoleID" json:"role"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"createdAt"`
}

func (User) TableName() string { return "users" }

func (u *User) RoleName() string { return u.Role.Name }
