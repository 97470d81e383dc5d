package postgres

import "gorm.io/gorm"

// Repositories bundles the relational repositories.
type Repositories struct {
	Roles        RoleRepository
	Users        UserRepository
	Jobs         JobRepository
	Applications ApplicationRepository
}

func New(db *gorm.DB) Repositories {
	return Repositories{
		Roles:        NewRoleRepo(db),
		Users:        NewUserRepo(db),
		Jobs:         NewJobRepo(db),
		Applications: NewApplicationRepo(db),
	}
}
