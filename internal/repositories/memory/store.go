// Package memory is an in-process implementation of the postgres repository
// interfaces, used by STORE_DRIVER=memory and by tests.
package memory

import (
	"sync"
	"time"

	"github.com/yoockh/jobber/internal/models"
	pgrepo "github.com/yoockh/jobber/internal/repositories/postgres"
)

// Store holds all tables behind one lock so cross-table reads (preloads)
// see a consistent snapshot.
type Store struct {
	mu sync.RWMutex

	roles        map[int64]models.Role
	users        map[int64]models.User
	jobs         map[int64]models.Job
	applications map[int64]models.Application

	seq map[string]int64
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		roles:        map[int64]models.Role{},
		users:        map[int64]models.User{},
		jobs:         map[int64]models.Job{},
		applications: map[int64]models.Application{},
		seq:          map[string]int64{},
		now:          time.Now,
	}
}

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Repositories is the same bundle the postgres package builds.
type Repositories = pgrepo.Repositories

// New returns repositories backed by one fresh Store.
func New() Repositories {
	s := NewStore()
	return Repositories{
		Roles:        &roleRepo{s: s},
		Users:        &userRepo{s: s},
		Jobs:         &jobRepo{s: s},
		Applications: &applicationRepo{s: s},
	}
}

var (
	_ pgrepo.RoleRepository        = (*roleRepo)(nil)
	_ pgrepo.UserRepository        = (*userRepo)(nil)
	_ pgrepo.JobRepository         = (*jobRepo)(nil)
	_ pgrepo.ApplicationRepository = (*applicationRepo)(nil)
)

// hydration helpers; callers hold s.mu

func (s *Store) userWithRole(u models.User) models.User {
	u.Role = s.roles[u.RoleID]
	if len(u.Skills) > 0 {
		u.Skills = append(u.Skills[:0:0], u.Skills...)
	}
	return u
}

func (s *Store) jobWithEmployer(j models.Job) models.Job {
	if emp, ok := s.users[j.EmployerID]; ok {
		e := s.userWithRole(emp)
		j.Employer = &e
	} else {
		j.Employer = nil
	}
	return j
}

func (s *Store) applicationFull(a models.Application) models.Application {
	if j, ok := s.jobs[a.JobID]; ok {
		jj := s.jobWithEmployer(j)
		a.Job = &jj
	} else {
		a.Job = nil
	}
	if u, ok := s.users[a.ApplicantID]; ok {
		uu := s.userWithRole(u)
		a.Applicant = &uu
	} else {
		a.Applicant = nil
	}
	return a
}
