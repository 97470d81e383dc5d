package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobber/internal/auth"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/repositories/memory"
	"golang.org/x/crypto/bcrypt"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	dels int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.dels++
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, *msg)
	return nil
}

type fixture struct {
	ctx      context.Context
	repos    memory.Repositories
	roles    RoleService
	users    UserService
	jobs     JobService
	apps     ApplicationService
	cache    *mapCache
	notifier *recordingNotifier
	logs     *test.Hook
	log      *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.New()
	log, hook := test.NewNullLogger()

	f := &fixture{
		ctx:      ctx,
		repos:    repos,
		roles:    NewRoleService(repos.Roles),
		cache:    newMapCache(),
		notifier: &recordingNotifier{},
		logs:     hook,
		log:      log,
	}
	f.jobs = NewJobService(repos.Jobs, repos.Users, f.cache, time.Minute, log)
	f.users = NewUserService(repos.Users, repos.Roles,
		WithHashCost(bcrypt.MinCost), WithUserLogger(log), WithJobCacheEvicter(f.jobs))
	f.apps = NewApplicationService(repos.Applications, repos.Jobs, repos.Users, f.notifier, log)
	require.NoError(t, f.roles.EnsureDefaults(ctx))
	return f
}

func (f *fixture) register(t *testing.T, username, role string) *models.User {
	t.Helper()
	u, err := f.users.Register(f.ctx, RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password1",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) job(t *testing.T, employer *models.User, title string) *models.Job {
	t.Helper()
	j, err := f.jobs.Create(f.ctx, PrincipalOf(employer), JobInput{Title: title, Description: "Java and SQL", Location: "Remote", Salary: 1000})
	require.NoError(t, err)
	return j
}

func admin() auth.Principal {
	return auth.Principal{UserID: 999, Username: "root", Role: models.RoleAdmin}
}
