package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/jobber/internal/models"
	"github.com/yoockh/jobber/internal/utils"
)

func TestApplyCreatesPendingAndNotifies(t *testing.T) {
	f := newFixture(t)
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	j := f.job(t, emp, "Backend")

	a, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID, CoverLetter: "hi"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, a.Status)
	assert.False(t, a.AppliedAt.IsZero())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.KindApplicationSubmitted, f.notifier.sent[0].Kind)
	assert.Equal(t, "alice@example.com", f.notifier.sent[0].Email)
}

func TestApplyTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	j := f.job(t, emp, "Backend")

	_, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	require.NoError(t, err)

	_, err = f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	var ae *utils.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "You have already applied for this job.", ae.Message)

	n, err := f.repos.Applications.Count(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestApplyMissingOrClosedJob(t *testing.T) {
	f := newFixture(t)
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")

	_, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: 77})
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	j := f.job(t, emp, "Backend")
	_, err = f.jobs.UpdateStatus(f.ctx, j.ID, "CLOSED")
	require.NoError(t, err)
	_, err = f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestApplySucceedsWhenNotifierFails(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	j := f.job(t, emp, "Backend")

	_, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	require.NoError(t, err)
	require.NotNil(t, f.logs.LastEntry())
	assert.Equal(t, "notification not queued", f.logs.LastEntry().Message)
}

func TestUpdateStatusOnlyOwningEmployer(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "acme", models.RoleEmployer)
	other := f.register(t, "globex", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	j := f.job(t, owner, "Backend")
	a, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	require.NoError(t, err)

	_, err = f.apps.UpdateStatus(f.ctx, PrincipalOf(other), a.ID, "ACCEPTED")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
	_, err = f.apps.UpdateStatus(f.ctx, PrincipalOf(alice), a.ID, "ACCEPTED")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	unchanged, err := f.repos.Applications.GetByID(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, unchanged.Status)

	_, err = f.apps.UpdateStatus(f.ctx, PrincipalOf(owner), a.ID, "bogus")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	got, err := f.apps.UpdateStatus(f.ctx, PrincipalOf(owner), a.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, models.KindApplicationStatus, f.notifier.sent[len(f.notifier.sent)-1].Kind)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	bob := f.register(t, "bob", "")
	j := f.job(t, emp, "Backend")
	a, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	require.NoError(t, err)

	assert.True(t, utils.IsCode(f.apps.Cancel(f.ctx, PrincipalOf(bob), a.ID), utils.CodeForbidden))
	require.NoError(t, f.apps.Cancel(f.ctx, PrincipalOf(alice), a.ID))
	assert.True(t, utils.IsCode(f.apps.Cancel(f.ctx, PrincipalOf(alice), a.ID), utils.CodeNotFound))
}

func TestCountByStatus(t *testing.T) {
	f := newFixture(t)
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	j1 := f.job(t, emp, "One")
	j2 := f.job(t, emp, "Two")
	j3 := f.job(t, emp, "Three")

	for _, j := range []*models.Job{j1, j2, j3} {
		_, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
		require.NoError(t, err)
	}
	mine, err := f.apps.ListMine(f.ctx, alice.ID)
	require.NoError(t, err)
	_, err = f.apps.UpdateStatus(f.ctx, PrincipalOf(emp), mine[0].ID, "REJECTED")
	require.NoError(t, err)
	_, err = f.apps.UpdateStatus(f.ctx, PrincipalOf(emp), mine[1].ID, "REVIEWED")
	require.NoError(t, err)

	counts, err := f.apps.CountByStatus(f.ctx, PrincipalOf(alice), "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"PENDING": 1, "ACCEPTED": 0, "REJECTED": 1}, counts)

	bob := f.register(t, "bob", "")
	_, err = f.apps.CountByStatus(f.ctx, PrincipalOf(bob), "alice")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = f.apps.CountByStatus(f.ctx, admin(), "alice")
	assert.NoError(t, err)

	filtered, err := f.apps.Filter(f.ctx, alice.ID, "rejected")
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestGetApplicationVisibility(t *testing.T) {
	f := newFixture(t)
	emp := f.register(t, "acme", models.RoleEmployer)
	alice := f.register(t, "alice", "")
	bob := f.register(t, "bob", "")
	j := f.job(t, emp, "Backend")
	a, err := f.apps.Apply(f.ctx, PrincipalOf(alice), ApplyInput{JobID: j.ID})
	require.NoError(t, err)

	for _, u := range []*models.User{alice, emp} {
		_, err := f.apps.Get(f.ctx, PrincipalOf(u), a.ID)
		assert.NoError(t, err, u.Username)
	}
	_, err = f.apps.Get(f.ctx, PrincipalOf(bob), a.ID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = f.apps.ListByJob(f.ctx, PrincipalOf(bob), j.ID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
	list, err := f.apps.ListByJob(f.ctx, PrincipalOf(emp), j.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
