package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/models"
)

func newIdentityService(env testEnv, remote UserDirectory) *IdentityService {
	return NewIdentityService(env.users, remote, env.metrics, zerolog.Nop())
}

func TestPushUpsert_SameEmailTwiceKeepsOneRow(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	ctx := context.Background()

	outcome, first, err := svc.PushUpsert(ctx, IdentityRecord{
		Email:     "a@x.com",
		RemoteID:  int64Ptr(42),
		FirstName: strPtr("Ada"),
		LastName:  strPtr("Lovelace"),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.True(t, first.IsActive)

	outcome, second, err := svc.PushUpsert(ctx, IdentityRecord{
		Email:    "a@x.com",
		LastName: strPtr("Byron"),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, first.ID, second.ID)

	var users []models.User
	require.NoError(t, env.db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "Ada", users[0].FirstName)
	assert.Equal(t, "Byron", users[0].LastName)
	require.NotNil(t, users[0].AgencyCRMID)
	assert.EqualValues(t, 42, *users[0].AgencyCRMID)
}

func TestPushUpsert_AppliesActiveFlagToExistingUser(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	ctx := context.Background()
	env.createUser(t, "a@x.com")

	_, user, err := svc.PushUpsert(ctx, IdentityRecord{Email: "a@x.com", IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestPushUpsert_RejectsMissingEmail(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)

	outcome, _, err := svc.PushUpsert(context.Background(), IdentityRecord{FirstName: strPtr("Ada")})
	require.ErrorIs(t, err, apierrors.ErrValidation)
	assert.Equal(t, OutcomeRejected, outcome)
}

func TestPushUpsert_RemoteIDOwnedByAnotherUserConflicts(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	ctx := context.Background()

	_, _, err := svc.PushUpsert(ctx, IdentityRecord{Email: "a@x.com", RemoteID: int64Ptr(7)})
	require.NoError(t, err)

	_, _, err = svc.PushUpsert(ctx, IdentityRecord{Email: "b@x.com", RemoteID: int64Ptr(7)})
	require.ErrorIs(t, err, apierrors.ErrConflict)
}

func TestPullUpsert_NeverTouchesActiveFlag(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	ctx := context.Background()
	user := env.createUser(t, "a@x.com")
	_, err := env.users.Deactivate(ctx, user.Email)
	require.NoError(t, err)

	outcome, updated, err := svc.PullUpsert(ctx, IdentityRecord{
		Email:     "a@x.com",
		RemoteID:  int64Ptr(3),
		FirstName: strPtr("Ada"),
		IsActive:  boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Ada", updated.FirstName)
}

func TestDeactivate_KeepsProjects(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	ctx := context.Background()
	owner := env.createUser(t, "owner@x.com")

	projects := NewProjectService(env.projects, env.campaigns, nil, fixedClock(2025), zerolog.Nop())
	for i := 0; i < 2; i++ {
		_, err := projects.CreateProject(ctx, CreateProjectInput{
			OwnerID:       owner.ID,
			Name:          "Kept",
			ClientBrandID: 1,
			StartDate:     day(2025, 1, 1),
			EndDate:       day(2025, 12, 31),
		})
		require.NoError(t, err)
	}

	before, err := env.projects.CountByOwner(ctx, owner.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "owner@x.com"))

	after, err := env.projects.CountByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	reloaded, err := env.users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestDeactivate_UnknownEmailIsNoop(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "ghost@x.com"))
	require.ErrorIs(t, svc.Deactivate(context.Background(), " "), apierrors.ErrValidation)
}

func TestSyncByRemoteID(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	ctx := context.Background()

	outcome, created, err := svc.SyncByRemoteID(ctx, IdentityRecord{Email: "a@x.com", RemoteID: int64Ptr(9)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	outcome, updated, err := svc.SyncByRemoteID(ctx, IdentityRecord{Email: "renamed@x.com", RemoteID: int64Ptr(9), FirstName: strPtr("Ada")})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "renamed@x.com", updated.Email)

	_, _, err = svc.SyncByRemoteID(ctx, IdentityRecord{Email: "a@x.com"})
	require.ErrorIs(t, err, apierrors.ErrValidation)

	_, _, err = svc.SyncByRemoteID(ctx, IdentityRecord{RemoteID: int64Ptr(10)})
	require.ErrorIs(t, err, apierrors.ErrValidation)
}

func TestSyncByRemoteID_LinksExistingEmail(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, nil)
	local := env.createUser(t, "a@x.com")

	outcome, user, err := svc.SyncByRemoteID(context.Background(), IdentityRecord{Email: "a@x.com", RemoteID: int64Ptr(11)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, local.ID, user.ID)
	require.NotNil(t, user.AgencyCRMID)
	assert.EqualValues(t, 11, *user.AgencyCRMID)
}

func TestSyncAll(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "existing@x.com")

	remote := &fakeRemote{users: []agencycrm.RemoteUser{
		{ID: 1, Email: "existing@x.com", FirstName: strPtr("Old")},
		{ID: 2, Email: "new@x.com"},
		{ID: 3},
		{ID: 4, Email: "other@x.com"},
	}}
	svc := newIdentityService(env, remote)

	result, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Fetched: 4, Created: 2, Skipped: 1}, result)

	existing, err := env.users.FindByEmail(ctx, "existing@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Old", existing.FirstName)
	require.NotNil(t, existing.AgencyCRMID)
	assert.EqualValues(t, 1, *existing.AgencyCRMID)
}

func TestSyncAll_RemoteUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	svc := newIdentityService(env, &fakeRemote{listErr: errors.New("dial tcp: refused")})

	_, err := svc.SyncAll(context.Background())
	require.ErrorIs(t, err, apierrors.ErrRemoteUnavailable)
}
