package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	apierrors "github.com/yukikurage/projects-crm/internal/errors"
	"github.com/yukikurage/projects-crm/internal/metrics"
	"github.com/yukikurage/projects-crm/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(env testEnv, remote RemoteAuthenticator) *AuthService {
	return NewAuthService(env.users, remote, env.metrics, zerolog.Nop())
}

func (e testEnv) createLocalUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	user := &models.User{Email: email, PasswordHash: &h, IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), user))
	if !active {
		_, err := e.users.Deactivate(context.Background(), email)
		require.NoError(t, err)
	}
	return user
}

func TestLogin_RemoteSuccessCreatesLinkedUser(t *testing.T) {
	env := setupTestEnv(t)
	remote := &fakeRemote{user: &agencycrm.RemoteUser{ID: 42, Email: "a@x.com", FirstName: strPtr("Ada")}}
	svc := newAuthService(env, remote)

	user, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	require.NotNil(t, user.AgencyCRMID)
	assert.EqualValues(t, 42, *user.AgencyCRMID)
	assert.True(t, user.IsActive)
	assert.False(t, user.HasLocalCredential())
	assert.Equal(t, "Ada", user.FirstName)
}

func TestLogin_RemoteSuccessLinksExistingEmailAndKeepsHash(t *testing.T) {
	env := setupTestEnv(t)
	local := env.createLocalUser(t, "a@x.com", "localpass", false)
	remote := &fakeRemote{user: &agencycrm.RemoteUser{ID: 42, Email: "a@x.com"}}
	svc := newAuthService(env, remote)

	user, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "remotepass"})
	require.NoError(t, err)
	assert.Equal(t, local.ID, user.ID)
	assert.True(t, user.IsActive)

	reloaded, err := env.users.FindByID(context.Background(), local.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasLocalCredential())
	assert.Equal(t, *local.PasswordHash, *reloaded.PasswordHash)
}

func TestLogin_RemoteSuccessFindsUserByRemoteID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	svc := newIdentityService(env, nil)
	_, existing, err := svc.PushUpsert(ctx, IdentityRecord{Email: "old@x.com", RemoteID: int64Ptr(5)})
	require.NoError(t, err)

	auth := newAuthService(env, &fakeRemote{user: &agencycrm.RemoteUser{ID: 5, Email: "new@x.com", LastName: strPtr("L")}})
	user, err := auth.Login(ctx, LoginInput{Email: "new@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "L", user.LastName)
}

func TestLogin_RemoteTimeoutFallsBackToLocalHash(t *testing.T) {
	env := setupTestEnv(t)
	local := env.createLocalUser(t, "a@x.com", "localpass", true)
	remote := &fakeRemote{err: fmt.Errorf("%w: context deadline exceeded", agencycrm.ErrUnavailable)}
	svc := newAuthService(env, remote)

	user, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "localpass"})
	require.NoError(t, err)
	assert.Equal(t, local.ID, user.ID)
	assert.Equal(t, 1.0, env.loginCount(t, metrics.PathFallback, metrics.ResultSuccess))

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong"})
	require.ErrorIs(t, err, apierrors.ErrAuthentication)
}

func TestLogin_FallbackRequiresActiveUser(t *testing.T) {
	env := setupTestEnv(t)
	env.createLocalUser(t, "a@x.com", "localpass", false)
	svc := newAuthService(env, &fakeRemote{err: agencycrm.ErrUnavailable})

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "localpass"})
	require.ErrorIs(t, err, apierrors.ErrAuthentication)
}

func TestLogin_FallbackRequiresHash(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "a@x.com")
	svc := newAuthService(env, &fakeRemote{err: agencycrm.ErrUnavailable})

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "anything"})
	require.ErrorIs(t, err, apierrors.ErrAuthentication)
}

func TestLogin_RemoteRejectionIsFinal(t *testing.T) {
	env := setupTestEnv(t)
	env.createLocalUser(t, "a@x.com", "localpass", true)
	svc := newAuthService(env, &fakeRemote{err: agencycrm.ErrRejected})

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "localpass"})
	require.ErrorIs(t, err, apierrors.ErrAuthentication)
	assert.Equal(t, 1.0, env.loginCount(t, metrics.PathRemote, metrics.ResultRejected))
}

func TestLogin_FailureCreatesNoUser(t *testing.T) {
	env := setupTestEnv(t)
	svc := newAuthService(env, &fakeRemote{err: agencycrm.ErrRejected})

	_, err := svc.Login(context.Background(), LoginInput{Email: "ghost@x.com", Password: "pw"})
	require.ErrorIs(t, err, apierrors.ErrAuthentication)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLogin_EmptyCredentials(t *testing.T) {
	env := setupTestEnv(t)
	remote := &fakeRemote{}
	svc := newAuthService(env, remote)

	_, err := svc.Login(context.Background(), LoginInput{Email: "", Password: "pw"})
	require.ErrorIs(t, err, apierrors.ErrAuthentication)
	assert.Zero(t, remote.calls)
}

func TestSetLocalPassword(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "a@x.com")
	svc := newAuthService(env, nil)

	require.ErrorIs(t, svc.SetLocalPassword(ctx, "a@x.com", "short"), apierrors.ErrValidation)
	require.ErrorIs(t, svc.SetLocalPassword(ctx, "ghost@x.com", "longenough"), apierrors.ErrNotFound)
	require.NoError(t, svc.SetLocalPassword(ctx, "a@x.com", "longenough"))

	user, err := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", user.Email)
}
