package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserRepository_UniqueEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	require.NoError(t, repo.Create(ctx, &models.User{Email: "a@x.com", IsActive: true}))
	err := repo.Create(ctx, &models.User{Email: "a@x.com", IsActive: true})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_Lookups(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	remoteID := int64(42)
	user := &models.User{Email: "a@x.com", AgencyCRMID: &remoteID, IsActive: true}
	require.NoError(t, repo.Create(ctx, user))

	byRemote, err := repo.FindByAgencyCRMID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byRemote.ID)

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByEmail(ctx, "A@x.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Deactivate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := createUser(t, db, "a@x.com")

	matched, err := repo.Deactivate(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = repo.Deactivate(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = repo.Deactivate(ctx, "ghost@x.com")
	require.NoError(t, err)
	assert.False(t, matched)

	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestUserRepository_SetPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := createUser(t, db, "a@x.com")

	require.NoError(t, repo.SetPasswordHash(ctx, user.ID, "$2a$10$hash"))
	reloaded, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasLocalCredential())

	require.ErrorIs(t, repo.SetPasswordHash(ctx, 999, "x"), gorm.ErrRecordNotFound)
}

func TestUserRepository_TransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx UserRepository) error {
		if err := tx.Create(ctx, &models.User{Email: "a@x.com", IsActive: true}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.FindByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Create_MySQLDuplicate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'users.idx_users_email'"))
	mock.ExpectRollback()

	err = NewUserRepository(db).Create(context.Background(), &models.User{Email: "a@x.com", IsActive: true})
	require.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}
