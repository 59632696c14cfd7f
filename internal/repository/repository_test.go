package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/database"
	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, IsActive: true}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newProject(ownerID uint64, name string) *models.Project {
	return &models.Project{
		Name:          name,
		ClientBrandID: 1,
		StartDate:     date(2025, 1, 1),
		EndDate:       date(2025, 12, 31),
		OwnerID:       ownerID,
	}
}

func newCampaign(projectID uint64, i int) *models.Campaign {
	return &models.Campaign{
		Name:      fmt.Sprintf("Campaign %d", i),
		ProjectID: projectID,
		StartDate: date(2025, 2, 1),
		EndDate:   date(2025, 3, 1),
	}
}
