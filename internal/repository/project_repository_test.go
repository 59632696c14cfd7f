package repository

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestProjectRepository_CreateWithCode_Sequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@x.com")
	repo := NewProjectRepository(db)

	first := newProject(owner.ID, "First")
	require.NoError(t, repo.CreateWithCode(ctx, first, 2025))
	assert.Equal(t, "PLN-25-001", first.Code)

	second := newProject(owner.ID, "Second")
	require.NoError(t, repo.CreateWithCode(ctx, second, 2025))
	assert.Equal(t, "PLN-25-002", second.Code)

	nextYear := newProject(owner.ID, "Next year")
	require.NoError(t, repo.CreateWithCode(ctx, nextYear, 2026))
	assert.Equal(t, "PLN-26-001", nextYear.Code)
}

func TestProjectRepository_CreateWithCode_SeedsFromExistingRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@x.com")

	legacy := newProject(owner.ID, "Legacy")
	legacy.Code = "PLN-25-041"
	require.NoError(t, db.Create(legacy).Error)

	project := newProject(owner.ID, "After legacy")
	require.NoError(t, NewProjectRepository(db).CreateWithCode(ctx, project, 2025))
	assert.Equal(t, "PLN-25-042", project.Code)
}

func TestProjectRepository_CreateWithCode_PassesRowsAheadOfCounter(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@x.com")
	repo := NewProjectRepository(db)

	first := newProject(owner.ID, "First")
	require.NoError(t, repo.CreateWithCode(ctx, first, 2025))
	require.Equal(t, "PLN-25-001", first.Code)

	stray := newProject(owner.ID, "Stray")
	stray.Code = "PLN-25-002"
	require.NoError(t, db.Create(stray).Error)

	project := newProject(owner.ID, "After stray")
	require.NoError(t, repo.CreateWithCode(ctx, project, 2025))
	assert.Equal(t, "PLN-25-003", project.Code)

	var counter models.CodeCounter
	require.NoError(t, db.First(&counter, "namespace = ?", "project:25").Error)
	assert.Equal(t, "PLN-25-003", counter.LastCode)
	assert.EqualValues(t, 3, counter.Sequence)
}

func TestProjectRepository_CreateWithCode_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@x.com")
	repo := NewProjectRepository(db)

	const n = 12
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := newProject(owner.ID, "Concurrent")
			if err := repo.CreateWithCode(ctx, p, 2025); err == nil {
				codes <- p.Code
			}
		}()
	}
	wg.Wait()
	close(codes)

	seen := map[string]bool{}
	for code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Len(t, seen, n)
}

func TestProjectRepository_ListByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@x.com")
	other := createUser(t, db, "other@x.com")
	repo := NewProjectRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateWithCode(ctx, newProject(owner.ID, "Mine"), 2025))
	}
	require.NoError(t, repo.CreateWithCode(ctx, newProject(other.ID, "Theirs"), 2025))

	projects, total, err := repo.ListByOwner(ctx, owner.ID, utils.PaginationParams{Page: 1, Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, projects, 2)
	assert.Equal(t, "PLN-25-003", projects[0].Code)

	page2, total, err := repo.ListByOwner(ctx, owner.ID, utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page2, 1)
	assert.Equal(t, "PLN-25-001", page2[0].Code)

	all, _, err := repo.ListByOwner(ctx, owner.ID, utils.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	count, err := repo.CountByOwner(ctx, other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestProjectRepository_Delete_Cascades(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@x.com")
	projects := NewProjectRepository(db)
	campaigns := NewCampaignRepository(db)
	plans := NewPlanRepository(db)

	project := newProject(owner.ID, "Doomed")
	require.NoError(t, projects.CreateWithCode(ctx, project, 2025))
	require.Equal(t, "PLN-25-001", project.Code)

	keep := newProject(owner.ID, "Survivor")
	require.NoError(t, projects.CreateWithCode(ctx, keep, 2025))
	survivor := newCampaign(keep.ID, 0)
	require.NoError(t, campaigns.CreateWithCode(ctx, survivor, keep.Code))
	require.NoError(t, plans.Create(ctx, &models.Plan{CampaignID: survivor.ID}))

	for i := 0; i < 2; i++ {
		campaign := newCampaign(project.ID, i)
		require.NoError(t, campaigns.CreateWithCode(ctx, campaign, project.Code))
		for j := 0; j < 3; j++ {
			require.NoError(t, plans.Create(ctx, &models.Plan{CampaignID: campaign.ID}))
		}
	}

	result, err := projects.Delete(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Projects: 1, Campaigns: 2, Plans: 6}, result)

	var remaining int64
	require.NoError(t, db.Model(&models.Plan{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)
	require.NoError(t, db.Model(&models.Campaign{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining)

	var counters int64
	require.NoError(t, db.Model(&models.CodeCounter{}).Where("namespace = ?", "campaign:1").Count(&counters).Error)
	assert.Zero(t, counters)

	_, err = projects.Delete(ctx, project.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjectRepository_Delete_RollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id` FROM `campaigns`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `plans`")).
		WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err = NewProjectRepository(db).Delete(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete project 7")
	require.NoError(t, mock.ExpectationsWereMet())
}
