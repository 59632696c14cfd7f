package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	"github.com/yukikurage/projects-crm/internal/database"
	"github.com/yukikurage/projects-crm/internal/metrics"
	"github.com/yukikurage/projects-crm/internal/models"
	"github.com/yukikurage/projects-crm/internal/repository"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	users     repository.UserRepository
	projects  repository.ProjectRepository
	campaigns repository.CampaignRepository
	plans     repository.PlanRepository
	metrics   *metrics.Recorder
	registry  *prometheus.Registry
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	registry := prometheus.NewRegistry()
	return testEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		projects:  repository.NewProjectRepository(db),
		campaigns: repository.NewCampaignRepository(db),
		plans:     repository.NewPlanRepository(db),
		metrics:   metrics.NewRecorder(registry),
		registry:  registry,
	}
}

func (e testEnv) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

// loginCount reads the login counter for one path and result.
func (e testEnv) loginCount(t *testing.T, path, result string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "projects_crm_login_attempts_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["path"] == path && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func fixedClock(year int) Clock {
	return func() time.Time {
		return time.Date(year, 6, 1, 12, 0, 0, 0, time.UTC)
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

// fakeRemote stands in for the agency CRM client.
type fakeRemote struct {
	user     *agencycrm.RemoteUser
	err      error
	users    []agencycrm.RemoteUser
	listErr  error
	brands   []agencycrm.Brand
	calls    int
	brandErr error
}

func (f *fakeRemote) Authenticate(_ context.Context, email, _ string) (*agencycrm.RemoteUser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	if u.Email == "" {
		u.Email = email
	}
	return &u, nil
}

func (f *fakeRemote) ListUsers(context.Context) ([]agencycrm.RemoteUser, error) {
	f.calls++
	return f.users, f.listErr
}

func (f *fakeRemote) ListBrands(context.Context) ([]agencycrm.Brand, error) {
	f.calls++
	if f.brandErr != nil {
		return nil, f.brandErr
	}
	return f.brands, nil
}

func (f *fakeRemote) GetBrand(_ context.Context, id int64) (*agencycrm.Brand, error) {
	if f.brandErr != nil {
		return nil, f.brandErr
	}
	for _, b := range f.brands {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, agencycrm.ErrNotFound
}
