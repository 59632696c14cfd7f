package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 10*time.Second, cfg.AgencyCRMTimeout)
	assert.Equal(t, DevWebhookSecret, cfg.WebhookSecret)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AGENCY_CRM_API_URL", "https://crm.example.com/api/")
	t.Setenv("AGENCY_CRM_TIMEOUT", "5s")
	t.Setenv("DB_DRIVER", "Postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://crm.example.com/api", cfg.AgencyCRMURL)
	assert.Equal(t, 5*time.Second, cfg.AgencyCRMTimeout)
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestValidate_ReleaseRejectsInsecureDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("API_KEY", "a-real-key")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.ErrorIs(t, err, ErrInsecureDefaults)
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET")
	assert.NotContains(t, cfg.InsecureDefaults(), "API_KEY")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "oracle", SessionStore: "cookie", AgencyCRMTimeout: time.Second}
	require.Error(t, cfg.Validate())
}
