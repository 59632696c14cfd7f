package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Insecure development defaults. Release builds refuse to start with any of them.
const (
	DevAgencyCRMAPIKey = "dev-agency-crm-api-key-change-me"
	DevWebhookSecret   = "shared-secret-key"
	DevAPIKey          = "dev-projects-crm-api-key-change-me"
	DevSessionSecret   = "default-secret-key-change-me"
)

var ErrInsecureDefaults = errors.New("insecure development defaults in release mode")

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER" default:"projectsuser"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"projectspassword"`
	DBName     string `envconfig:"DB_NAME" default:"projects_crm"`
	DBPath     string `envconfig:"DB_PATH" default:"projects.db"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	SessionStore  string `envconfig:"SESSION_STORE" default:"redis"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"default-secret-key-change-me"`

	AgencyCRMURL     string        `envconfig:"AGENCY_CRM_API_URL" default:"http://localhost:5001/api"`
	AgencyCRMAPIKey  string        `envconfig:"AGENCY_CRM_API_KEY" default:"dev-agency-crm-api-key-change-me"`
	AgencyCRMTimeout time.Duration `envconfig:"AGENCY_CRM_TIMEOUT" default:"10s"`
	BrandCacheTTL    time.Duration `envconfig:"BRAND_CACHE_TTL" default:"5m"`

	// WebhookSecretHash, when set, is a bcrypt hash accepted alongside WebhookSecret.
	WebhookSecret     string `envconfig:"WEBHOOK_SECRET" default:"shared-secret-key"`
	WebhookSecretHash string `envconfig:"WEBHOOK_SECRET_HASH"`
	APIKey            string `envconfig:"API_KEY" default:"dev-projects-crm-api-key-change-me"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.AgencyCRMURL = strings.TrimRight(cfg.AgencyCRMURL, "/")
	return &cfg, nil
}

func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// InsecureDefaults lists the settings still carrying a development default.
func (c *Config) InsecureDefaults() []string {
	var names []string
	if c.AgencyCRMAPIKey == DevAgencyCRMAPIKey {
		names = append(names, "AGENCY_CRM_API_KEY")
	}
	if c.WebhookSecret == DevWebhookSecret {
		names = append(names, "WEBHOOK_SECRET")
	}
	if c.APIKey == DevAPIKey {
		names = append(names, "API_KEY")
	}
	if c.SessionSecret == DevSessionSecret {
		names = append(names, "SESSION_SECRET")
	}
	return names
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionStore {
	case "redis", "cookie":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	if c.AgencyCRMTimeout <= 0 {
		return fmt.Errorf("AGENCY_CRM_TIMEOUT must be positive")
	}
	if c.IsRelease() {
		if names := c.InsecureDefaults(); len(names) > 0 {
			return fmt.Errorf("%w: %s", ErrInsecureDefaults, strings.Join(names, ", "))
		}
	}
	return nil
}
