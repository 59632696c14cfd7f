package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	"github.com/yukikurage/projects-crm/internal/cache"
	"github.com/yukikurage/projects-crm/internal/config"
	"github.com/yukikurage/projects-crm/internal/credentials"
	"github.com/yukikurage/projects-crm/internal/database"
	"github.com/yukikurage/projects-crm/internal/handlers"
	"github.com/yukikurage/projects-crm/internal/logger"
	"github.com/yukikurage/projects-crm/internal/metrics"
	"github.com/yukikurage/projects-crm/internal/repository"
	"github.com/yukikurage/projects-crm/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json", os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// run wires the application and serves until ctx is cancelled. Resources
// opened here are released before it returns.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if names := cfg.InsecureDefaults(); len(names) > 0 {
		log.Warn().Strs("settings", names).Msg("running with development defaults")
	}

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	client, err := agencycrm.NewClient(cfg.AgencyCRMURL, cfg.AgencyCRMAPIKey, agencycrm.WithTimeout(cfg.AgencyCRMTimeout))
	if err != nil {
		return fmt.Errorf("failed to create agency crm client: %w", err)
	}

	// Brand cache; the service keeps working uncached when redis is down.
	var brandCache cache.Store = cache.Noop{}
	redisCache, redisClient, err := cache.Connect(ctx, cfg.RedisAddr())
	if err != nil {
		log.Warn().Err(err).Msg("brand cache disabled")
	} else {
		brandCache = redisCache
		defer redisClient.Close()
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	// Repositories
	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	campaigns := repository.NewCampaignRepository(db)
	plans := repository.NewPlanRepository(db)

	// Services
	brands := services.NewBrandService(client, brandCache, cfg.BrandCacheTTL, log)

	router := handlers.NewRouter(handlers.RouterDeps{
		Log:           log,
		SessionStore:  store,
		Users:         users,
		Auth:          services.NewAuthService(users, client, recorder, log),
		Identity:      services.NewIdentityService(users, client, recorder, log),
		Projects:      services.NewProjectService(projects, campaigns, brands, nil, log),
		Campaigns:     services.NewCampaignService(projects, campaigns, log),
		Plans:         services.NewPlanService(campaigns, plans, log),
		Brands:        brands,
		Lifecycle:     services.NewLifecycleService(projects, campaigns, plans, log),
		WebhookSecret: credentials.FromConfig(cfg.WebhookSecret, cfg.WebhookSecretHash),
		APIKey:        credentials.FromConfig(cfg.APIKey, ""),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return serve(ctx, log, ":"+cfg.Port, router)
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "cookie":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		rs, err := redisStore.NewStore(
			10,                        // Redis pool size
			"tcp",                     // network type
			cfg.RedisAddr(),           // Redis address from config
			"",                        // username (empty for default user)
			"",                        // password (empty = no password)
			[]byte(cfg.SessionSecret), // authentication key
		)
		if err != nil {
			return nil, err
		}
		store = rs
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, log zerolog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
