package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projects-crm/internal/agencycrm"
	"github.com/yukikurage/projects-crm/internal/constants"
	"github.com/yukikurage/projects-crm/internal/credentials"
	"github.com/yukikurage/projects-crm/internal/database"
	"github.com/yukikurage/projects-crm/internal/metrics"
	"github.com/yukikurage/projects-crm/internal/repository"
	"github.com/yukikurage/projects-crm/internal/services"
	"gorm.io/gorm"
)

const (
	testWebhookSecret = "webhook-secret"
	testAPIKey        = "api-key"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// agencyStub is a scripted agency CRM.
type agencyStub struct {
	mu        sync.Mutex
	loginCode int
	loginBody string
	users     string
	brands    string
	down      bool
}

func (s *agencyStub) set(fn func(s *agencyStub)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *agencyStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.down {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/auth/login":
		w.WriteHeader(s.loginCode)
		_, _ = w.Write([]byte(s.loginBody))
	case r.URL.Path == "/users":
		_, _ = w.Write([]byte(s.users))
	case r.URL.Path == "/brands":
		_, _ = w.Write([]byte(s.brands))
	case strings.HasPrefix(r.URL.Path, "/brands/"):
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type handlerTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	agency *agencyStub
}

func setupHandlerTestEnv(t *testing.T) handlerTestEnv {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zerolog.Nop()))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	agency := &agencyStub{
		loginCode: http.StatusUnauthorized,
		loginBody: `{"success":false}`,
		users:     `[]`,
		brands:    `[{"id":7,"full_name":"Acme Corporation","name":"Acme"}]`,
	}
	server := httptest.NewServer(agency)
	t.Cleanup(server.Close)

	client, err := agencycrm.NewClient(server.URL, "remote-key", agencycrm.WithTimeout(2*time.Second))
	require.NoError(t, err)

	log := zerolog.Nop()
	registry := prometheus.NewRegistry()
	rec := metrics.NewRecorder(registry)

	users := repository.NewUserRepository(db)
	projects := repository.NewProjectRepository(db)
	campaigns := repository.NewCampaignRepository(db)
	plans := repository.NewPlanRepository(db)
	brands := services.NewBrandService(client, nil, time.Minute, log)
	clock := func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	router := NewRouter(RouterDeps{
		Log:           log,
		SessionStore:  cookie.NewStore([]byte("secret")),
		Users:         users,
		Auth:          services.NewAuthService(users, client, rec, log),
		Identity:      services.NewIdentityService(users, client, rec, log),
		Projects:      services.NewProjectService(projects, campaigns, brands, clock, log),
		Campaigns:     services.NewCampaignService(projects, campaigns, log),
		Plans:         services.NewPlanService(campaigns, plans, log),
		Brands:        brands,
		Lifecycle:     services.NewLifecycleService(projects, campaigns, plans, log),
		WebhookSecret: credentials.StaticSecret(testWebhookSecret),
		APIKey:        credentials.StaticSecret(testAPIKey),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	return handlerTestEnv{db: db, router: router, agency: agency}
}

type request struct {
	method  string
	path    string
	body    any
	headers map[string]string
	cookies []*http.Cookie
}

func (e handlerTestEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs in through the agency CRM stub as the given remote user.
func (e handlerTestEnv) login(t *testing.T, remoteID int64, email string) []*http.Cookie {
	t.Helper()

	e.agency.set(func(s *agencyStub) {
		s.loginCode = http.StatusOK
		s.loginBody = `{"success":true,"user":{"id":` + jsonInt(remoteID) + `,"email":"` + email + `"}}`
	})
	w := e.do(t, request{
		method: http.MethodPost,
		path:   "/auth/login-with-agency-crm",
		body:   map[string]string{"email": email, "password": "whatever"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func webhookHeaders() map[string]string {
	return map[string]string{constants.HeaderWebhookSecret: testWebhookSecret}
}

func apiKeyHeaders() map[string]string {
	return map[string]string{constants.HeaderAPIKey: testAPIKey}
}
