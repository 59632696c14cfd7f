package constants

const (
	// ContextKeyUserID is the session and gin context key holding the local user id.
	ContextKeyUserID = "user_id"
	// ContextKeyUser holds the *models.User loaded for the session.
	ContextKeyUser = "user"
	// ContextKeyRequestID holds the per-request correlation id.
	ContextKeyRequestID = "request_id"

	SessionCookieName = "projects_session"

	HeaderWebhookSecret = "X-Webhook-Secret"
	HeaderAPIKey        = "X-API-Key"
	HeaderRequestID     = "X-Request-ID"

	MinPasswordLength = 8

	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 100

	DashboardRecentProjects = 5
)
