package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/projects-crm/internal/constants"
	"github.com/yukikurage/projects-crm/internal/credentials"
	"github.com/yukikurage/projects-crm/internal/middleware"
	"github.com/yukikurage/projects-crm/internal/services"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Log          zerolog.Logger
	SessionStore sessions.Store
	Users        middleware.UserLookup

	Auth      *services.AuthService
	Identity  *services.IdentityService
	Projects  *services.ProjectService
	Campaigns *services.CampaignService
	Plans     *services.PlanService
	Brands    *services.BrandService
	Lifecycle *services.LifecycleService

	WebhookSecret credentials.Verifier
	APIKey        credentials.Verifier

	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// NewRouter wires every route onto a new gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(deps.Log))
	r.Use(sessions.Sessions(constants.SessionCookieName, deps.SessionStore))

	authHandler := NewAuthHandler(deps.Auth)
	identityHandler := NewIdentityHandler(deps.Identity)
	projectHandler := NewProjectHandler(deps.Projects, deps.Lifecycle)
	campaignHandler := NewCampaignHandler(deps.Campaigns, deps.Lifecycle)
	planHandler := NewPlanHandler(deps.Plans, deps.Lifecycle)
	brandHandler := NewBrandHandler(deps.Brands)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Projects CRM is running",
		})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	requireSession := []gin.HandlerFunc{middleware.RequireAuth(), middleware.RequireActiveUser(deps.Users)}
	withID := middleware.RequireIDParam("id")

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/login-with-agency-crm", authHandler.LoginWithAgencyCRM)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", append(requireSession, authHandler.GetCurrentUser)...)
	}

	api := r.Group("/api")
	{
		// Agency CRM webhooks
		webhooks := api.Group("/webhooks")
		webhooks.Use(middleware.RequireCredential(constants.HeaderWebhookSecret, deps.WebhookSecret))
		{
			webhooks.POST("/user_created", identityHandler.UserCreated)
			webhooks.POST("/user_updated", identityHandler.UserUpdated)
			webhooks.POST("/user_deleted", identityHandler.UserDeleted)
		}

		// Service-to-service routes
		service := api.Group("")
		service.Use(middleware.RequireCredential(constants.HeaderAPIKey, deps.APIKey))
		{
			service.POST("/sync-user", identityHandler.SyncUser)
			service.POST("/sync-users", identityHandler.SyncUsers)
			service.GET("/campaigns/for-ekranu", campaignHandler.ActiveCampaignFeed)
		}

		// Session routes
		session := api.Group("")
		session.Use(requireSession...)
		{
			session.GET("/dashboard", projectHandler.Dashboard)
			session.GET("/brands", brandHandler.ListBrands)

			session.POST("/projects", projectHandler.CreateProject)
			session.GET("/projects", projectHandler.ListProjects)
			session.GET("/projects/:id", withID, projectHandler.GetProject)
			session.PUT("/projects/:id", withID, projectHandler.UpdateProject)
			session.DELETE("/projects/:id", withID, projectHandler.DeleteProject)
			session.POST("/projects/:id/campaigns", withID, campaignHandler.CreateCampaign)
			session.GET("/projects/:id/campaigns", withID, campaignHandler.ListCampaigns)

			session.GET("/campaigns/:id", withID, campaignHandler.GetCampaign)
			session.PUT("/campaigns/:id", withID, campaignHandler.UpdateCampaign)
			session.DELETE("/campaigns/:id", withID, campaignHandler.DeleteCampaign)
			session.POST("/campaigns/:id/plans", withID, planHandler.CreatePlan)
			session.GET("/campaigns/:id/plans", withID, planHandler.ListPlans)
			session.DELETE("/campaigns/:id/plans/by-name/:name", withID, planHandler.DeletePlanByName)

			session.GET("/plans/:id", withID, planHandler.GetPlan)
			session.PUT("/plans/:id", withID, planHandler.UpdatePlan)
			session.DELETE("/plans/:id", withID, planHandler.DeletePlan)
		}
	}

	return r
}
