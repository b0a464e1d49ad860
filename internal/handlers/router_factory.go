package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"gymdash/internal/config"
	"gymdash/internal/middleware"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	"gymdash/internal/services"
	"gymdash/internal/version"
)

// When adding new API endpoints, decide whether they belong to the tenant group
// (RequireTenantUser) or the admin group (RequireStaff). Nothing else is authenticated.

// NewRouter creates the gin engine with all middleware and routes
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	featureRequestService serviceinterfaces.FeatureRequestService,
	issueTracker serviceinterfaces.IssueTracker,
	logger *observability.Logger,
) *gin.Engine {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	// Setup Gin mode
	switch {
	case cfg.Server.Debug:
		gin.SetMode(gin.DebugMode)
	case cfg.IsTest:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger, nil))

	// Add HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.FullPath(),
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		// Use appropriate log level based on status code
		switch {
		case statusCode >= 500:
			fields["http.error_type"] = "server_error"
			var lastErr error
			if last := c.Errors.Last(); last != nil {
				lastErr = last.Err
			}
			logger.Error(c.Request.Context(), "HTTP request failed", lastErr, fields)
		case statusCode >= 400:
			fields["http.error_type"] = "client_error"
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gymdash"})
	})

	// Add OpenTelemetry middleware for HTTP tracing and context propagation with automatic error attributes
	router.Use(observability.GinMiddlewareWithErrorHandling("gymdash-server"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// Setup CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Setup session middleware
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   cfg.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	// Security middleware
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug || cfg.IsTest
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	authHandler := NewAuthHandler(userService, cfg, logger)
	requestHandler := NewFeatureRequestHandler(featureRequestService, cfg, logger)
	adminHandler := NewAdminFeatureRequestHandler(featureRequestService, issueTracker, cfg, logger)
	userAdminHandler := NewUserAdminHandler(userService, cfg, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "gymdash",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
		}

		requests := v1.Group("/feature-requests")
		requests.Use(middleware.RequireTenantUser())
		{
			requests.POST("", requestHandler.CreateRequest)
			requests.GET("", requestHandler.ListRequests)
			requests.GET("/sla-report", requestHandler.SLAReport)
			requests.GET("/:id", requestHandler.GetRequest)
			requests.POST("/:id/comments", requestHandler.AddComment)
			requests.GET("/:id/comments", requestHandler.ListComments)
			requests.POST("/:id/attachments", requestHandler.AddAttachment)
			requests.GET("/:id/attachments", requestHandler.ListAttachments)
		}

		accounts := v1.Group("/admin")
		accounts.Use(middleware.RequireStaff())
		{
			accounts.GET("/tenants", userAdminHandler.ListTenants)
			accounts.POST("/tenants", userAdminHandler.CreateTenant)
			accounts.POST("/users", userAdminHandler.CreateUser)
		}

		admin := v1.Group("/admin/tenants/:tenant_id/feature-requests")
		admin.Use(middleware.RequireStaff())
		{
			admin.GET("", adminHandler.ListRequests)
			admin.GET("/:id", adminHandler.GetRequest)
			admin.PATCH("/:id", adminHandler.UpdateStaffFields)
			admin.POST("/:id/transition", adminHandler.Transition)
			admin.POST("/:id/override", adminHandler.OverrideStatus)
			admin.POST("/:id/comments", adminHandler.AddComment)
			admin.GET("/:id/history", adminHandler.History)
			admin.POST("/:id/linear-issue", adminHandler.CreateLinearIssue)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage, "code": "RECORD_NOT_FOUND"})
	})

	// Route listing at the root path in debug mode
	if cfg.Server.Debug {
		routeListing := NewRouteListingHandler("gymdash")
		routeListing.CollectRoutes(router)
		router.GET("/", func(c *gin.Context) {
			if c.Query("json") == "true" {
				routeListing.GetRouteListingJSON(c)
			} else {
				routeListing.GetRouteListingPage(c)
			}
		})
	}

	return router
}
