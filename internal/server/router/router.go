package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/metrics"
	"github.com/legalchicks/coopnet/internal/server/handlers"
	"github.com/legalchicks/coopnet/internal/service/auth"
)

// Handlers bundles every HTTP adapter the router wires up.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Membership *handlers.MembershipHandler
	Market     *handlers.MarketHandler
	Dashboard  *handlers.DashboardHandler
	Admin      *handlers.AdminHandler
	Settings   *handlers.SettingsHandler
	Stream     *handlers.StreamHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, authSvc *auth.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metrics.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")

	// Public: sign-in and the application funnel need no session.
	api.POST("/auth/signup", h.Auth.SignUp)
	api.POST("/auth/signin", h.Auth.SignIn)
	api.POST("/auth/magic-link", h.Auth.RequestMagicLink)
	api.POST("/auth/magic-link/redeem", h.Auth.RedeemMagicLink)
	api.POST("/apply/validate/:step", h.Membership.ValidateStep)
	api.POST("/apply", h.Membership.Submit)

	// Member routes.
	member := api.Group("", RequireAuth(authSvc))
	member.GET("/me", h.Auth.Me)

	member.GET("/dashboard/kpis", h.Dashboard.KPIs)
	member.PUT("/dashboard/kpis", h.Dashboard.RecordKPIs)
	member.GET("/dashboard/kpis/history", h.Dashboard.KPIHistory)
	member.GET("/dashboard/livestock", h.Dashboard.Flocks)
	member.PUT("/dashboard/livestock", h.Dashboard.SaveFlock)
	member.GET("/dashboard/supplies", h.Dashboard.Supplies)
	member.PUT("/dashboard/supplies", h.Dashboard.SaveSupply)
	member.GET("/dashboard/egg-production", h.Dashboard.EggProduction)
	member.PUT("/dashboard/egg-production", h.Dashboard.RecordEggProduction)
	member.GET("/dashboard/alerts", h.Dashboard.Alerts)
	member.GET("/dashboard/announcements", h.Dashboard.Announcements)
	member.POST("/dashboard/advisory-report", h.Dashboard.AdvisoryReport)

	member.GET("/market/prices", h.Market.Prices)
	member.GET("/market/prices/:id/history", h.Market.PriceHistory)
	member.GET("/market/listings", h.Market.Listings)
	member.GET("/market/my-listings", h.Market.MyListings)
	member.POST("/market/listings", h.Market.CreateListing)
	member.PUT("/market/listings/:id", h.Market.UpdateListing)
	member.DELETE("/market/listings/:id", h.Market.DeleteListing)

	member.GET("/settings", h.Settings.Settings)
	member.PUT("/settings", h.Settings.SaveSettings)
	member.POST("/settings/photo", h.Settings.UploadPhoto)

	member.GET("/stream", h.Stream.Serve)

	// Admin routes.
	admin := api.Group("/admin", RequireAuth(authSvc), RequireAdmin())
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/members", h.Admin.Members)
	admin.PUT("/members/:uid/role", h.Admin.UpdateMemberRole)
	admin.GET("/applications", h.Admin.Applications)
	admin.PUT("/applications/:id/status", h.Admin.UpdateApplicationStatus)
	admin.POST("/application-batches", h.Admin.BulkUpdateApplicationStatus)
	admin.POST("/announcements", h.Admin.CreateAnnouncement)
	admin.DELETE("/announcements/:id", h.Admin.DeleteAnnouncement)
	admin.PUT("/market/prices/:id", h.Admin.UpdateMarketPrice)
	admin.GET("/roster/export.csv", h.Admin.ExportRosterCSV)
	admin.POST("/roster/export-sheet", h.Admin.ExportRosterToSheet)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
