// Package office wires the back-office JSON API: public auth endpoints and
// the authenticated module routes behind JWT and per-module permission
// middleware.
package office

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/access"
	"github.com/golden-turf/backoffice/internal/config"
	handlers "github.com/golden-turf/backoffice/internal/http/api/office/handlers"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/permissions"
	"github.com/golden-turf/backoffice/internal/ratelimit"
	"github.com/golden-turf/backoffice/internal/security"
	internalsettings "github.com/golden-turf/backoffice/internal/settings"
	"gorm.io/gorm"
)

// Deps carries the shared collaborators the office routes need.
type Deps struct {
	DB           *gorm.DB
	JWT          config.JWTConfig
	Settings     *internalsettings.Store
	LoginLimiter *ratelimit.Manager
}

// RegisterOfficeRoutes registers office routes, middleware, and handlers.
func RegisterOfficeRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(deps.DB)
	r.GET("/healthz", healthHandler.Healthz)

	officeGroup := r.Group("/v0/office")

	authHandler := handlers.NewAuthHandler(deps.DB, deps.JWT, deps.LoginLimiter)
	officeGroup.POST("/register", authHandler.Register)
	officeGroup.POST("/login", authHandler.Login)
	officeGroup.POST("/password-reset/request", authHandler.RequestPasswordReset)
	officeGroup.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
	officeGroup.POST("/verification/request", authHandler.RequestVerificationCode)
	officeGroup.POST("/verification/confirm", authHandler.ConfirmVerificationCode)

	authed := officeGroup.Group("")
	authed.Use(officeAuthMiddleware(deps.DB, deps.JWT))

	profileHandler := handlers.NewProfileHandler(deps.DB)
	authed.GET("/me", profileHandler.Get)
	authed.PUT("/me", profileHandler.Update)

	dashboardHandler := handlers.NewDashboardHandler(deps.DB)
	authed.GET("/dashboard", requireModule(permissions.ModuleDashboard), dashboardHandler.Summary)

	clientHandler := handlers.NewClientHandler(deps.DB)
	clientRoutes := authed.Group("", requireModule(permissions.ModuleClients))
	clientRoutes.POST("/clients", clientHandler.Create)
	clientRoutes.GET("/clients", clientHandler.List)
	clientRoutes.GET("/clients/:id", clientHandler.Get)
	clientRoutes.PUT("/clients/:id", clientHandler.Update)
	clientRoutes.DELETE("/clients/:id", clientHandler.Delete)

	invoiceHandler := handlers.NewInvoiceHandler(deps.DB)
	invoiceRoutes := authed.Group("", requireModule(permissions.ModulePayments))
	invoiceRoutes.POST("/invoices", invoiceHandler.Create)
	invoiceRoutes.GET("/invoices", invoiceHandler.List)
	invoiceRoutes.GET("/invoices/:id", invoiceHandler.Get)
	invoiceRoutes.PUT("/invoices/:id/status", invoiceHandler.UpdateStatus)
	invoiceRoutes.DELETE("/invoices/:id", invoiceHandler.Delete)

	quoteHandler := handlers.NewQuoteHandler(deps.DB)
	quoteRoutes := authed.Group("", requireModule(permissions.ModuleQuotes))
	quoteRoutes.POST("/quotes", quoteHandler.Create)
	quoteRoutes.GET("/quotes", quoteHandler.List)
	quoteRoutes.GET("/quotes/:id", quoteHandler.Get)
	quoteRoutes.DELETE("/quotes/:id", quoteHandler.Delete)

	taskHandler := handlers.NewTaskHandler(deps.DB)
	calendarHandler := handlers.NewCalendarHandler(deps.DB)
	calendarRoutes := authed.Group("", requireModule(permissions.ModuleCalendar))
	calendarRoutes.POST("/tasks", taskHandler.Create)
	calendarRoutes.GET("/tasks", taskHandler.List)
	calendarRoutes.PUT("/tasks/:id", taskHandler.Update)
	calendarRoutes.DELETE("/tasks/:id", taskHandler.Delete)
	calendarRoutes.GET("/calendar", calendarHandler.Month)

	productHandler := handlers.NewProductHandler(deps.DB)
	productRoutes := authed.Group("", requireModule(permissions.ModuleProducts))
	productRoutes.GET("/products", productHandler.List)
	productRoutes.PUT("/products/:id", productHandler.Update)

	userHandler := handlers.NewUserHandler(deps.DB)
	profileRoutes := authed.Group("", requireModule(permissions.ModuleProfiles))
	profileRoutes.GET("/users", userHandler.List)
	profileRoutes.GET("/users/:id", userHandler.Get)
	profileRoutes.PUT("/users/:id", userHandler.Update)
	profileRoutes.DELETE("/users/:id", userHandler.Delete)
	profileRoutes.POST("/users/:id/promote", userHandler.Promote)
	profileRoutes.POST("/users/:id/demote", userHandler.Demote)
	profileRoutes.PUT("/users/:id/permissions", userHandler.UpdatePermissions)
	profileRoutes.GET("/permissions", userHandler.ListPermissions)

	settingHandler := handlers.NewSettingHandler(deps.Settings)
	settingRoutes := authed.Group("", requireAdmin())
	settingRoutes.GET("/settings", settingHandler.List)
	settingRoutes.GET("/settings/:key", settingHandler.Get)
	settingRoutes.PUT("/settings/:key", settingHandler.Update)
}

// officeAuthMiddleware validates session JWTs and loads the caller's access
// session into the context.
func officeAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseUserToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		handlers.SetSession(c, access.Session{
			UserID:      user.ID,
			Role:        user.Role,
			Permissions: permissions.Parse(user.Permissions),
		})
		c.Next()
	}
}

// requireModule rejects callers whose session lacks access to the module.
func requireModule(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := handlers.SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}
		if !access.HasPermission(sess, module) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// requireAdmin rejects callers without the admin role or bootstrap override.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := handlers.SessionFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
			return
		}
		if sess.UserID != 1 && sess.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
