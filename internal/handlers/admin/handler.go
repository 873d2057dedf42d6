// Package admin serves authentication, user and permission management, the
// audit trail and database backups.
package admin

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/listview"
	"stockmaster/internal/response"
	"stockmaster/internal/server"
)

// Handler holds dependencies for admin handlers.
type Handler struct {
	DB        *sql.DB
	Log       zerolog.Logger
	Tokens    *auth.Issuer
	PermCache *auth.PermCache
	Gate      listview.Authorizer
	Audit     *audit.Logger
	// Login throttles POST /auth/login per client IP.
	Login     *server.RateLimiter
	BackupDir string

	// AuditRetentionDays is applied by POST /audit/cleanup; 0 disables it.
	AuditRetentionDays int
}

// New builds the admin module from the shared application dependencies.
func New(app *server.App) *Handler {
	return &Handler{
		DB:        app.DB,
		Log:       app.Log,
		Tokens:    app.Tokens,
		PermCache: app.PermCache,
		Gate:      app.Gate,
		Audit:     app.Audit,
		Login:     server.NewRateLimiter(app.Config.Auth.LoginPerMinute, app.Config.Auth.LoginBurst),
		BackupDir: app.Config.Database.BackupDir,

		AuditRetentionDays: app.Config.Database.AuditRetentionDays,
	}
}

// Mount registers the admin routes.
func (h *Handler) Mount(public, api *gin.RouterGroup) {
	login := []gin.HandlerFunc{h.HandleLogin}
	if h.Login != nil {
		login = append([]gin.HandlerFunc{h.Login.Middleware()}, login...)
	}
	public.POST("/auth/login", login...)

	api.GET("/auth/me", h.HandleMe)

	api.GET("/users", h.require(listview.ActionAccess), h.HandleListUsers)
	api.POST("/users", h.require(listview.ActionCreate), h.HandleCreateUser)

	api.GET("/permissions", h.require(listview.ActionAccess), h.HandleListPermissions)
	api.GET("/permissions/modules", h.HandleListModules)
	api.GET("/permissions/me", h.HandleMyPermissions)
	api.PUT("/permissions/:role", h.require(listview.ActionEdit), h.HandleSetPermissions)

	api.GET("/audit", h.require(listview.ActionAccess), h.HandleAuditLog)
	api.POST("/audit/cleanup", h.require(listview.ActionEdit), h.HandleAuditCleanup)

	api.GET("/backups", h.require(listview.ActionAccess), h.HandleListBackups)
	api.POST("/backups", h.require(listview.ActionCreate), h.HandleCreateBackup)
	api.GET("/backups/:filename", h.require(listview.ActionAccess), h.HandleDownloadBackup)
}

// require guards a route with an action on the users module.
func (h *Handler) require(action listview.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := server.SubjectFrom(c)
		if h.Gate == nil || h.Gate.Check(c.Request.Context(), auth.ModuleUsers, action, subject) != listview.Allow {
			response.Error(c, &listview.Error{Kind: listview.ErrAuthorizationDenied, Op: string(action), Resource: auth.ModuleUsers})
			return
		}
		c.Next()
	}
}

func (h *Handler) audit(c *gin.Context, action, recordID, summary string) {
	if h.Audit != nil {
		h.Audit.Log(c.Request.Context(), server.SubjectFrom(c).Username, action, auth.ModuleUsers, recordID, summary)
	}
}
