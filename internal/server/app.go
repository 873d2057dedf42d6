// Package server assembles the HTTP surface: shared dependencies, middleware,
// the router and the registry of open list views.
package server

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/config"
	"stockmaster/internal/notify"
	"stockmaster/internal/shell"
)

// App holds shared dependencies for the application.
type App struct {
	DB        *sql.DB
	Log       zerolog.Logger
	Config    config.Config
	PermCache *auth.PermCache
	Gate      *auth.Gate
	Tokens    *auth.Issuer
	Hub       *notify.Hub
	Notifier  *notify.Dispatcher
	Audit     *audit.Logger
	Limits    shell.Limits
	// Shell is the boot result served to the desktop wrapper.
	Shell shell.Status
}

// Module mounts a group of routes. public is unauthenticated; api requires a
// valid token.
type Module interface {
	Mount(public, api *gin.RouterGroup)
}
