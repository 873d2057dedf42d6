package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stockmaster/internal/response"
)

// NewRouter builds the gin engine with the shared middleware, the built-in
// routes and every module.
func NewRouter(app *App, modules ...Module) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(app.Log), Recovery(app.Log), corsMiddleware(app.Config.Server.AllowedOrigins), SecurityHeaders())

	if err := r.SetTrustedProxies(nil); err != nil {
		app.Log.Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		response.Err(c, http.StatusNotFound, "not_found", "route not found", gin.H{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/healthz", func(c *gin.Context) {
		if err := app.DB.PingContext(c.Request.Context()); err != nil {
			_ = c.Error(err)
			response.Err(c, http.StatusServiceUnavailable, "unavailable", "database unavailable", nil)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{"status": "ok", "online": app.Shell.Online})
	})

	authRequired := RequireAuth(app.Tokens)
	if app.Hub != nil {
		r.GET("/ws", authRequired, gin.WrapH(app.Hub))
	}

	public := r.Group("/", Gzip(), LimitBody(app.Limits.MaxRequestBytes), Timeout(app.Limits.RequestTimeout))
	api := r.Group("/api/v1", Gzip(), LimitBody(app.Limits.MaxRequestBytes), Timeout(app.Limits.RequestTimeout), authRequired)
	api.GET("/shell", func(c *gin.Context) {
		response.JSON(c, http.StatusOK, app.Shell)
	})
	for _, m := range modules {
		m.Mount(public, api)
	}
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
