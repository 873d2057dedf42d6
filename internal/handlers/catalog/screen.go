// Package catalog serves the customer and product list screens. Each screen
// binds a listview.Actions to its store, export columns and import layout, and
// exposes the view operations over HTTP.
package catalog

import (
	"database/sql"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stockmaster/internal/audit"
	"stockmaster/internal/export"
	"stockmaster/internal/importer"
	"stockmaster/internal/listview"
	"stockmaster/internal/server"
	"stockmaster/internal/store"
)

// Deps are shared by every screen.
type Deps struct {
	DB       *sql.DB
	Gate     listview.Authorizer
	Notifier listview.Notifier
	Audit    *audit.Logger
	Views    *server.Views[int64]
	Log      zerolog.Logger
	// MaxUpload bounds import files in bytes.
	MaxUpload int64
}

// Config describes one screen.
type Config[T any] struct {
	Resource string
	Title    string
	Table    *store.Table[T]
	Options  listview.Options
	Columns  []export.Column[T]
	Import   importer.Spec[T]
	IDOf     func(T) int64
}

// Screen is one list screen. It implements server.Module.
type Screen[T any] struct {
	resource string
	deps     Deps
	table    *store.Table[T]
	opts     listview.Options
	actions  *listview.Actions[int64, T]
	importer *importer.Importer[T]
	extra    []func(api *gin.RouterGroup)
}

// NewScreen wires cfg to deps. The options are validated when a view is opened.
func NewScreen[T any](deps Deps, cfg Config[T]) *Screen[T] {
	im := importer.New(cfg.Table, cfg.Import, deps.MaxUpload)
	if cfg.Options.CheckFilter == nil {
		cfg.Options.CheckFilter = cfg.Table.CheckFilter
	}
	return &Screen[T]{
		resource: cfg.Resource,
		deps:     deps,
		table:    cfg.Table,
		opts:     cfg.Options,
		importer: im,
		actions: &listview.Actions[int64, T]{
			Resource: cfg.Resource,
			Store:    cfg.Table,
			Auth:     deps.Gate,
			Exporter: &export.Exporter[T]{Title: cfg.Title, Basename: cfg.Resource, Columns: cfg.Columns},
			Importer: im,
			Notifier: deps.Notifier,
			IDOf:     cfg.IDOf,
		},
	}
}

// Resource returns the screen's resource name.
func (s *Screen[T]) Resource() string { return s.resource }

// Actions exposes the bound list actions.
func (s *Screen[T]) Actions() *listview.Actions[int64, T] { return s.actions }

// Mount registers the view and record routes.
func (s *Screen[T]) Mount(_, api *gin.RouterGroup) {
	v := api.Group("/views/" + s.resource)
	v.POST("", s.openView)
	v.GET("/:view", s.renderView)
	v.DELETE("/:view", s.closeView)
	v.PUT("/:view/search", s.setSearch)
	v.PUT("/:view/sort", s.setSort)
	v.PUT("/:view/page-size", s.setPageSize)
	v.PUT("/:view/page", s.goToPage)
	v.PUT("/:view/filter", s.setFilter)
	v.POST("/:view/selection/toggle/:id", s.toggleRow)
	v.POST("/:view/selection/page", s.togglePage)
	v.POST("/:view/selection/all", s.toggleAll)
	v.DELETE("/:view/selection", s.clearSelection)
	v.POST("/:view/delete-selected", s.deleteSelected)
	v.GET("/:view/export", s.exportView)

	r := api.Group("/" + s.resource)
	r.POST("/import", s.importFile)
	r.GET("/import/sample", s.sample)
	r.GET("/:id", s.show)
	r.DELETE("/:id", s.deleteOne)
	if s.table.Spec().SoftDelete != "" {
		r.POST("/:id/restore", s.restore)
		r.DELETE("/:id/force", s.forceDelete)
	}
	for _, mount := range s.extra {
		mount(r)
	}
}

func (s *Screen[T]) authorize(c *gin.Context, action listview.Action) error {
	subject := server.SubjectFrom(c)
	if s.deps.Gate == nil || s.deps.Gate.Check(c.Request.Context(), s.resource, action, subject) != listview.Allow {
		return &listview.Error{Kind: listview.ErrAuthorizationDenied, Op: string(action), Resource: s.resource}
	}
	return nil
}

func (s *Screen[T]) audit(c *gin.Context, action, recordID, summary string) {
	if s.deps.Audit == nil {
		return
	}
	s.deps.Audit.Log(c.Request.Context(), server.SubjectFrom(c).Username, action, s.resource, recordID, summary)
}

func (s *Screen[T]) notify(c *gin.Context, n listview.Notification) {
	if s.deps.Notifier == nil {
		return
	}
	n.Resource = s.resource
	s.deps.Notifier.Notify(c.Request.Context(), n)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, listview.Invalid("parse id", errors.New("id must be a positive integer"))
	}
	return id, nil
}
