package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/listview"
	"stockmaster/internal/response"
	"stockmaster/internal/server"
)

type viewBody[T any] struct {
	View     string                `json:"view"`
	Resource string                `json:"resource"`
	State    listview.State[int64] `json:"state"`
	Items    []T                   `json:"items,omitempty"`
}

func (s *Screen[T]) body(v *server.View[int64]) viewBody[T] {
	return viewBody[T]{View: v.Handle, Resource: s.resource, State: v.Controller.State()}
}

// withView runs fn against the caller's view and reports its error, if any.
func (s *Screen[T]) withView(c *gin.Context, fn func(v *server.View[int64]) error) bool {
	err := s.deps.Views.With(c.Param("view"), s.resource, server.SubjectFrom(c).Username, fn)
	if err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

// mutate applies fn and answers with the resulting state.
func (s *Screen[T]) mutate(c *gin.Context, fn func(v *server.View[int64]) error) {
	var body viewBody[T]
	ok := s.withView(c, func(v *server.View[int64]) error {
		if err := fn(v); err != nil {
			return err
		}
		body = s.body(v)
		return nil
	})
	if ok {
		response.JSON(c, http.StatusOK, body)
	}
}

func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return listview.Invalid("decode body", err)
	}
	return nil
}

func (s *Screen[T]) openView(c *gin.Context) {
	if err := s.authorize(c, listview.ActionAccess); err != nil {
		response.Error(c, err)
		return
	}
	ctrl, err := listview.New[int64](s.opts)
	if err != nil {
		response.Error(c, fmt.Errorf("%s view options: %w", s.resource, err))
		return
	}
	v := s.deps.Views.Open(s.resource, server.SubjectFrom(c).Username, ctrl)
	c.Header("Location", c.Request.URL.Path+"/"+v.Handle)
	response.JSON(c, http.StatusCreated, s.body(v))
}

func (s *Screen[T]) renderView(c *gin.Context) {
	var body viewBody[T]
	var page listview.Page[T]
	ok := s.withView(c, func(v *server.View[int64]) error {
		var err error
		page, err = s.actions.Render(c.Request.Context(), v.Controller, server.SubjectFrom(c))
		if err != nil {
			return err
		}
		v.SetPageIDs(s.actions.IDs(page))
		body = s.body(v)
		body.Items = page.Items
		return nil
	})
	if ok {
		response.JSONMeta(c, body, page.TotalItems, page.Page, page.PageSize)
	}
}

func (s *Screen[T]) closeView(c *gin.Context) {
	if err := s.deps.Views.Close(c.Param("view"), s.resource, server.SubjectFrom(c).Username); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Screen[T]) setSearch(c *gin.Context) {
	var req struct {
		Search string `json:"search"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	s.mutate(c, func(v *server.View[int64]) error {
		v.Controller.SetSearch(req.Search)
		return nil
	})
}

func (s *Screen[T]) setSort(c *gin.Context) {
	var req struct {
		Column string `json:"column"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	s.mutate(c, func(v *server.View[int64]) error {
		v.Controller.SetSort(req.Column)
		return nil
	})
}

func (s *Screen[T]) setPageSize(c *gin.Context) {
	var req struct {
		PageSize int `json:"page_size"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	s.mutate(c, func(v *server.View[int64]) error {
		return v.Controller.SetPageSize(req.PageSize)
	})
}

func (s *Screen[T]) goToPage(c *gin.Context) {
	var req struct {
		Page *int `json:"page"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.Page == nil {
		response.Error(c, listview.Invalid("go to page", errors.New("page is required")))
		return
	}
	s.mutate(c, func(v *server.View[int64]) error {
		v.Controller.GoToPage(*req.Page)
		return nil
	})
}

func (s *Screen[T]) setFilter(c *gin.Context) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	s.mutate(c, func(v *server.View[int64]) error {
		return v.Controller.SetFilter(strings.TrimSpace(req.Key), req.Value)
	})
}

func (s *Screen[T]) toggleRow(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	s.mutate(c, func(v *server.View[int64]) error {
		if !v.Controller.IsSelected(id) && !v.Shown(id) {
			return listview.Invalid("toggle row", fmt.Errorf("%s %d is not on the current page", s.resource, id))
		}
		v.Controller.ToggleRowSelected(id)
		return nil
	})
}

// togglePage is a no-op until the current search and filters have been rendered.
func (s *Screen[T]) togglePage(c *gin.Context) {
	s.mutate(c, func(v *server.View[int64]) error {
		v.Controller.ToggleSelectAllOnPage(v.PageIDs())
		return nil
	})
}

func (s *Screen[T]) toggleAll(c *gin.Context) {
	s.mutate(c, func(v *server.View[int64]) error {
		ids, err := s.actions.ToggleSelectAllMatching(c.Request.Context(), v.Controller, server.SubjectFrom(c))
		if err != nil {
			return err
		}
		v.SetMatchingIDs(ids)
		return nil
	})
}

func (s *Screen[T]) clearSelection(c *gin.Context) {
	s.mutate(c, func(v *server.View[int64]) error {
		v.Controller.ClearSelection()
		return nil
	})
}

type bulkBody struct {
	listview.BulkResult[int64]
	Warning string                `json:"warning,omitempty"`
	State   listview.State[int64] `json:"state"`
}

func (s *Screen[T]) deleteSelected(c *gin.Context) {
	var body bulkBody
	ok := s.withView(c, func(v *server.View[int64]) error {
		res, err := s.actions.DeleteSelected(c.Request.Context(), v.Controller, server.SubjectFrom(c))
		if err != nil {
			return err
		}
		body = bulkBody{BulkResult: res, State: v.Controller.State()}
		if w := res.Warning(); w != nil {
			body.Warning = w.Error()
		}
		return nil
	})
	if !ok {
		return
	}
	if body.Affected > 0 {
		s.audit(c, audit.ActionBulkDelete, "", fmt.Sprintf("Deleted %d of %d selected %s", body.Affected, body.Requested, s.resource))
	}
	response.JSON(c, http.StatusOK, body)
}

func (s *Screen[T]) exportView(c *gin.Context) {
	format := listview.Format(strings.ToLower(c.DefaultQuery("format", string(listview.FormatXLSX))))
	scope := c.DefaultQuery("scope", "all")
	if scope != "all" && scope != "selected" {
		response.Error(c, listview.Invalid("export", fmt.Errorf("unknown scope %q", scope)))
		return
	}

	var art listview.Artifact
	var res listview.ExportResult
	ok := s.withView(c, func(v *server.View[int64]) error {
		var err error
		if scope == "selected" {
			art, res, err = s.actions.ExportSelected(c.Request.Context(), v.Controller, server.SubjectFrom(c), format)
		} else {
			art, res, err = s.actions.ExportAll(c.Request.Context(), v.Controller, server.SubjectFrom(c), format)
		}
		return err
	})
	if !ok {
		return
	}
	s.exported(c, format, res.Exported)
	c.Header("X-Exported-Count", fmt.Sprint(res.Exported))
	if res.Stale > 0 {
		c.Header("X-Stale-Count", fmt.Sprint(res.Stale))
	}
	sendArtifact(c, art)
}

func (s *Screen[T]) exported(c *gin.Context, format listview.Format, n int) {
	if s.deps.Audit != nil {
		s.deps.Audit.LogExport(c.Request.Context(), server.SubjectFrom(c).Username, s.resource, string(format), n)
	}
	s.notify(c, listview.Notification{
		Title:   "Exported",
		Message: fmt.Sprintf("%d %s record(s) exported as %s", n, s.resource, format),
		Kind:    "success",
	})
}

func sendArtifact(c *gin.Context, art listview.Artifact) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	c.Data(http.StatusOK, art.ContentType, art.Data)
}
