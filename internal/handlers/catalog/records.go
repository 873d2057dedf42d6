package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/listview"
	"stockmaster/internal/response"
	"stockmaster/internal/server"
)

// ImportField is the multipart field carrying the uploaded file.
const ImportField = "import_file"

func (s *Screen[T]) show(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := s.authorize(c, listview.ActionShow); err != nil {
		response.Error(c, err)
		return
	}
	rec, err := s.table.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec)
}

func (s *Screen[T]) deleteOne(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := s.actions.Delete(c.Request.Context(), nil, server.SubjectFrom(c), id); err != nil {
		response.Error(c, err)
		return
	}
	s.audit(c, audit.ActionDelete, strconv.FormatInt(id, 10), fmt.Sprintf("Deleted %s %d", s.resource, id))
	c.Status(http.StatusNoContent)
}

func (s *Screen[T]) restore(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := s.authorize(c, listview.ActionRestore); err != nil {
		response.Error(c, err)
		return
	}
	if err := s.table.Restore(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	s.audit(c, audit.ActionRestore, strconv.FormatInt(id, 10), fmt.Sprintf("Restored %s %d", s.resource, id))
	s.notify(c, listview.Notification{
		Title:   "Restored",
		Message: fmt.Sprintf("%s %d restored successfully", s.resource, id),
		Kind:    "success",
	})
	c.Status(http.StatusNoContent)
}

func (s *Screen[T]) forceDelete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := s.authorize(c, listview.ActionDelete); err != nil {
		response.Error(c, err)
		return
	}
	if err := s.table.ForceDelete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	s.audit(c, audit.ActionForceDelete, strconv.FormatInt(id, 10), fmt.Sprintf("Permanently deleted %s %d", s.resource, id))
	s.notify(c, listview.Notification{
		Title:   "Deleted",
		Message: fmt.Sprintf("%s %d permanently deleted", s.resource, id),
		Kind:    "success",
	})
	c.Status(http.StatusNoContent)
}

func (s *Screen[T]) importFile(c *gin.Context) {
	fh, err := c.FormFile(ImportField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Err(c, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds the size limit", nil)
			return
		}
		response.Error(c, listview.Invalid("import", fmt.Errorf("%s is required", ImportField)))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	rep, err := s.ImportFile(c.Request.Context(), server.SubjectFrom(c), f, fh.Filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, rep)
}

func (s *Screen[T]) sample(c *gin.Context) {
	if err := s.authorize(c, listview.ActionImport); err != nil {
		response.Error(c, err)
		return
	}
	format := listview.Format(strings.ToLower(c.DefaultQuery("format", string(listview.FormatXLSX))))
	art, err := s.Sample(format)
	if err != nil {
		response.Error(c, err)
		return
	}
	sendArtifact(c, art)
}
