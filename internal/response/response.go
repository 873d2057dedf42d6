// Package response writes the JSON envelopes shared by every handler.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/validation"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID returns the id assigned to the request, if any.
func RequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(RequestIDKey)
}

// JSON writes a successful API response with the given data.
func JSON(c *gin.Context, status int, data any) {
	c.JSON(status, models.APIResponse{Data: data})
}

// JSONMeta writes a successful API response with pagination metadata.
func JSONMeta(c *gin.Context, data any, total, page, limit int) {
	meta := &models.Meta{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		meta.TotalPages = max(1, (total+limit-1)/limit)
	}
	c.JSON(http.StatusOK, models.APIResponse{Data: data, Meta: meta})
}

// Err writes an error response and stops the handler chain.
func Err(c *gin.Context, status int, code, msg string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, ErrorBody{
		Error:     msg,
		Code:      code,
		Details:   details,
		RequestID: RequestID(c),
	})
}

// Status maps an error to its HTTP status and machine-readable code.
func Status(err error) (int, string) {
	var ve *validation.ValidationErrors
	switch {
	case errors.Is(err, listview.ErrAuthorizationDenied):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, listview.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, listview.ErrValidationFailed), errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, listview.ErrStaleSelection):
		return http.StatusConflict, "stale_selection"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Error writes err using Status. Internal failures are attached to the gin
// context for the access log and hidden from the client.
func Error(c *gin.Context, err error) {
	status, code := Status(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		Err(c, status, code, "internal error", nil)
		return
	}
	Err(c, status, code, err.Error(), details(err))
}

func details(err error) any {
	var ve *validation.ValidationErrors
	if errors.As(err, &ve) {
		return ve.Errors
	}
	var le *listview.Error
	if errors.As(err, &le) && le.Details != nil {
		if d, ok := le.Details.(error); ok {
			return d.Error()
		}
		return le.Details
	}
	return nil
}
