package admin

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/response"
	"stockmaster/internal/server"
	"stockmaster/internal/validation"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// HandleLogin authenticates a user and issues a token.
func (h *Handler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, "validation_error", "Invalid request body", nil)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "username", req.Username)
	validation.RequireField(ve, "password", req.Password)
	if err := ve.Err(); err != nil {
		response.Error(c, err)
		return
	}

	user, err := auth.Authenticate(c.Request.Context(), h.DB, req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Err(c, http.StatusUnauthorized, "unauthorized", "Invalid username or password", nil)
		return
	case errors.Is(err, auth.ErrAccountLocked):
		response.Err(c, http.StatusForbidden, "locked", "Account temporarily locked due to too many failed login attempts. Try again later.", nil)
		return
	case errors.Is(err, auth.ErrAccountDisabled):
		response.Err(c, http.StatusForbidden, "disabled", "Account deactivated", nil)
		return
	case err != nil:
		response.Error(c, err)
		return
	}

	token, exp, err := h.Tokens.Issue(listview.Subject{Username: user.Username, Role: user.Role})
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.Audit != nil {
		h.Audit.Log(c.Request.Context(), user.Username, audit.ActionLogin, "auth", "", "Signed in")
	}
	h.Log.Info().Str("username", user.Username).Str("ip", c.ClientIP()).Msg("login")
	response.JSON(c, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp, User: user})
}

// HandleMe returns the current user and the actions their role holds.
func (h *Handler) HandleMe(c *gin.Context) {
	subject := server.SubjectFrom(c)
	var u models.User
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT id, username, COALESCE(display_name,''), role, active, COALESCE(created_at,'') FROM users WHERE username = ?",
		subject.Username).Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !u.Active) {
		response.Err(c, http.StatusUnauthorized, "unauthorized", "Unauthorized", nil)
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"user":        u,
		"permissions": h.permissionsFor(u.Role),
	})
}
