package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/models"
	"stockmaster/internal/response"
)

// CreateUserRequest represents a user creation request.
type CreateUserRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// HandleListUsers lists all users.
func (h *Handler) HandleListUsers(c *gin.Context) {
	rows, err := h.DB.QueryContext(c.Request.Context(),
		"SELECT id, username, COALESCE(display_name,''), role, active, COALESCE(created_at,'') FROM users ORDER BY username")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			response.Error(c, err)
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSONMeta(c, users, len(users), 1, len(users))
}

// HandleCreateUser creates a user.
func (h *Handler) HandleCreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, "validation_error", "Invalid request body", nil)
		return
	}
	var exists int
	if err := h.DB.QueryRowContext(c.Request.Context(), "SELECT COUNT(*) FROM users WHERE username = ?", req.Username).Scan(&exists); err != nil {
		response.Error(c, err)
		return
	}
	if exists > 0 {
		response.Err(c, http.StatusConflict, "conflict", "Username already exists", nil)
		return
	}
	u, err := auth.CreateUser(c.Request.Context(), h.DB, auth.NewUser{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Password:    req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, audit.ActionCreate, strconv.FormatInt(u.ID, 10), "Created user "+u.Username+" ("+u.Role+")")
	response.JSON(c, http.StatusCreated, u)
}
