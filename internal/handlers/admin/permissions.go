package admin

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/listview"
	"stockmaster/internal/response"
	"stockmaster/internal/server"
	"stockmaster/internal/validation"
)

// HandleListPermissions lists all permissions for all roles (or ?role=X).
func (h *Handler) HandleListPermissions(c *gin.Context) {
	roleFilter := c.Query("role")

	rows, err := h.DB.QueryContext(c.Request.Context(), "SELECT id, role, module, action FROM role_permissions ORDER BY role, module, action")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rows.Close()

	perms := []auth.PermissionEntry{}
	for rows.Next() {
		var p auth.PermissionEntry
		if err := rows.Scan(&p.ID, &p.Role, &p.Module, &p.Action); err != nil {
			response.Error(c, err)
			return
		}
		if roleFilter == "" || p.Role == roleFilter {
			perms = append(perms, p)
		}
	}
	if err := rows.Err(); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perms)
}

// ModuleInfo lists the actions that can be granted on a module.
type ModuleInfo struct {
	Module  string            `json:"module"`
	Actions []listview.Action `json:"actions"`
}

// HandleListModules lists all available modules and actions.
func (h *Handler) HandleListModules(c *gin.Context) {
	modules := make([]ModuleInfo, 0, len(auth.AllModules))
	for _, mod := range auth.AllModules {
		modules = append(modules, ModuleInfo{Module: mod, Actions: auth.AllActions})
	}
	response.JSON(c, http.StatusOK, modules)
}

// HandleMyPermissions returns the current user's permissions.
func (h *Handler) HandleMyPermissions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.permissionsFor(server.SubjectFrom(c).Role))
}

func (h *Handler) permissionsFor(role string) []auth.PermissionEntry {
	if h.PermCache == nil {
		return []auth.PermissionEntry{}
	}
	perms := h.PermCache.GetRolePermissions(role)
	if perms == nil {
		return []auth.PermissionEntry{}
	}
	return perms
}

// HandleSetPermissions replaces all permissions for a role.
func (h *Handler) HandleSetPermissions(c *gin.Context) {
	role := c.Param("role")
	var req struct {
		Permissions []struct {
			Module string `json:"module"`
			Action string `json:"action"`
		} `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, http.StatusBadRequest, "validation_error", "Invalid request body", nil)
		return
	}

	ve := &validation.ValidationErrors{}
	validation.ValidateEnum(ve, "role", role, validation.ValidRoles)
	seen := make(map[string]bool)
	var perms []auth.PermissionEntry
	for _, p := range req.Permissions {
		if !slices.Contains(auth.AllModules, p.Module) {
			ve.Add("module", "invalid module: "+p.Module)
			continue
		}
		if !slices.Contains(auth.AllActions, listview.Action(p.Action)) {
			ve.Add("action", "invalid action: "+p.Action)
			continue
		}
		key := p.Module + ":" + p.Action
		if !seen[key] {
			seen[key] = true
			perms = append(perms, auth.PermissionEntry{Role: role, Module: p.Module, Action: p.Action})
		}
	}
	if err := ve.Err(); err != nil {
		response.Error(c, err)
		return
	}
	// The admin role keeps user administration so it can never lock itself out.
	if role == "admin" && !slices.ContainsFunc(perms, func(p auth.PermissionEntry) bool {
		return p.Module == auth.ModuleUsers && p.Action == string(listview.ActionEdit)
	}) {
		response.Err(c, http.StatusBadRequest, "validation_error", "admin must keep users:edit", nil)
		return
	}

	if err := auth.SetRolePermissions(c.Request.Context(), h.DB, h.PermCache, role, perms); err != nil {
		response.Error(c, err)
		return
	}
	h.audit(c, audit.ActionUpdate, role, "Updated permissions for "+role)
	response.JSON(c, http.StatusOK, gin.H{"status": "updated", "count": len(perms), "refreshed_at": h.PermCache.Updated()})
}
