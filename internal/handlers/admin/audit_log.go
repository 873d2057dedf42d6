package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/response"
)

// HandleAuditLog returns the newest audit entries, optionally for one module.
func (h *Handler) HandleAuditLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.Audit.Recent(c.Request.Context(), c.Query("module"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries)
}

// HandleAuditCleanup deletes audit entries older than the configured retention.
func (h *Handler) HandleAuditCleanup(c *gin.Context) {
	if h.AuditRetentionDays <= 0 {
		response.Err(c, http.StatusConflict, "retention_disabled", "Audit retention is disabled", nil)
		return
	}
	n, err := h.Audit.Cleanup(c.Request.Context(), h.AuditRetentionDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	if n > 0 {
		h.audit(c, audit.ActionDelete, "", fmt.Sprintf("Removed %d audit entries older than %d days", n, h.AuditRetentionDays))
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": n, "retention_days": h.AuditRetentionDays})
}
