package admin

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"stockmaster/internal/audit"
	"stockmaster/internal/db"
	"stockmaster/internal/response"
)

// HandleCreateBackup writes a copy of the database to the backup directory.
func (h *Handler) HandleCreateBackup(c *gin.Context) {
	info, err := db.Backup(c.Request.Context(), h.DB, h.BackupDir)
	if err != nil {
		response.Error(c, fmt.Errorf("backup failed: %w", err))
		return
	}
	h.audit(c, audit.ActionCreate, info.Filename, "Created backup "+info.Filename)
	response.JSON(c, http.StatusCreated, info)
}

// HandleListBackups lists all backups.
func (h *Handler) HandleListBackups(c *gin.Context) {
	backups, err := db.ListBackups(h.BackupDir)
	if err != nil {
		response.Error(c, fmt.Errorf("list backups: %w", err))
		return
	}
	response.JSON(c, http.StatusOK, backups)
}

// HandleDownloadBackup downloads a backup file.
func (h *Handler) HandleDownloadBackup(c *gin.Context) {
	name := c.Param("filename")
	path, ok := db.BackupPath(h.BackupDir, name)
	if !ok {
		response.Err(c, http.StatusBadRequest, "validation_error", "Invalid filename", nil)
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		response.Err(c, http.StatusNotFound, "not_found", "Backup not found", nil)
		return
	}
	c.FileAttachment(path, name)
}
