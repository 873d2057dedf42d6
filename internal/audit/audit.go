// Package audit records who changed or exported what.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockmaster/internal/models"
	"stockmaster/internal/notify"
)

// Action constants.
const (
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionDelete      = "DELETE"
	ActionBulkDelete  = "BULK_DELETE"
	ActionRestore     = "RESTORE"
	ActionForceDelete = "FORCE_DELETE"
	ActionExport      = "EXPORT"
	ActionImport      = "IMPORT"
	ActionNotify      = "NOTIFY"
	ActionLogin       = "LOGIN"
)

// Logger writes audit_log rows and announces them on the websocket hub.
type Logger struct {
	db  *sql.DB
	hub *notify.Hub
	log zerolog.Logger
}

// New returns a Logger. hub may be nil.
func New(db *sql.DB, hub *notify.Hub, log zerolog.Logger) *Logger {
	return &Logger{db: db, hub: hub, log: log.With().Str("component", "audit").Logger()}
}

// Log records one entry. Failures are logged and never returned.
func (l *Logger) Log(ctx context.Context, username, action, module, recordID, summary string) {
	if username == "" {
		username = "system"
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?, ?, ?, ?, ?)",
		username, action, module, recordID, summary)
	if err != nil {
		l.log.Error().Err(err).Str("action", action).Str("module", module).Msg("audit log write failed")
	}
	if l.hub != nil {
		l.hub.Broadcast(notify.Event{
			Type:   module + "_" + strings.ToLower(action),
			ID:     recordID,
			Action: action,
		})
	}
}

// LogExport records a data export.
func (l *Logger) LogExport(ctx context.Context, username, module, format string, count int) {
	l.Log(ctx, username, ActionExport, module, "", fmt.Sprintf("Exported %d records from %s as %s", count, module, format))
}

// Recent returns the newest entries for module, or for every module when module is empty.
func (l *Logger) Recent(ctx context.Context, module string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := "SELECT id, username, action, module, record_id, COALESCE(summary,''), created_at FROM audit_log"
	var args []any
	if module != "" {
		query += " WHERE module = ?"
		args = append(args, module)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Cleanup deletes entries older than retentionDays.
func (l *Logger) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02 15:04:05")
	result, err := l.db.ExecContext(ctx, "DELETE FROM audit_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
