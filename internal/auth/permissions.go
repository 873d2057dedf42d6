package auth

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"stockmaster/internal/listview"
)

// Permission modules correspond to the screens of the application.
const (
	ModuleCustomers = "customers"
	ModuleProducts  = "products"
	ModuleUsers     = "users"
)

// AllModules lists every module.
var AllModules = []string{ModuleCustomers, ModuleProducts, ModuleUsers}

// AllActions lists every action.
var AllActions = []listview.Action{
	listview.ActionAccess, listview.ActionShow, listview.ActionCreate, listview.ActionEdit,
	listview.ActionDelete, listview.ActionExport, listview.ActionImport, listview.ActionRestore,
	listview.ActionNotify,
}

// readonlyActions are granted to the readonly role on every module except users.
var readonlyActions = []listview.Action{listview.ActionAccess, listview.ActionShow, listview.ActionExport}

// PermissionEntry represents a single permission assignment.
type PermissionEntry struct {
	ID     int    `json:"id"`
	Role   string `json:"role"`
	Module string `json:"module"`
	Action string `json:"action"`
}

// PermCache caches role→permissions for fast lookups.
type PermCache struct {
	sync.RWMutex
	data    map[string]map[string]map[string]bool // role → module → action → true
	updated time.Time
}

// NewPermCache creates a new empty permission cache.
func NewPermCache() *PermCache {
	return &PermCache{
		data: make(map[string]map[string]map[string]bool),
	}
}

// Refresh loads all role_permissions into the in-memory cache.
func (pc *PermCache) Refresh(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "SELECT role, module, action FROM role_permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	data := make(map[string]map[string]map[string]bool)
	for rows.Next() {
		var role, module, action string
		if err := rows.Scan(&role, &module, &action); err != nil {
			continue
		}
		if data[role] == nil {
			data[role] = make(map[string]map[string]bool)
		}
		if data[role][module] == nil {
			data[role][module] = make(map[string]bool)
		}
		data[role][module][action] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	pc.Lock()
	pc.data = data
	pc.updated = time.Now()
	pc.Unlock()
	return nil
}

// Updated reports when the cache was last refreshed.
func (pc *PermCache) Updated() time.Time {
	pc.RLock()
	defer pc.RUnlock()
	return pc.updated
}

// HasPermission checks whether a role has permission for module+action.
func (pc *PermCache) HasPermission(role, module, action string) bool {
	pc.RLock()
	defer pc.RUnlock()
	if pc.data[role] == nil {
		return false
	}
	if pc.data[role][module] == nil {
		return false
	}
	return pc.data[role][module][action]
}

// GetRolePermissions returns all permissions for a role.
func (pc *PermCache) GetRolePermissions(role string) []PermissionEntry {
	pc.RLock()
	defer pc.RUnlock()
	var perms []PermissionEntry
	if pc.data[role] == nil {
		return perms
	}
	for mod, actions := range pc.data[role] {
		for act := range actions {
			perms = append(perms, PermissionEntry{Role: role, Module: mod, Action: act})
		}
	}
	return perms
}

// InitPermissionsTable creates the role_permissions table, seeds default data
// when it is empty and loads it into pc.
func InitPermissionsTable(ctx context.Context, db *sql.DB, pc *PermCache) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS role_permissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		role TEXT NOT NULL,
		module TEXT NOT NULL,
		action TEXT NOT NULL,
		UNIQUE(role, module, action)
	)`)
	if err != nil {
		return fmt.Errorf("create role_permissions table: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM role_permissions").Scan(&count); err != nil {
		return fmt.Errorf("count permissions: %w", err)
	}
	if count == 0 {
		if err := SeedDefaultPermissions(ctx, db); err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}
	}

	return pc.Refresh(ctx, db)
}

// SeedDefaultPermissions populates the default role permissions.
func SeedDefaultPermissions(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO role_permissions (role, module, action) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	// Admin: everything
	for _, mod := range AllModules {
		for _, act := range AllActions {
			if _, err := stmt.ExecContext(ctx, "admin", mod, string(act)); err != nil {
				return err
			}
		}
	}

	// User: everything except user administration
	for _, mod := range AllModules {
		if mod == ModuleUsers {
			continue
		}
		for _, act := range AllActions {
			if _, err := stmt.ExecContext(ctx, "user", mod, string(act)); err != nil {
				return err
			}
		}
	}

	// Readonly: browse and export the catalog
	for _, mod := range AllModules {
		if mod == ModuleUsers {
			continue
		}
		for _, act := range readonlyActions {
			if _, err := stmt.ExecContext(ctx, "readonly", mod, string(act)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// SetRolePermissions replaces all permissions for a role with the given set.
func SetRolePermissions(ctx context.Context, db *sql.DB, pc *PermCache, role string, perms []PermissionEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM role_permissions WHERE role = ?", role); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO role_permissions (role, module, action) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range perms {
		if _, err := stmt.ExecContext(ctx, role, p.Module, p.Action); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return pc.Refresh(ctx, db)
}

// Gate answers listview authorization checks from a PermCache.
type Gate struct {
	perms *PermCache
}

// NewGate returns a Gate reading from pc.
func NewGate(pc *PermCache) *Gate {
	return &Gate{perms: pc}
}

// Check allows the action when the subject's role holds it for the resource.
func (g *Gate) Check(_ context.Context, resource string, action listview.Action, subject listview.Subject) listview.Decision {
	if subject.Role == "" {
		return listview.Deny
	}
	if g.perms.HasPermission(subject.Role, resource, string(action)) {
		return listview.Allow
	}
	return listview.Deny
}
