package db

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is given to seeded accounts.
const DefaultPassword = "changeme"

type seedUser struct {
	username, displayName, role string
}

var seedUsers = []seedUser{
	{"admin", "Administrator", "admin"},
	{"clerk", "Stock Clerk", "user"},
	{"viewer", "Viewer", "readonly"},
}

var seedCategories = [][2]string{
	{"CA_GEN", "General"},
	{"CA_ELC", "Electronics"},
	{"CA_OFF", "Office Supplies"},
}

// Seed inserts the default accounts and categories that are missing.
// Existing rows are left alone.
func Seed(ctx context.Context, db *sql.DB) error {
	for _, u := range seedUsers {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", u.username).Scan(&n); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if n > 0 {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.username, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO users (username, password_hash, display_name, role, active) VALUES (?, ?, ?, ?, 1)",
			u.username, string(hash), u.displayName, u.role); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	var cats int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&cats); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if cats == 0 {
		for _, c := range seedCategories {
			if _, err := db.ExecContext(ctx, "INSERT INTO categories (code, name) VALUES (?, ?)", c[0], c[1]); err != nil {
				return fmt.Errorf("seed category %s: %w", c[0], err)
			}
		}
	}
	return nil
}
