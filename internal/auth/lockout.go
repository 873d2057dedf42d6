package auth

import (
	"context"
	"database/sql"
)

// MaxFailedLoginAttempts locks an account for 15 minutes once reached.
const MaxFailedLoginAttempts = 10

// IncrementFailedLoginAttempts increments the failed login counter.
func IncrementFailedLoginAttempts(ctx context.Context, db *sql.DB, username string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= ? THEN datetime('now', '+15 minutes')
		        ELSE locked_until
		    END
		WHERE username = ?`, MaxFailedLoginAttempts, username)
	return err
}

// ResetFailedLoginAttempts resets the failed login counter after successful login.
func ResetFailedLoginAttempts(ctx context.Context, db *sql.DB, username string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, last_login = CURRENT_TIMESTAMP
		WHERE username = ?`, username)
	return err
}

// IsAccountLocked checks if an account is currently locked.
func IsAccountLocked(ctx context.Context, db *sql.DB, username string) (bool, error) {
	var locked bool
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(locked_until > datetime('now'), 0) FROM users WHERE username = ?", username).Scan(&locked)
	if err != nil {
		return false, err
	}
	return locked, nil
}
