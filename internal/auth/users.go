package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stockmaster/internal/models"
	"stockmaster/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// Authenticate verifies username and password, maintaining the lockout counters.
func Authenticate(ctx context.Context, db *sql.DB, username, password string) (models.User, error) {
	var u models.User
	var hash string
	err := db.QueryRowContext(ctx,
		"SELECT id, username, COALESCE(display_name,''), role, active, password_hash, COALESCE(created_at,'') FROM users WHERE username = ?",
		username).Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &u.Active, &hash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	locked, err := IsAccountLocked(ctx, db, username)
	if err != nil {
		return models.User{}, fmt.Errorf("check lockout: %w", err)
	}
	if locked {
		return models.User{}, ErrAccountLocked
	}
	if !u.Active {
		return models.User{}, ErrAccountDisabled
	}
	if !CheckPassword(hash, password) {
		if err := IncrementFailedLoginAttempts(ctx, db, username); err != nil {
			return models.User{}, fmt.Errorf("record failed login: %w", err)
		}
		return models.User{}, ErrInvalidCredentials
	}
	if err := ResetFailedLoginAttempts(ctx, db, username); err != nil {
		return models.User{}, fmt.Errorf("reset failed logins: %w", err)
	}
	return u, nil
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Username    string
	DisplayName string
	Role        string
	Password    string
}

// CreateUser validates and inserts a user with a bcrypt password hash.
func CreateUser(ctx context.Context, db *sql.DB, nu NewUser) (models.User, error) {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "username", nu.Username)
	validation.RequireField(ve, "role", nu.Role)
	validation.ValidateMaxLength(ve, "username", nu.Username, validation.MaxStringLength)
	validation.ValidateEnum(ve, "role", nu.Role, validation.ValidRoles)
	if err := ValidatePasswordStrength(nu.Password); err != nil {
		ve.Add("password", err.Error())
	}
	if err := ve.Err(); err != nil {
		return models.User{}, err
	}

	hash, err := HashPassword(nu.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, display_name, role, active) VALUES (?, ?, ?, ?, 1)",
		nu.Username, hash, nu.DisplayName, nu.Role)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return models.User{ID: id, Username: nu.Username, DisplayName: nu.DisplayName, Role: nu.Role, Active: true}, nil
}
