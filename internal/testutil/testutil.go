// Package testutil holds fixtures shared by handler and integration tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockmaster/internal/auth"
	"stockmaster/internal/db"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
)

// Secret signs tokens in tests.
var Secret = strings.Repeat("t", 32)

// SetupTestDB opens a migrated, seeded in-memory database with the default
// role permissions loaded into the returned cache.
func SetupTestDB(t *testing.T) (*sql.DB, *auth.PermCache) {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Seed(ctx, conn); err != nil {
		t.Fatalf("Failed to seed test DB: %v", err)
	}
	pc := auth.NewPermCache()
	if err := auth.InitPermissionsTable(ctx, conn, pc); err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}
	return conn, pc
}

// CreateTestUser creates a test user with the given credentials.
func CreateTestUser(t *testing.T, conn *sql.DB, username, password, role string, active bool) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	activeInt := 0
	if active {
		activeInt = 1
	}
	res, err := conn.Exec(
		"INSERT INTO users (username, password_hash, display_name, role, active) VALUES (?, ?, ?, ?, ?)",
		username, string(hash), username+" Display", role, activeInt,
	)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// Issuer returns a token issuer signed with Secret.
func Issuer(t *testing.T) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer(Secret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to build issuer: %v", err)
	}
	return iss
}

// Token issues a bearer token for username with role.
func Token(t *testing.T, iss *auth.Issuer, username, role string) string {
	t.Helper()
	tok, _, err := iss.Issue(listview.Subject{Username: username, Role: role})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok
}

// SeedCustomers inserts n customers named "Customer 01".. and returns their ids.
func SeedCustomers(t *testing.T, conn *sql.DB, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		res, err := conn.Exec(
			"INSERT INTO customers (name, email, phone, city, country) VALUES (?, ?, ?, ?, ?)",
			fmt.Sprintf("Customer %02d", i), fmt.Sprintf("c%02d@example.com", i), fmt.Sprintf("555-%04d", i),
			[]string{"Casablanca", "Rabat", "Paris"}[i%3], []string{"MA", "MA", "FR"}[i%3],
		)
		if err != nil {
			t.Fatalf("Failed to seed customer: %v", err)
		}
		id, _ := res.LastInsertId()
		ids = append(ids, id)
	}
	return ids
}

// SeedProducts inserts n products into the first seeded category and returns their ids.
func SeedProducts(t *testing.T, conn *sql.DB, n int) []int64 {
	t.Helper()
	var catID int64
	if err := conn.QueryRow("SELECT id FROM categories ORDER BY id LIMIT 1").Scan(&catID); err != nil {
		t.Fatalf("Failed to find category: %v", err)
	}
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		res, err := conn.Exec(
			"INSERT INTO products (category_id, name, code, quantity, cost, price) VALUES (?, ?, ?, ?, ?, ?)",
			catID, fmt.Sprintf("Widget %02d", i), fmt.Sprintf("W-%03d", i), i*3, float64(i), float64(i)*1.5,
		)
		if err != nil {
			t.Fatalf("Failed to seed product: %v", err)
		}
		id, _ := res.LastInsertId()
		ids = append(ids, id)
	}
	return ids
}

// AuthedRequest creates a request carrying a bearer token.
func AuthedRequest(method, path string, body []byte, token string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// AuthedJSONRequest creates an authenticated request with a JSON body.
func AuthedJSONRequest(method, path string, body any, token string) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := AuthedRequest(method, path, bodyBytes, token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Serve runs req through h and returns the recorder.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// AssertStatus checks that the HTTP status code matches expected.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Fatalf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeEnvelope decodes the data field of an APIResponse into v and returns the meta.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v any) *models.Meta {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta *models.Meta    `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode API response: %v (%s)", err, w.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(env.Data, v); err != nil {
			t.Fatalf("Failed to decode data: %v (%s)", err, string(env.Data))
		}
	}
	return env.Meta
}
