package admin_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmaster/internal/audit"
	"stockmaster/internal/auth"
	"stockmaster/internal/config"
	"stockmaster/internal/db"
	"stockmaster/internal/handlers/admin"
	"stockmaster/internal/listview"
	"stockmaster/internal/models"
	"stockmaster/internal/server"
	"stockmaster/internal/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

type env struct {
	t      *testing.T
	app    *server.App
	router http.Handler
	admin  string
	clerk  string
	viewer string
}

func newEnv(t *testing.T, tune func(*config.Config)) *env {
	t.Helper()
	conn, pc := testutil.SetupTestDB(t)
	iss := testutil.Issuer(t)
	cfg := config.Defaults()
	cfg.Database.BackupDir = t.TempDir()
	if tune != nil {
		tune(&cfg)
	}
	app := &server.App{
		DB:        conn,
		Log:       zerolog.Nop(),
		Config:    cfg,
		PermCache: pc,
		Gate:      auth.NewGate(pc),
		Tokens:    iss,
		Audit:     audit.New(conn, nil, zerolog.Nop()),
	}
	return &env{
		t:      t,
		app:    app,
		router: server.NewRouter(app, admin.New(app)),
		admin:  testutil.Token(t, iss, "admin", "admin"),
		clerk:  testutil.Token(t, iss, "clerk", "user"),
		viewer: testutil.Token(t, iss, "viewer", "readonly"),
	}
}

func (e *env) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	return testutil.Serve(e.router, testutil.AuthedJSONRequest(method, path, body, token))
}

func (e *env) login(username, password string) *httptest.ResponseRecorder {
	return e.do("POST", "/auth/login", admin.LoginRequest{Username: username, Password: password}, "")
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	e := newEnv(t, nil)
	w := e.login("admin", db.DefaultPassword)
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp admin.LoginResponse
	testutil.DecodeEnvelope(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.Role)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	w = e.do("GET", "/api/v1/auth/me", nil, resp.Token)
	testutil.AssertStatus(t, w, http.StatusOK)
	var me struct {
		User        models.User            `json:"user"`
		Permissions []auth.PermissionEntry `json:"permissions"`
	}
	testutil.DecodeEnvelope(t, w, &me)
	assert.Equal(t, "admin", me.User.Username)
	assert.Len(t, me.Permissions, len(auth.AllModules)*len(auth.AllActions))

	entries, err := e.app.Audit.Recent(t.Context(), "auth", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionLogin, entries[0].Action)
}

func TestLogin_Rejections(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.Auth.LoginPerMinute, c.Auth.LoginBurst = 6000, 100 })

	testutil.AssertStatus(t, e.login("admin", "wrong"), http.StatusUnauthorized)
	testutil.AssertStatus(t, e.login("ghost", "whatever"), http.StatusUnauthorized)
	testutil.AssertStatus(t, e.login("", ""), http.StatusBadRequest)
	testutil.AssertStatus(t, e.do("POST", "/auth/login", "not an object", ""), http.StatusBadRequest)

	_, err := e.app.DB.Exec("UPDATE users SET active = 0 WHERE username = 'clerk'")
	require.NoError(t, err)
	testutil.AssertStatus(t, e.login("clerk", db.DefaultPassword), http.StatusForbidden)
	testutil.AssertStatus(t, e.do("GET", "/api/v1/auth/me", nil, e.clerk), http.StatusUnauthorized)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.Auth.LoginPerMinute, c.Auth.LoginBurst = 6000, 100 })
	for range auth.MaxFailedLoginAttempts {
		testutil.AssertStatus(t, e.login("viewer", "wrong"), http.StatusUnauthorized)
	}
	w := e.login("viewer", db.DefaultPassword)
	testutil.AssertStatus(t, w, http.StatusForbidden)
	assert.Contains(t, w.Body.String(), "locked")
}

func TestLogin_RateLimited(t *testing.T) {
	e := newEnv(t, func(c *config.Config) { c.Auth.LoginPerMinute, c.Auth.LoginBurst = 1, 3 })
	for range 3 {
		testutil.AssertStatus(t, e.login("admin", "wrong"), http.StatusUnauthorized)
	}
	w := e.login("admin", db.DefaultPassword)
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestUsers(t *testing.T) {
	e := newEnv(t, nil)

	testutil.AssertStatus(t, e.do("GET", "/api/v1/users", nil, e.clerk), http.StatusForbidden)
	testutil.AssertStatus(t, e.do("GET", "/api/v1/users", nil, ""), http.StatusUnauthorized)

	w := e.do("GET", "/api/v1/users", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var users []models.User
	meta := testutil.DecodeEnvelope(t, w, &users)
	assert.Len(t, users, 3)
	assert.Equal(t, 3, meta.Total)

	weak := admin.CreateUserRequest{Username: "dana", Password: "short", Role: "user"}
	w = e.do("POST", "/api/v1/users", weak, e.admin)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "password")

	good := admin.CreateUserRequest{Username: "dana", DisplayName: "Dana", Password: "Str0ng-Passw0rd!", Role: "user"}
	w = e.do("POST", "/api/v1/users", good, e.admin)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.User
	testutil.DecodeEnvelope(t, w, &created)
	assert.Equal(t, "dana", created.Username)

	testutil.AssertStatus(t, e.do("POST", "/api/v1/users", good, e.admin), http.StatusConflict)
	testutil.AssertStatus(t, e.login("dana", good.Password), http.StatusOK)
}

func TestPermissions(t *testing.T) {
	e := newEnv(t, nil)

	w := e.do("GET", "/api/v1/permissions/me", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var mine []auth.PermissionEntry
	testutil.DecodeEnvelope(t, w, &mine)
	assert.Len(t, mine, 6, "readonly holds access, show and export on two modules")

	w = e.do("GET", "/api/v1/permissions/modules", nil, e.viewer)
	testutil.AssertStatus(t, w, http.StatusOK)
	var mods []admin.ModuleInfo
	testutil.DecodeEnvelope(t, w, &mods)
	assert.Len(t, mods, len(auth.AllModules))

	w = e.do("GET", "/api/v1/permissions?role=readonly", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var listed []auth.PermissionEntry
	testutil.DecodeEnvelope(t, w, &listed)
	assert.Len(t, listed, 6)

	type perm struct {
		Module string `json:"module"`
		Action string `json:"action"`
	}
	bad := gin.H{"permissions": []perm{{"warehouses", "access"}}}
	testutil.AssertStatus(t, e.do("PUT", "/api/v1/permissions/readonly", bad, e.admin), http.StatusBadRequest)
	testutil.AssertStatus(t, e.do("PUT", "/api/v1/permissions/admin", gin.H{"permissions": []perm{}}, e.admin), http.StatusBadRequest)
	testutil.AssertStatus(t, e.do("PUT", "/api/v1/permissions/readonly", gin.H{"permissions": []perm{}}, e.clerk), http.StatusForbidden)

	before := time.Now()
	narrow := gin.H{"permissions": []perm{{"products", "access"}, {"products", "access"}}}
	w = e.do("PUT", "/api/v1/permissions/readonly", narrow, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var set struct {
		Count       int       `json:"count"`
		RefreshedAt time.Time `json:"refreshed_at"`
	}
	testutil.DecodeEnvelope(t, w, &set)
	assert.Equal(t, 1, set.Count)
	assert.False(t, set.RefreshedAt.Before(before.Truncate(time.Second)), "cache reloaded by the update")
	gate := auth.NewGate(e.app.PermCache)
	viewer := listview.Subject{Username: "viewer", Role: "readonly"}
	assert.Equal(t, listview.Allow, gate.Check(t.Context(), auth.ModuleProducts, listview.ActionAccess, viewer))
	assert.Equal(t, listview.Deny, gate.Check(t.Context(), auth.ModuleCustomers, listview.ActionAccess, viewer))
}

func TestAuditLog(t *testing.T) {
	e := newEnv(t, nil)
	e.app.Audit.Log(t.Context(), "clerk", audit.ActionDelete, "customers", "4", "Deleted customers 4")
	e.app.Audit.Log(t.Context(), "clerk", audit.ActionExport, "products", "", "Exported")

	w := e.do("GET", "/api/v1/audit?module=customers", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var entries []models.AuditEntry
	testutil.DecodeEnvelope(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "4", entries[0].RecordID)

	testutil.AssertStatus(t, e.do("GET", "/api/v1/audit", nil, e.viewer), http.StatusForbidden)
}

func TestAuditCleanup(t *testing.T) {
	e := newEnv(t, func(cfg *config.Config) { cfg.Database.AuditRetentionDays = 30 })
	_, err := e.app.DB.Exec(
		"INSERT INTO audit_log (username, action, module, record_id, summary, created_at) VALUES ('clerk', 'DELETE', 'customers', '1', 'old', ?)",
		time.Now().UTC().AddDate(0, 0, -90).Format("2006-01-02 15:04:05"))
	require.NoError(t, err)
	e.app.Audit.Log(t.Context(), "clerk", audit.ActionDelete, "customers", "2", "recent")

	testutil.AssertStatus(t, e.do("POST", "/api/v1/audit/cleanup", nil, e.clerk), http.StatusForbidden)

	w := e.do("POST", "/api/v1/audit/cleanup", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var res struct {
		Deleted int64 `json:"deleted"`
	}
	testutil.DecodeEnvelope(t, w, &res)
	assert.Equal(t, int64(1), res.Deleted)

	entries, err := e.app.Audit.Recent(t.Context(), "customers", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].RecordID)

	off := newEnv(t, func(cfg *config.Config) { cfg.Database.AuditRetentionDays = 0 })
	testutil.AssertStatus(t, off.do("POST", "/api/v1/audit/cleanup", nil, off.admin), http.StatusConflict)
}

func TestBackups(t *testing.T) {
	e := newEnv(t, nil)

	testutil.AssertStatus(t, e.do("POST", "/api/v1/backups", nil, e.clerk), http.StatusForbidden)

	w := e.do("POST", "/api/v1/backups", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var info db.BackupInfo
	testutil.DecodeEnvelope(t, w, &info)
	require.NotEmpty(t, info.Filename)

	w = e.do("GET", "/api/v1/backups", nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	var list []db.BackupInfo
	testutil.DecodeEnvelope(t, w, &list)
	require.Len(t, list, 1)

	w = e.do("GET", "/api/v1/backups/"+info.Filename, nil, e.admin)
	testutil.AssertStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Disposition"), info.Filename)
	assert.Equal(t, int(info.Size), w.Body.Len())

	testutil.AssertStatus(t, e.do("GET", "/api/v1/backups/notes.txt", nil, e.admin), http.StatusBadRequest)
	testutil.AssertStatus(t, e.do("GET", "/api/v1/backups/missing.sqlite", nil, e.admin), http.StatusNotFound)
}
