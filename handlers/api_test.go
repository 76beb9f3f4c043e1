package handlers_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hrportal/auth"
	"hrportal/blob"
	"hrportal/config"
	"hrportal/database"
	"hrportal/directory"
	"hrportal/handlers"
	"hrportal/leave"
	"hrportal/middleware"
	"hrportal/models"
	"hrportal/realtime"
	"hrportal/session"
	"hrportal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t        *testing.T
	router   http.Handler
	accounts *auth.Accounts
}

func newAPI(t *testing.T) *api {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open("sqlite", filepath.Join(dir, "hr.db"), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.SeedAdmin(context.Background(), db, "admin@example.com", "admin123"))

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)
	client := store.NewClient(store.NewGormStore(db, hub))
	accounts := auth.NewAccounts(db, auth.NewTokenIssuer("test-secret", time.Hour))
	blobs, err := blob.NewDisk(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	cfg := &config.Config{JWTExpiration: time.Hour, Environment: "test"}
	linker := session.NewLinker(client)
	h := handlers.New(cfg, accounts, linker,
		directory.NewService(client, blobs, accounts), leave.NewService(client), hub)

	return &api{
		t:        t,
		router:   h.Routes(middleware.Authenticate(accounts, linker)),
		accounts: accounts,
	}
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *api) login(email, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token    string          `json:"token"`
		Identity models.Identity `json:"identity"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func newHire(email string) map[string]interface{} {
	return map[string]interface{}{
		"full_name":  "Ann Lee",
		"email":      email,
		"department": "Engineering",
		"position":   "Engineer",
		"start_date": "2024-03-01",
		"salary":     1000,
		"password":   "welcome1",
	}
}

func TestLoginAndProtectedRoutes(t *testing.T) {
	a := newAPI(t)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/employees", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/employees", "forged", nil).Code)

	rec := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := a.login("admin@example.com", "admin123")
	me := decode[models.Identity](t, a.do(http.MethodGet, "/api/me", token, nil))
	assert.Equal(t, models.RoleAdmin, me.Role)

	rec = a.do(http.MethodPost, "/api/login", "", `{"email":"a","password":"b","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnprovisionedLoginIsRejected(t *testing.T) {
	a := newAPI(t)
	_, err := a.accounts.Register(context.Background(), "ghost@example.com", "ghost-pass")
	require.NoError(t, err)

	rec := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ghost@example.com", "password": "ghost-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s, err := a.accounts.Authenticate(context.Background(), "ghost@example.com", "ghost-pass")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/me", s.AccessToken, nil).Code)
}

func TestEmployeeAndLeaveFlow(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("admin@example.com", "admin123")

	rec := a.do(http.MethodPost, "/api/employees", adminToken, newHire("ann@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ann := decode[models.Employee](t, rec)

	annToken := a.login("ann@example.com", "welcome1")

	// employees see only their own row and cannot use admin routes
	rows := decode[[]models.Employee](t, a.do(http.MethodGet, "/api/employees", annToken, nil))
	require.Len(t, rows, 1)
	assert.Equal(t, ann.ID, rows[0].ID)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/employees", annToken, newHire("x@example.com")).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/metrics", annToken, nil).Code)

	rec = a.do(http.MethodPatch, "/api/employees/"+ann.ID, annToken, map[string]string{"phone": "555-0100"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPatch, "/api/employees/"+ann.ID, annToken, map[string]float64{"salary": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	leaveBody := map[string]string{"leave_type": "vacation", "start_date": "2024-07-01", "end_date": "2024-07-03", "reason": "trip"}
	rec = a.do(http.MethodPost, "/api/leave-requests", annToken, leaveBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[models.LeaveRequest](t, rec)
	assert.Equal(t, models.LeavePending, req.Status)

	bad := map[string]string{"leave_type": "vacation", "start_date": "2024-07-03", "end_date": "2024-07-01"}
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/leave-requests", annToken, bad).Code)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/leave-requests/"+req.ID+"/approve", annToken, nil).Code)

	rec = a.do(http.MethodPost, "/api/leave-requests/"+req.ID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decode[models.LeaveRequest](t, rec)
	assert.Equal(t, models.LeaveApproved, approved.Status)

	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/leave-requests/"+req.ID+"/reject", adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/leave-requests/missing/approve", adminToken, nil).Code)

	mine := decode[[]models.LeaveRequest](t, a.do(http.MethodGet, "/api/leave-requests", annToken, nil))
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].ApprovedBy)

	days := decode[[]struct {
		Date string `json:"date"`
	}](t, a.do(http.MethodGet, "/api/leave-requests/calendar", annToken, nil))
	assert.Len(t, days, 3)

	rec = a.do(http.MethodGet, "/api/leave-requests/export?format=csv&month=7&year=2024", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "leave_requests_2024_07.csv")
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ann Lee", records[1][0])
	assert.Equal(t, "Administrator", records[1][6])

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/leave-requests/export?month=13&year=2024", adminToken, nil).Code)
}

func TestIDsAreNotWildcards(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("admin@example.com", "admin123")

	rec := a.do(http.MethodPost, "/api/employees", adminToken, newHire("ann@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	annToken := a.login("ann@example.com", "welcome1")
	leaveBody := map[string]string{"leave_type": "vacation", "start_date": "2024-07-01", "end_date": "2024-07-03"}
	rec = a.do(http.MethodPost, "/api/leave-requests", annToken, leaveBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[models.LeaveRequest](t, rec)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/leave-requests/"+req.ID+"/approve", adminToken, nil).Code)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/employees/all", adminToken, nil).Code)
	rec = a.do(http.MethodGet, "/api/employees/all/documents", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.EmployeeDocument](t, rec))
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/leave-requests/all/reject", adminToken, nil).Code)
}

func TestDepartmentsAndDashboard(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("admin@example.com", "admin123")

	rec := a.do(http.MethodPost, "/api/departments", adminToken, map[string]string{"name": "Engineering", "description": "Builds the product"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/api/departments", adminToken, map[string]string{"name": "E", "description": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/employees", adminToken, newHire("ann@example.com")).Code)

	deps := decode[[]models.Department](t, a.do(http.MethodGet, "/api/departments", adminToken, nil))
	require.Len(t, deps, 1)
	assert.Equal(t, 1, deps[0].EmployeeCount)

	m := decode[directory.Metrics](t, a.do(http.MethodGet, "/api/metrics", adminToken, nil))
	assert.Equal(t, 2, m.ActiveEmployees)
	assert.Equal(t, 1, m.ActiveDepartments)

	acts := decode[[]directory.Activity](t, a.do(http.MethodGet, "/api/activities?limit=1", adminToken, nil))
	assert.Len(t, acts, 1)
}

func TestLogoutClearsCookie(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodPost, "/api/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.TokenCookie, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

// openStream starts an SSE request and returns the response.
func openStream(ctx context.Context, t *testing.T, srv *httptest.Server, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// snapshots returns a reader for the data of successive snapshot events.
func snapshots(t *testing.T, resp *http.Response) func() string {
	lines := bufio.NewScanner(resp.Body)
	return func() string {
		t.Helper()
		for lines.Scan() {
			if lines.Text() == "event: snapshot" {
				require.True(t, lines.Scan())
				return strings.TrimPrefix(lines.Text(), "data: ")
			}
		}
		t.Fatal("stream ended")
		return ""
	}
}

func TestStreamPushesSnapshots(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("admin@example.com", "admin123")
	srv := httptest.NewServer(a.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := openStream(ctx, t, srv, "/api/stream/departments", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	nextSnapshot := snapshots(t, resp)
	assert.Equal(t, "[]", nextSnapshot())

	rec := a.do(http.MethodPost, "/api/departments", adminToken, map[string]string{"name": "Engineering", "description": "Builds the product"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, nextSnapshot(), `"name":"Engineering"`)

	rec = a.do(http.MethodGet, "/api/stream/payroll", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsStreamIsAdminOnly(t *testing.T) {
	a := newAPI(t)
	adminToken := a.login("admin@example.com", "admin123")
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/employees", adminToken, newHire("ann@example.com")).Code)
	annToken := a.login("ann@example.com", "welcome1")
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/stream/metrics", annToken, nil).Code)

	srv := httptest.NewServer(a.router)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := openStream(ctx, t, srv, "/api/stream/metrics", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	nextSnapshot := snapshots(t, resp)
	assert.Contains(t, nextSnapshot(), `"active_employees":2`)

	rec := a.do(http.MethodPost, "/api/employees", adminToken, newHire("bo@example.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, nextSnapshot(), `"active_employees":3`)

	rec = a.do(http.MethodPost, "/api/departments", adminToken, map[string]string{"name": "Engineering", "description": "Builds the product"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, nextSnapshot(), `"active_departments":1`)
}
