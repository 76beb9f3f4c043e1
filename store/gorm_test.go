package store_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hrportal/apperr"
	"hrportal/database"
	"hrportal/models"
	"hrportal/realtime"
	"hrportal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(e realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "hr.db"), false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func newEmployee(name, dept string, salary float64) *models.Employee {
	return &models.Employee{
		FullName:   name,
		Email:      name + "@example.com",
		Department: dept,
		Position:   "Engineer",
		StartDate:  models.NewDate(2023, time.January, 9),
		Salary:     salary,
	}
}

func TestGormStoreInsertSelect(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	client := store.NewClient(store.NewGormStore(openDB(t), rec))

	for _, e := range []*models.Employee{
		newEmployee("carol", "Engineering", 100),
		newEmployee("alice", "Engineering", 120),
		newEmployee("bob", "Sales", 90),
	} {
		require.NoError(t, client.Insert(ctx, models.CollectionEmployees, e))
		assert.NotEmpty(t, e.ID)
		assert.Equal(t, models.EmployeeActive, e.Status)
	}

	rows, err := client.Employees(ctx, store.NewQuery(models.CollectionEmployees).
		Where("department", "Engineering").
		OrderBy("full_name", false))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].FullName)
	assert.Equal(t, "carol", rows[1].FullName)
	assert.Equal(t, "2023-01-09", rows[0].StartDate.String())

	rows, err = client.Employees(ctx, store.NewQuery(models.CollectionEmployees).
		Where("department", store.All).
		Like("full_name", "BO"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].FullName)

	rows, err = client.Employees(ctx, store.NewQuery(models.CollectionEmployees).OrderBy("salary", true).Take(1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].FullName)

	events := rec.all()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, realtime.EventInsert, ev.Type)
		assert.Equal(t, models.CollectionEmployees, ev.Collection)
	}
}

func TestGormStoreUpdateAppliesPatchAtOnce(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	client := store.NewClient(store.NewGormStore(openDB(t), rec))

	req := &models.LeaveRequest{
		EmployeeID: "emp-1",
		LeaveType:  models.LeaveSick,
		StartDate:  models.NewDate(2024, time.June, 3),
		EndDate:    models.NewDate(2024, time.June, 4),
	}
	require.NoError(t, client.Insert(ctx, models.CollectionLeaveRequests, req))

	var updated models.LeaveRequest
	patch := store.Patch{"status": models.LeaveApproved, "approved_by": "admin-1"}
	require.NoError(t, client.Update(ctx, models.CollectionLeaveRequests, req.ID, patch, &updated))
	assert.Equal(t, models.LeaveApproved, updated.Status)
	require.NotNil(t, updated.ApprovedBy)
	assert.Equal(t, "admin-1", *updated.ApprovedBy)

	got, err := client.LeaveRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, got.Status)
	assert.Equal(t, "admin-1", *got.ApprovedBy)

	events := rec.all()
	require.Len(t, events, 2)
	assert.Equal(t, realtime.EventUpdate, events[1].Type)
	assert.Equal(t, req.ID, events[1].RowID)
}

func TestGormStoreErrors(t *testing.T) {
	ctx := context.Background()
	client := store.NewClient(store.NewGormStore(openDB(t), nil))

	err := client.Update(ctx, models.CollectionEmployees, "missing", store.Patch{"phone": "1"}, nil)
	assert.True(t, apperr.IsNotFound(err))

	err = client.Delete(ctx, models.CollectionDepartments, "missing")
	assert.True(t, apperr.IsNotFound(err))

	_, err = client.Employee(ctx, "missing")
	assert.True(t, apperr.IsNotFound(err))

	var storeErr *apperr.StoreError
	err = client.Select(ctx, store.NewQuery(models.CollectionEmployees).Where("password", "x"), &[]models.Employee{})
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "invalid query", storeErr.Reason)

	err = client.Update(ctx, models.CollectionEmployees, "x", store.Patch{"id": "y"}, nil)
	require.ErrorAs(t, err, &storeErr)

	err = client.Insert(ctx, "payroll", &models.Employee{})
	require.ErrorAs(t, err, &storeErr)
}

func TestClientHelpers(t *testing.T) {
	ctx := context.Background()
	client := store.NewClient(store.NewGormStore(openDB(t), nil))

	authID := "auth-42"
	linked := newEmployee("dana", "Sales", 80)
	linked.AuthID = &authID
	require.NoError(t, client.Insert(ctx, models.CollectionEmployees, linked))
	require.NoError(t, client.Insert(ctx, models.CollectionEmployees, newEmployee("eve", "Sales", 70)))
	require.NoError(t, client.Insert(ctx, models.CollectionEmployees, newEmployee("finn", "Support", 60)))

	emp, err := client.EmployeeByAuthID(ctx, authID)
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, linked.ID, emp.ID)

	emp, err = client.EmployeeByAuthID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, emp)

	counts, err := client.EmployeeCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Sales": 2, "Support": 1}, counts)
}

func TestClientLookupsMatchIDsLiterally(t *testing.T) {
	ctx := context.Background()
	client := store.NewClient(store.NewGormStore(openDB(t), nil))

	emp := newEmployee("gail", "Sales", 75)
	require.NoError(t, client.Insert(ctx, models.CollectionEmployees, emp))
	require.NoError(t, client.Insert(ctx, models.CollectionDepartments, &models.Department{Name: "Sales"}))
	require.NoError(t, client.Insert(ctx, models.CollectionLeaveRequests, &models.LeaveRequest{
		EmployeeID: emp.ID,
		LeaveType:  models.LeaveVacation,
		StartDate:  models.NewDate(2024, time.July, 1),
		EndDate:    models.NewDate(2024, time.July, 2),
	}))

	for _, id := range []string{store.All, ""} {
		_, err := client.Employee(ctx, id)
		assert.True(t, apperr.IsNotFound(err), "employee %q", id)
		_, err = client.Department(ctx, id)
		assert.True(t, apperr.IsNotFound(err), "department %q", id)
		_, err = client.LeaveRequest(ctx, id)
		assert.True(t, apperr.IsNotFound(err), "leave request %q", id)
	}

	got, err := client.Employee(ctx, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, "gail", got.FullName)
}

func TestCountingStore(t *testing.T) {
	counting := store.NewCounting(store.NewGormStore(openDB(t), nil))
	client := store.NewClient(counting)

	_, err := client.Departments(context.Background(), store.NewQuery(models.CollectionDepartments))
	require.NoError(t, err)
	_, err = client.Departments(context.Background(), store.NewQuery(models.CollectionDepartments))
	require.NoError(t, err)
	assert.Equal(t, int64(2), counting.Selects())
}
