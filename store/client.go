package store

import (
	"context"
	"sync/atomic"

	"hrportal/apperr"
	"hrportal/models"
)

// Client adds typed reads on top of a Store. It applies no access rules;
// callers pass queries already narrowed by the access filter.
type Client struct {
	Store
}

func NewClient(s Store) *Client {
	return &Client{Store: s}
}

func (c *Client) Employees(ctx context.Context, q Query) ([]models.Employee, error) {
	q.Collection = models.CollectionEmployees
	var rows []models.Employee
	if err := c.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Departments(ctx context.Context, q Query) ([]models.Department, error) {
	q.Collection = models.CollectionDepartments
	var rows []models.Department
	if err := c.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) LeaveRequests(ctx context.Context, q Query) ([]models.LeaveRequest, error) {
	q.Collection = models.CollectionLeaveRequests
	var rows []models.LeaveRequest
	if err := c.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Documents(ctx context.Context, q Query) ([]models.EmployeeDocument, error) {
	q.Collection = models.CollectionDocuments
	var rows []models.EmployeeDocument
	if err := c.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Employee returns the row with id or an error wrapping apperr.ErrNotFound.
func (c *Client) Employee(ctx context.Context, id string) (*models.Employee, error) {
	rows, err := c.Employees(ctx, NewQuery(models.CollectionEmployees).WhereKey("id", id).Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &apperr.StoreError{Op: "get employee", Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	return &rows[0], nil
}

// EmployeeByAuthID returns nil without error when no employee is linked to
// authID.
func (c *Client) EmployeeByAuthID(ctx context.Context, authID string) (*models.Employee, error) {
	if authID == "" {
		return nil, nil
	}
	rows, err := c.Employees(ctx, NewQuery(models.CollectionEmployees).WhereKey("auth_id", authID).Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) LeaveRequest(ctx context.Context, id string) (*models.LeaveRequest, error) {
	rows, err := c.LeaveRequests(ctx, NewQuery(models.CollectionLeaveRequests).WhereKey("id", id).Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &apperr.StoreError{Op: "get leave request", Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	return &rows[0], nil
}

func (c *Client) Department(ctx context.Context, id string) (*models.Department, error) {
	rows, err := c.Departments(ctx, NewQuery(models.CollectionDepartments).WhereKey("id", id).Take(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &apperr.StoreError{Op: "get department", Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	return &rows[0], nil
}

// EmployeeCounts returns the number of employees per department name.
func (c *Client) EmployeeCounts(ctx context.Context) (map[string]int, error) {
	rows, err := c.Employees(ctx, NewQuery(models.CollectionEmployees))
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, e := range rows {
		counts[e.Department]++
	}
	return counts, nil
}

// Counting wraps a Store and counts Select calls.
type Counting struct {
	Store
	selects atomic.Int64
}

func NewCounting(s Store) *Counting {
	return &Counting{Store: s}
}

func (c *Counting) Select(ctx context.Context, q Query, dest interface{}) error {
	c.selects.Add(1)
	return c.Store.Select(ctx, q, dest)
}

func (c *Counting) Selects() int64 {
	return c.selects.Load()
}
