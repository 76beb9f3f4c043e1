package directory

import (
	"context"
	"fmt"
	"time"

	"hrportal/access"
	"hrportal/apperr"
	"hrportal/models"
	"hrportal/store"
)

type Metrics struct {
	ActiveEmployees   int     `json:"active_employees"`
	Positions         int     `json:"positions"`
	ActiveDepartments int     `json:"active_departments"`
	Payroll           float64 `json:"payroll"`
}

// Metrics aggregates over every employee, so it is admin only.
func (s *Service) Metrics(ctx context.Context, id *models.Identity) (*Metrics, error) {
	if !id.IsAdmin() {
		return nil, apperr.Denied("read metrics")
	}

	employees, err := s.store.Employees(ctx, store.NewQuery(models.CollectionEmployees).Where("status", models.EmployeeActive))
	if err != nil {
		return nil, err
	}
	departments, err := s.store.Departments(ctx, store.NewQuery(models.CollectionDepartments).Where("status", models.DepartmentActive))
	if err != nil {
		return nil, err
	}

	m := &Metrics{ActiveEmployees: len(employees), ActiveDepartments: len(departments)}
	positions := make(map[string]struct{})
	for _, e := range employees {
		m.Payroll += e.Salary
		positions[e.Position] = struct{}{}
	}
	m.Positions = len(positions)
	return m, nil
}

type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Name        string    `json:"name"`
	Timestamp   time.Time `json:"timestamp"`
}

const defaultActivityLimit = 10

// RecentHires lists the newest employees visible to the caller as activity
// entries.
func (s *Service) RecentHires(ctx context.Context, id *models.Identity, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	q := store.NewQuery(models.CollectionEmployees).OrderBy("created_at", true).Take(limit)
	scoped, ok := access.Scope(id, q)
	if !ok {
		return nil, nil
	}
	rows, err := s.store.Employees(ctx, scoped)
	if err != nil {
		return nil, err
	}

	out := make([]Activity, 0, len(rows))
	for _, e := range rows {
		out = append(out, Activity{
			ID:          e.ID,
			Type:        "new_hire",
			Title:       "New Employee Hired",
			Description: fmt.Sprintf("%s joined as %s in %s", e.DisplayName(), e.Position, e.Department),
			Name:        e.DisplayName(),
			Timestamp:   e.CreatedAt,
		})
	}
	return out, nil
}
