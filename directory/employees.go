// Package directory holds the mutation paths for employees and departments
// and the dashboard reads built on them.
package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strings"
	"time"

	"hrportal/access"
	"hrportal/apperr"
	"hrportal/blob"
	"hrportal/models"
	"hrportal/store"
)

// Registrar creates login accounts for new employees.
type Registrar interface {
	Register(ctx context.Context, email, password string) (*models.Account, error)
}

type Service struct {
	store    *store.Client
	blobs    blob.Store
	accounts Registrar
	now      func() time.Time
}

// NewService wires the directory. accounts may be nil, in which case new
// employees get no login until one is linked.
func NewService(client *store.Client, blobs blob.Store, accounts Registrar) *Service {
	return &Service{store: client, blobs: blobs, accounts: accounts, now: time.Now}
}

type EmployeeFilter struct {
	Search     string
	Department string
	Status     string
}

func (s *Service) ListEmployees(ctx context.Context, id *models.Identity, f EmployeeFilter) ([]models.Employee, error) {
	q := store.NewQuery(models.CollectionEmployees).
		Where("department", f.Department).
		Where("status", f.Status).
		Like("full_name", f.Search).
		OrderBy("full_name", false)
	scoped, ok := access.Scope(id, q)
	if !ok {
		return nil, nil
	}
	return s.store.Employees(ctx, scoped)
}

// GetEmployee returns one employee if the caller may see it. Rows hidden by
// the access filter are reported as not found.
func (s *Service) GetEmployee(ctx context.Context, id *models.Identity, employeeID string) (*models.Employee, error) {
	q := store.NewQuery(models.CollectionEmployees).WhereKey("id", employeeID).Take(1)
	scoped, ok := access.Scope(id, q)
	if !ok {
		return nil, apperr.Denied("get employee")
	}
	rows, err := s.store.Employees(ctx, scoped)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &apperr.StoreError{Op: "get employee", Reason: "no row " + employeeID, Err: apperr.ErrNotFound}
	}
	return &rows[0], nil
}

type NewEmployee struct {
	FullName         string      `json:"full_name"`
	Email            string      `json:"email"`
	Department       string      `json:"department"`
	Position         string      `json:"position"`
	StartDate        models.Date `json:"start_date"`
	Salary           float64     `json:"salary"`
	Phone            *string     `json:"phone"`
	Address          *string     `json:"address"`
	EmergencyContact *string     `json:"emergency_contact"`
	Role             models.Role `json:"role"`
	Password         string      `json:"password"`
}

func (n *NewEmployee) Validate() error {
	var errs []error
	if len(strings.TrimSpace(n.FullName)) < 2 {
		errs = append(errs, errors.New("name must be at least 2 characters"))
	}
	if _, err := mail.ParseAddress(n.Email); err != nil {
		errs = append(errs, errors.New("invalid email address"))
	}
	if strings.TrimSpace(n.Department) == "" {
		errs = append(errs, errors.New("department is required"))
	}
	if len(strings.TrimSpace(n.Position)) < 2 {
		errs = append(errs, errors.New("position must be at least 2 characters"))
	}
	if n.StartDate.IsZero() {
		errs = append(errs, errors.New("start date is required"))
	}
	if n.Salary < 0 {
		errs = append(errs, errors.New("salary must be a positive number"))
	}
	if n.Role != "" && !n.Role.Valid() {
		errs = append(errs, fmt.Errorf("unknown role %q", n.Role))
	}
	return errors.Join(errs...)
}

type Document struct {
	Name    string
	Content io.Reader
}

// CreateEmployee runs the onboarding pipeline: optional login account,
// employee row, then upload plus metadata row per document. Steps already
// applied are not undone when a later one fails; the returned
// PartialWriteError lists them.
func (s *Service) CreateEmployee(ctx context.Context, id *models.Identity, in NewEmployee, docs []Document) (*models.Employee, error) {
	if !access.Permits(id, access.Mutation{Kind: access.Insert, Collection: models.CollectionEmployees}) {
		return nil, apperr.Denied("create employee")
	}
	if err := in.Validate(); err != nil {
		return nil, apperr.Invalid("employee", err)
	}

	var completed []string
	fail := func(step string, err error) error {
		log.Printf("[directory.CreateEmployee] step %q failed (completed: %v): %v", step, completed, err)
		if len(completed) == 0 {
			return err
		}
		return &apperr.PartialWriteError{Pipeline: "create employee", Completed: completed, Failed: step, Err: err}
	}

	emp := &models.Employee{
		FullName:         strings.TrimSpace(in.FullName),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		Department:       in.Department,
		Position:         in.Position,
		StartDate:        in.StartDate,
		Salary:           in.Salary,
		Phone:            in.Phone,
		Address:          in.Address,
		EmergencyContact: in.EmergencyContact,
		Status:           models.EmployeeActive,
		Role:             in.Role,
	}
	if emp.Role == "" {
		emp.Role = models.RoleEmployee
	}

	if in.Password != "" && s.accounts != nil {
		account, err := s.accounts.Register(ctx, emp.Email, in.Password)
		if err != nil {
			return nil, fail("account", err)
		}
		emp.AuthID = &account.ID
		completed = append(completed, "account")
	}

	if err := s.store.Insert(ctx, models.CollectionEmployees, emp); err != nil {
		return nil, fail("employee", err)
	}
	completed = append(completed, "employee")

	for _, doc := range docs {
		if s.blobs == nil {
			return emp, fail("upload "+doc.Name, errors.New("no blob storage configured"))
		}
		objectPath := blob.DocumentPath(emp.ID, doc.Name, s.now())
		ref, err := s.blobs.Upload(ctx, objectPath, doc.Content)
		if err != nil {
			return emp, fail("upload "+doc.Name, err)
		}
		completed = append(completed, "upload "+doc.Name)

		meta := &models.EmployeeDocument{
			EmployeeID: emp.ID,
			Name:       doc.Name,
			FileURL:    ref,
			FileType:   blob.Ext(doc.Name),
		}
		if err := s.store.Insert(ctx, models.CollectionDocuments, meta); err != nil {
			return emp, fail("document "+doc.Name, err)
		}
		completed = append(completed, "document "+doc.Name)
	}

	log.Printf("[directory.CreateEmployee] created %s (%s) with %d documents", emp.ID, emp.Email, len(docs))
	return emp, nil
}

type EmployeePatch struct {
	FullName         *string                `json:"full_name"`
	Email            *string                `json:"email"`
	Department       *string                `json:"department"`
	Position         *string                `json:"position"`
	StartDate        *models.Date           `json:"start_date"`
	Salary           *float64               `json:"salary"`
	Phone            *string                `json:"phone"`
	Address          *string                `json:"address"`
	EmergencyContact *string                `json:"emergency_contact"`
	Status           *models.EmployeeStatus `json:"status"`
	Role             *models.Role           `json:"role"`
}

func (p *EmployeePatch) toPatch() (store.Patch, error) {
	out := store.Patch{}
	if p.FullName != nil {
		out["full_name"] = strings.TrimSpace(*p.FullName)
	}
	if p.Email != nil {
		out["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Department != nil {
		out["department"] = *p.Department
	}
	if p.Position != nil {
		out["position"] = *p.Position
	}
	if p.StartDate != nil {
		out["start_date"] = *p.StartDate
	}
	if p.Salary != nil {
		if *p.Salary < 0 {
			return nil, errors.New("salary must be a positive number")
		}
		out["salary"] = *p.Salary
	}
	if p.Phone != nil {
		out["phone"] = *p.Phone
	}
	if p.Address != nil {
		out["address"] = *p.Address
	}
	if p.EmergencyContact != nil {
		out["emergency_contact"] = *p.EmergencyContact
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, fmt.Errorf("unknown status %q", *p.Status)
		}
		out["status"] = *p.Status
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q", *p.Role)
		}
		out["role"] = *p.Role
	}
	if len(out) == 0 {
		return nil, errors.New("nothing to update")
	}
	return out, nil
}

// UpdateEmployee is the only employee write path. Admins may change any
// column; employees only their own contact details.
func (s *Service) UpdateEmployee(ctx context.Context, id *models.Identity, employeeID string, p EmployeePatch) (*models.Employee, error) {
	patch, err := p.toPatch()
	if err != nil {
		return nil, apperr.Invalid("employee update", err)
	}
	if !access.Permits(id, access.Mutation{
		Kind:       access.Update,
		Collection: models.CollectionEmployees,
		RowID:      employeeID,
		OwnerID:    employeeID,
		Fields:     patch.Fields(),
	}) {
		return nil, apperr.Denied("update employee")
	}

	var updated models.Employee
	if err := s.store.Update(ctx, models.CollectionEmployees, employeeID, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) SetEmployeeStatus(ctx context.Context, id *models.Identity, employeeID string, status models.EmployeeStatus) (*models.Employee, error) {
	return s.UpdateEmployee(ctx, id, employeeID, EmployeePatch{Status: &status})
}

func (s *Service) DeleteEmployee(ctx context.Context, id *models.Identity, employeeID string) error {
	if !access.Permits(id, access.Mutation{Kind: access.Delete, Collection: models.CollectionEmployees, RowID: employeeID}) {
		return apperr.Denied("delete employee")
	}
	return s.store.Delete(ctx, models.CollectionEmployees, employeeID)
}

func (s *Service) Documents(ctx context.Context, id *models.Identity, employeeID string) ([]models.EmployeeDocument, error) {
	q := store.NewQuery(models.CollectionDocuments).
		WhereKey("employee_id", employeeID).
		OrderBy("uploaded_at", true)
	scoped, ok := access.Scope(id, q)
	if !ok {
		return nil, nil
	}
	return s.store.Documents(ctx, scoped)
}
