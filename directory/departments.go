package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrportal/access"
	"hrportal/apperr"
	"hrportal/models"
	"hrportal/store"
)

type DepartmentFilter struct {
	Search string
	Status string
}

// ListDepartments returns departments ordered by name. EmployeeCount is
// recomputed from the employees table on every read; the stored column is
// ignored because nothing keeps it in step with employee writes.
func (s *Service) ListDepartments(ctx context.Context, id *models.Identity, f DepartmentFilter) ([]models.Department, error) {
	q := store.NewQuery(models.CollectionDepartments).
		Where("status", f.Status).
		Like("name", f.Search).
		OrderBy("name", false)
	scoped, ok := access.Scope(id, q)
	if !ok {
		return nil, nil
	}

	rows, err := s.store.Departments(ctx, scoped)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}
	counts, err := s.store.EmployeeCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].EmployeeCount = counts[rows[i].Name]
	}
	return rows, nil
}

type NewDepartment struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        *string `json:"icon"`
}

func (n *NewDepartment) Validate() error {
	var errs []error
	if len(strings.TrimSpace(n.Name)) < 2 {
		errs = append(errs, errors.New("name must be at least 2 characters"))
	}
	if len(strings.TrimSpace(n.Description)) < 10 {
		errs = append(errs, errors.New("description must be at least 10 characters"))
	}
	return errors.Join(errs...)
}

func (s *Service) CreateDepartment(ctx context.Context, id *models.Identity, in NewDepartment) (*models.Department, error) {
	if !access.Permits(id, access.Mutation{Kind: access.Insert, Collection: models.CollectionDepartments}) {
		return nil, apperr.Denied("create department")
	}
	if err := in.Validate(); err != nil {
		return nil, apperr.Invalid("department", err)
	}

	dep := &models.Department{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Icon:        in.Icon,
		Status:      models.DepartmentActive,
	}
	if err := s.store.Insert(ctx, models.CollectionDepartments, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

type DepartmentPatch struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Icon        *string                  `json:"icon"`
	Status      *models.DepartmentStatus `json:"status"`
}

func (s *Service) UpdateDepartment(ctx context.Context, id *models.Identity, departmentID string, p DepartmentPatch) (*models.Department, error) {
	patch := store.Patch{}
	if p.Name != nil {
		if len(strings.TrimSpace(*p.Name)) < 2 {
			return nil, apperr.Invalid("department update", errors.New("name must be at least 2 characters"))
		}
		patch["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		patch["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Icon != nil {
		patch["icon"] = *p.Icon
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, apperr.Invalid("department update", fmt.Errorf("unknown status %q", *p.Status))
		}
		patch["status"] = *p.Status
	}
	if len(patch) == 0 {
		return nil, apperr.Invalid("department update", errors.New("nothing to update"))
	}

	if !access.Permits(id, access.Mutation{
		Kind:       access.Update,
		Collection: models.CollectionDepartments,
		RowID:      departmentID,
		Fields:     patch.Fields(),
	}) {
		return nil, apperr.Denied("update department")
	}

	var updated models.Department
	if err := s.store.Update(ctx, models.CollectionDepartments, departmentID, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) SetDepartmentStatus(ctx context.Context, id *models.Identity, departmentID string, status models.DepartmentStatus) (*models.Department, error) {
	return s.UpdateDepartment(ctx, id, departmentID, DepartmentPatch{Status: &status})
}

func (s *Service) DeleteDepartment(ctx context.Context, id *models.Identity, departmentID string) error {
	if !access.Permits(id, access.Mutation{Kind: access.Delete, Collection: models.CollectionDepartments, RowID: departmentID}) {
		return apperr.Denied("delete department")
	}
	return s.store.Delete(ctx, models.CollectionDepartments, departmentID)
}
