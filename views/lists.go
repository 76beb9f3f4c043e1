package views

import (
	"context"

	"hrportal/directory"
	"hrportal/leave"
	"hrportal/models"
	"hrportal/realtime"
)

type (
	Employees   = List[models.Employee, directory.EmployeeFilter]
	Departments = List[models.Department, directory.DepartmentFilter]
	Leave       = List[models.LeaveRequest, leave.Filter]
	Activities  = List[directory.Activity, int]
	// Metrics holds a single element once loaded.
	Metrics     = List[directory.Metrics, struct{}]
)

func EmployeeList(src Source, svc *directory.Service, id *models.Identity, f directory.EmployeeFilter, n Notifier) *Employees {
	return NewList[models.Employee, directory.EmployeeFilter](src, models.CollectionEmployees, realtime.AllChanges, id, f, svc.ListEmployees, n)
}

// DepartmentList also watches employees: employee_count is derived from
// them on every read.
func DepartmentList(src Source, svc *directory.Service, id *models.Identity, f directory.DepartmentFilter, n Notifier) *Departments {
	return NewListOn[models.Department, directory.DepartmentFilter](src,
		[]string{models.CollectionDepartments, models.CollectionEmployees},
		realtime.AllChanges, id, f, svc.ListDepartments, n)
}

func LeaveList(src Source, svc *leave.Service, id *models.Identity, f leave.Filter, n Notifier) *Leave {
	return NewList[models.LeaveRequest, leave.Filter](src, models.CollectionLeaveRequests, realtime.AllChanges, id, f, svc.List, n)
}

// ActivityFeed lists recent hires and refreshes on new employees only.
func ActivityFeed(src Source, svc *directory.Service, id *models.Identity, limit int, n Notifier) *Activities {
	return NewList[directory.Activity, int](src, models.CollectionEmployees, realtime.InsertOnly, id, limit, svc.RecentHires, n)
}

// MetricsView keeps the admin dashboard counters current. They are derived
// from employees and departments, so a change to either re-reads them.
func MetricsView(src Source, svc *directory.Service, id *models.Identity, n Notifier) *Metrics {
	fetch := func(ctx context.Context, caller *models.Identity, _ struct{}) ([]directory.Metrics, error) {
		m, err := svc.Metrics(ctx, caller)
		if err != nil {
			return nil, err
		}
		return []directory.Metrics{*m}, nil
	}
	return NewListOn[directory.Metrics, struct{}](src,
		[]string{models.CollectionEmployees, models.CollectionDepartments},
		realtime.AllChanges, id, struct{}{}, fetch, n)
}
