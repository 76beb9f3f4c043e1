package models

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Collection names as they exist in the store.
const (
	CollectionEmployees     = "employees"
	CollectionDepartments   = "departments"
	CollectionLeaveRequests = "leave_requests"
	CollectionDocuments     = "employee_documents"
)
