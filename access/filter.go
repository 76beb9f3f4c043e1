// Package access narrows queries and gates mutations by the caller's role.
// It never raises errors itself: it either builds a query that can only see
// permitted rows or reports that nothing may be issued. The store's own
// row level security stays the backstop.
package access

import (
	"hrportal/models"
	"hrportal/store"
)

// Scope returns q narrowed to what id may read. ok is false when no query
// should be issued at all, including while the identity is still unresolved.
func Scope(id *models.Identity, q store.Query) (scoped store.Query, ok bool) {
	if id == nil || id.ID == "" {
		return store.Query{}, false
	}

	switch q.Collection {
	case models.CollectionEmployees:
		if id.IsAdmin() {
			return q, true
		}
		return q.WhereKey("id", id.ID), true
	case models.CollectionDepartments:
		return q, true
	case models.CollectionLeaveRequests, models.CollectionDocuments:
		if id.IsAdmin() {
			return q, true
		}
		return q.WhereKey("employee_id", id.ID), true
	}
	return store.Query{}, false
}

type Kind int

const (
	Insert Kind = iota
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Mutation describes a write before it is sent. OwnerID is the employee the
// row belongs to: the row itself for employees, employee_id otherwise.
type Mutation struct {
	Kind       Kind
	Collection string
	RowID      string
	OwnerID    string
	Fields     []string
}

// SelfServiceFields are the employee columns a non-admin may change on
// their own row.
var SelfServiceFields = map[string]bool{
	"phone":             true,
	"address":           true,
	"emergency_contact": true,
}

// Permits reports whether id may perform m.
func Permits(id *models.Identity, m Mutation) bool {
	if id == nil || id.ID == "" {
		return false
	}

	switch m.Collection {
	case models.CollectionLeaveRequests:
		if m.Kind == Insert {
			return m.OwnerID == id.ID
		}
		// status and approved_by included
		return id.IsAdmin()
	case models.CollectionEmployees:
		if id.IsAdmin() {
			return true
		}
		return m.Kind == Update && m.RowID == id.ID && selfService(m.Fields)
	case models.CollectionDepartments, models.CollectionDocuments:
		return id.IsAdmin()
	}
	return false
}

func selfService(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if !SelfServiceFields[f] {
			return false
		}
	}
	return true
}
