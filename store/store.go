// Package store is the typed client for the remote entity store. Queries are
// conjunctions of equality filters plus at most one case-insensitive
// substring match, a single sort key and an optional row limit.
package store

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"hrportal/models"

	"github.com/google/uuid"
)

// All is the wildcard filter value meaning "no restriction on this field".
const All = "all"

type Filter struct {
	Field string
	Value interface{}
	// Key filters match their value literally, "all" and "" included.
	Key bool
}

// Wildcard reports whether the filter restricts nothing.
func (f Filter) Wildcard() bool {
	if f.Key {
		return false
	}
	if f.Value == nil {
		return true
	}
	// named string types such as models.LeaveStatus count too
	if v := reflect.ValueOf(f.Value); v.Kind() == reflect.String {
		return v.String() == "" || v.String() == All
	}
	return false
}

type Search struct {
	Field string
	Term  string
}

type Order struct {
	Field string
	Desc  bool
}

type Query struct {
	Collection string
	Filters    []Filter
	Search     *Search
	Order      Order
	Limit      int
}

func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// Where returns a copy of q with an extra equality filter. Wildcard values
// are kept and ignored at execution time.
func (q Query) Where(field string, value interface{}) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, Filter{Field: field, Value: value})
	return q
}

// WhereKey is Where for identifiers: the filter is never treated as a
// wildcard, so an id of "all" or "" matches no row.
func (q Query) WhereKey(field, value string) Query {
	q = q.Where(field, value)
	q.Filters[len(q.Filters)-1].Key = true
	return q
}

func (q Query) Like(field, term string) Query {
	q.Search = &Search{Field: field, Term: term}
	return q
}

func (q Query) OrderBy(field string, desc bool) Query {
	q.Order = Order{Field: field, Desc: desc}
	return q
}

func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Effective returns the filters that actually restrict rows.
func (q Query) Effective() []Filter {
	out := make([]Filter, 0, len(q.Filters))
	for _, f := range q.Filters {
		if !f.Wildcard() {
			out = append(out, f)
		}
	}
	return out
}

// HasFilter reports whether q restricts field to value.
func (q Query) HasFilter(field string, value interface{}) bool {
	for _, f := range q.Effective() {
		if f.Field == field && fmt.Sprint(f.Value) == fmt.Sprint(value) {
			return true
		}
	}
	return false
}

func (q Query) Validate() error {
	cols, ok := columns[q.Collection]
	if !ok {
		return fmt.Errorf("unknown collection %q", q.Collection)
	}
	for _, f := range q.Filters {
		if !cols[f.Field] {
			return fmt.Errorf("unknown field %s.%s", q.Collection, f.Field)
		}
	}
	if q.Search != nil && !cols[q.Search.Field] {
		return fmt.Errorf("unknown search field %s.%s", q.Collection, q.Search.Field)
	}
	if q.Order.Field != "" && !cols[q.Order.Field] {
		return fmt.Errorf("unknown order field %s.%s", q.Collection, q.Order.Field)
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit")
	}
	return nil
}

// Patch is a set of column updates applied in one statement.
type Patch map[string]interface{}

func (p Patch) Fields() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	return out
}

func validatePatch(collection string, p Patch) error {
	cols, ok := columns[collection]
	if !ok {
		return fmt.Errorf("unknown collection %q", collection)
	}
	if len(p) == 0 {
		return fmt.Errorf("empty patch")
	}
	for k := range p {
		if k == "id" || !cols[k] {
			return fmt.Errorf("field %s.%s is not updatable", collection, k)
		}
	}
	return nil
}

// Store is the remote store boundary. Each call is applied completely or not
// at all; failures are *apperr.StoreError.
type Store interface {
	Select(ctx context.Context, q Query, dest interface{}) error
	Insert(ctx context.Context, collection string, row interface{}) error
	Update(ctx context.Context, collection, id string, patch Patch, dest interface{}) error
	Delete(ctx context.Context, collection, id string) error
}

var columns = map[string]map[string]bool{
	models.CollectionEmployees: set("id", "created_at", "updated_at", "full_name", "email", "department",
		"position", "start_date", "salary", "phone", "address", "emergency_contact", "status", "role", "auth_id"),
	models.CollectionDepartments: set("id", "created_at", "name", "description", "icon", "status", "employee_count"),
	models.CollectionLeaveRequests: set("id", "created_at", "employee_id", "leave_type", "start_date", "end_date",
		"reason", "status", "approved_by"),
	models.CollectionDocuments: set("id", "employee_id", "name", "file_url", "file_type", "uploaded_at"),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func newModel(collection string) (interface{}, bool) {
	switch collection {
	case models.CollectionEmployees:
		return &models.Employee{}, true
	case models.CollectionDepartments:
		return &models.Department{}, true
	case models.CollectionLeaveRequests:
		return &models.LeaveRequest{}, true
	case models.CollectionDocuments:
		return &models.EmployeeDocument{}, true
	}
	return nil, false
}

// rowID reads the ID field of a model pointer.
func rowID(row interface{}) string {
	v := reflect.ValueOf(row)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}
	f := v.FieldByName("ID")
	if !f.IsValid() || f.Kind() != reflect.String {
		return ""
	}
	return f.String()
}

// assignDefaults fills an empty ID and zero timestamps on a model pointer.
func assignDefaults(row interface{}, now time.Time) {
	v := reflect.ValueOf(row)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return
	}
	v = v.Elem()
	if f := v.FieldByName("ID"); f.IsValid() && f.Kind() == reflect.String && f.String() == "" {
		f.SetString(uuid.NewString())
	}
	for _, name := range []string{"CreatedAt", "UpdatedAt", "UploadedAt"} {
		f := v.FieldByName(name)
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		if t, ok := f.Interface().(time.Time); ok && t.IsZero() {
			f.Set(reflect.ValueOf(now))
		}
	}
}
