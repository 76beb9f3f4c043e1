package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"hrportal/apperr"
	"hrportal/realtime"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore runs queries against a relational database through gorm.
// When publisher is set every successful mutation is echoed to it.
type GormStore struct {
	db        *gorm.DB
	publisher realtime.Publisher
}

func NewGormStore(db *gorm.DB, publisher realtime.Publisher) *GormStore {
	return &GormStore{db: db, publisher: publisher}
}

func (s *GormStore) Select(ctx context.Context, q Query, dest interface{}) error {
	if err := q.Validate(); err != nil {
		return &apperr.StoreError{Op: "select", Reason: "invalid query", Err: err}
	}

	tx := s.db.WithContext(ctx).Table(q.Collection)
	for _, f := range q.Effective() {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Field}, Value: plain(f.Value)})
	}
	if q.Search != nil && strings.TrimSpace(q.Search.Term) != "" {
		tx = tx.Where("LOWER(?) LIKE ?", clause.Column{Name: q.Search.Field}, "%"+strings.ToLower(q.Search.Term)+"%")
	}
	if q.Order.Field != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.Order.Field}, Desc: q.Order.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	if err := tx.Find(dest).Error; err != nil {
		return translate("select "+q.Collection, err)
	}
	return nil
}

func (s *GormStore) Insert(ctx context.Context, collection string, row interface{}) error {
	if _, ok := newModel(collection); !ok {
		return &apperr.StoreError{Op: "insert", Reason: "unknown collection " + collection}
	}
	if err := s.db.WithContext(ctx).Table(collection).Create(row).Error; err != nil {
		return translate("insert "+collection, err)
	}
	s.publish(realtime.EventInsert, collection, rowID(row))
	return nil
}

// Update applies patch in a single UPDATE statement, so readers never see a
// subset of the patched columns.
func (s *GormStore) Update(ctx context.Context, collection, id string, patch Patch, dest interface{}) error {
	model, ok := newModel(collection)
	if !ok {
		return &apperr.StoreError{Op: "update", Reason: "unknown collection " + collection}
	}
	if err := validatePatch(collection, patch); err != nil {
		return &apperr.StoreError{Op: "update", Reason: "invalid patch", Err: err}
	}

	values := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		values[k] = plain(v)
	}
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return translate("update "+collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.StoreError{Op: "update " + collection, Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	s.publish(realtime.EventUpdate, collection, id)

	if dest != nil {
		if err := s.db.WithContext(ctx).Table(collection).Where("id = ?", id).Take(dest).Error; err != nil {
			return translate("reload "+collection, err)
		}
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	model, ok := newModel(collection)
	if !ok {
		return &apperr.StoreError{Op: "delete", Reason: "unknown collection " + collection}
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return translate("delete "+collection, res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.StoreError{Op: "delete " + collection, Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	s.publish(realtime.EventDelete, collection, id)
	return nil
}

func (s *GormStore) publish(t realtime.EventType, collection, id string) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(realtime.Event{Type: t, Collection: collection, RowID: id, At: time.Now()})
}

func translate(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &apperr.StoreError{Op: op, Reason: "not found", Err: apperr.ErrNotFound}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apperr.StoreError{Op: op, Reason: "duplicate key", Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &apperr.StoreError{Op: op, Reason: "foreign key violated", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &apperr.StoreError{Op: op, Reason: "canceled", Err: err}
	}
	log.Printf("[store] %s: %v", op, err)
	return &apperr.StoreError{Op: op, Reason: "database error", Err: err}
}

// plain turns named string types into string so every driver accepts them.
func plain(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String && rv.Type() != reflect.TypeOf("") {
		return rv.String()
	}
	return v
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) String() string {
	return fmt.Sprintf("gorm(%s)", s.db.Dialector.Name())
}
