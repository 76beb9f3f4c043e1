package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hrportal/apperr"
	"hrportal/realtime"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

// SupabaseStore talks to a hosted Supabase project over PostgREST. Row level
// security configured in the project still applies on top of our filters.
type SupabaseStore struct {
	client    *supa.Client
	publisher realtime.Publisher
}

func NewSupabaseStore(client *supa.Client, publisher realtime.Publisher) *SupabaseStore {
	return &SupabaseStore{client: client, publisher: publisher}
}

func (s *SupabaseStore) Select(ctx context.Context, q Query, dest interface{}) error {
	if err := q.Validate(); err != nil {
		return &apperr.StoreError{Op: "select", Reason: "invalid query", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &apperr.StoreError{Op: "select " + q.Collection, Reason: "canceled", Err: err}
	}

	query := s.client.From(q.Collection).Select("*", "", false)
	for _, f := range q.Effective() {
		query = query.Eq(f.Field, fmt.Sprint(plain(f.Value)))
	}
	if q.Search != nil && strings.TrimSpace(q.Search.Term) != "" {
		query = query.Ilike(q.Search.Field, "%"+q.Search.Term+"%")
	}
	if q.Order.Field != "" {
		query = query.Order(q.Order.Field, &postgrest.OrderOpts{Ascending: !q.Order.Desc})
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return &apperr.StoreError{Op: "select " + q.Collection, Reason: "request failed", Err: err}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &apperr.StoreError{Op: "select " + q.Collection, Reason: "decode", Err: err}
	}
	return nil
}

func (s *SupabaseStore) Insert(ctx context.Context, collection string, row interface{}) error {
	if _, ok := newModel(collection); !ok {
		return &apperr.StoreError{Op: "insert", Reason: "unknown collection " + collection}
	}
	if err := ctx.Err(); err != nil {
		return &apperr.StoreError{Op: "insert " + collection, Reason: "canceled", Err: err}
	}

	// no gorm hooks on this path
	assignDefaults(row, time.Now().UTC())
	data, _, err := s.client.From(collection).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return &apperr.StoreError{Op: "insert " + collection, Reason: "request failed", Err: err}
	}
	if err := decodeFirst(data, row); err != nil {
		return &apperr.StoreError{Op: "insert " + collection, Reason: "decode", Err: err}
	}
	s.publish(realtime.EventInsert, collection, rowID(row))
	return nil
}

func (s *SupabaseStore) Update(ctx context.Context, collection, id string, patch Patch, dest interface{}) error {
	if _, ok := newModel(collection); !ok {
		return &apperr.StoreError{Op: "update", Reason: "unknown collection " + collection}
	}
	if err := validatePatch(collection, patch); err != nil {
		return &apperr.StoreError{Op: "update", Reason: "invalid patch", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &apperr.StoreError{Op: "update " + collection, Reason: "canceled", Err: err}
	}

	values := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		values[k] = plain(v)
	}
	data, _, err := s.client.From(collection).
		Update(values, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return &apperr.StoreError{Op: "update " + collection, Reason: "request failed", Err: err}
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return &apperr.StoreError{Op: "update " + collection, Reason: "decode", Err: err}
	}
	if len(rows) == 0 {
		return &apperr.StoreError{Op: "update " + collection, Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	s.publish(realtime.EventUpdate, collection, id)
	if dest != nil {
		if err := json.Unmarshal(rows[0], dest); err != nil {
			return &apperr.StoreError{Op: "update " + collection, Reason: "decode", Err: err}
		}
	}
	return nil
}

func (s *SupabaseStore) Delete(ctx context.Context, collection, id string) error {
	if _, ok := newModel(collection); !ok {
		return &apperr.StoreError{Op: "delete", Reason: "unknown collection " + collection}
	}
	if err := ctx.Err(); err != nil {
		return &apperr.StoreError{Op: "delete " + collection, Reason: "canceled", Err: err}
	}

	data, _, err := s.client.From(collection).Delete("representation", "").Eq("id", id).Execute()
	if err != nil {
		return &apperr.StoreError{Op: "delete " + collection, Reason: "request failed", Err: err}
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return &apperr.StoreError{Op: "delete " + collection, Reason: "no row " + id, Err: apperr.ErrNotFound}
	}
	s.publish(realtime.EventDelete, collection, id)
	return nil
}

func (s *SupabaseStore) publish(t realtime.EventType, collection, id string) {
	if s.publisher != nil {
		s.publisher.Publish(realtime.Event{Type: t, Collection: collection, RowID: id})
	}
}

func decodeFirst(data []byte, dest interface{}) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("empty response")
	}
	return json.Unmarshal(rows[0], dest)
}

var _ Store = (*SupabaseStore)(nil)
