// Package realtime delivers change notifications per collection and drives
// re-queries of live lists.
package realtime

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ParseEventType accepts both our names and the upper-case trigger ops.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(s) {
	case "insert":
		return EventInsert, nil
	case "update":
		return EventUpdate, nil
	case "delete":
		return EventDelete, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Event says that a row in Collection changed. The payload is deliberately
// thin: subscribers re-read the current state instead of merging it.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	RowID      string    `json:"row_id"`
	At         time.Time `json:"at"`
}

type EventMask int

const (
	AllChanges EventMask = iota
	InsertOnly
)

func (m EventMask) Matches(t EventType) bool {
	if m == InsertOnly {
		return t == EventInsert
	}
	return true
}

// Publisher accepts change events from a mutation source.
type Publisher interface {
	Publish(Event)
}
