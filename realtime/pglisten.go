package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

// NotifyChannel is the postgres channel the change triggers notify on.
const NotifyChannel = "hr_changes"

type notifyPayload struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// PGListener bridges postgres LISTEN/NOTIFY into a Publisher. It picks up
// writes from every client of the database, not only this process.
type PGListener struct {
	listener *pq.Listener
	target   Publisher
}

func NewPGListener(dsn string, target Publisher) (*PGListener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[realtime] listener event %d: %v", ev, err)
		}
	})
	if err := l.Listen(NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	return &PGListener{listener: l, target: target}, nil
}

// Run forwards notifications until ctx is canceled.
func (p *PGListener) Run(ctx context.Context) error {
	defer p.listener.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-p.listener.Notify:
			// nil is sent after the connection was re-established
			if n == nil {
				continue
			}
			ev, err := DecodeNotification(n.Extra)
			if err != nil {
				log.Printf("[realtime] bad notification on %s: %v", n.Channel, err)
				continue
			}
			p.target.Publish(ev)
		case <-time.After(90 * time.Second):
			go p.listener.Ping()
		}
	}
}

// DecodeNotification parses a trigger payload.
func DecodeNotification(payload string) (Event, error) {
	var np notifyPayload
	if err := json.Unmarshal([]byte(payload), &np); err != nil {
		return Event{}, err
	}
	t, err := ParseEventType(np.Op)
	if err != nil {
		return Event{}, err
	}
	if np.Table == "" {
		return Event{}, fmt.Errorf("missing table")
	}
	return Event{Type: t, Collection: np.Table, RowID: np.ID, At: time.Now()}, nil
}
