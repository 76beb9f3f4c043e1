package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"hrportal/middleware"
	"hrportal/views"

	"github.com/go-chi/chi/v5"
)

const (
	streamActivities   = "activities"
	streamMetrics      = "metrics"
	notificationBuffer = 8
)

// Stream pushes server-sent events for one live list: a "snapshot" event
// with the full result set after every change, and "notification" events
// for failed refreshes. The subscription ends with the request.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	identity := middleware.IdentityFrom(r.Context())
	notes := make(chan views.Notification, notificationBuffer)
	notifier := views.NotifierFunc(func(n views.Notification) {
		views.LogNotifier{}.Notify(n)
		select {
		case notes <- n:
		default:
		}
	})

	var run func(ctx context.Context) error
	switch chi.URLParam(r, "collection") {
	case "employees":
		l := views.EmployeeList(h.source, h.directory, identity, employeeFilter(r), notifier)
		run = func(ctx context.Context) error { return pump(ctx, w, flusher, l, notes) }
	case "departments":
		l := views.DepartmentList(h.source, h.directory, identity, departmentFilter(r), notifier)
		run = func(ctx context.Context) error { return pump(ctx, w, flusher, l, notes) }
	case "leave_requests":
		l := views.LeaveList(h.source, h.leave, identity, leaveFilter(r), notifier)
		run = func(ctx context.Context) error { return pump(ctx, w, flusher, l, notes) }
	case streamActivities:
		l := views.ActivityFeed(h.source, h.directory, identity, activityLimit(r), notifier)
		run = func(ctx context.Context) error { return pump(ctx, w, flusher, l, notes) }
	case streamMetrics:
		if !identity.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		l := views.MetricsView(h.source, h.directory, identity, notifier)
		run = func(ctx context.Context) error { return pump(ctx, w, flusher, l, notes) }
	default:
		http.Error(w, "Unknown collection", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if err := run(r.Context()); err != nil && r.Context().Err() == nil {
		log.Printf("[handlers.Stream] %s: %v", r.URL.Path, err)
	}
}

func pump[T, F any](ctx context.Context, w http.ResponseWriter, flusher http.Flusher, l *views.List[T, F], notes <-chan views.Notification) error {
	if err := l.Open(ctx); err != nil {
		return err
	}
	defer l.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.Done():
			return nil
		case rows := <-l.Updates():
			if rows == nil {
				rows = []T{}
			}
			if err := writeEvent(w, "snapshot", rows); err != nil {
				return err
			}
			flusher.Flush()
		case n := <-notes:
			if err := writeEvent(w, "notification", n); err != nil {
				return err
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
