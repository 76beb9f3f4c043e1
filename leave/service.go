// Package leave implements the leave request lifecycle:
//
//	pending --approve--> approved
//	pending --reject---> rejected
//
// approved and rejected are terminal. Only admins move a request out of
// pending; requesters can only create new pending requests for themselves.
package leave

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"hrportal/access"
	"hrportal/apperr"
	"hrportal/models"
	"hrportal/store"
)

var ErrTerminal = errors.New("leave request is already decided")

type Service struct {
	store *store.Client
}

func NewService(client *store.Client) *Service {
	return &Service{store: client}
}

type SubmitInput struct {
	LeaveType models.LeaveType `json:"leave_type"`
	StartDate models.Date      `json:"start_date"`
	EndDate   models.Date      `json:"end_date"`
	Reason    string           `json:"reason"`
}

// Submit files a pending request owned by the caller.
func (s *Service) Submit(ctx context.Context, id *models.Identity, in SubmitInput) (*models.LeaveRequest, error) {
	if id == nil {
		return nil, apperr.Denied("submit leave request")
	}
	req := &models.LeaveRequest{
		EmployeeID: id.ID,
		LeaveType:  in.LeaveType,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Reason:     strings.TrimSpace(in.Reason),
		Status:     models.LeavePending,
	}
	if !access.Permits(id, access.Mutation{Kind: access.Insert, Collection: models.CollectionLeaveRequests, OwnerID: req.EmployeeID}) {
		return nil, apperr.Denied("submit leave request")
	}
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid("leave request", err)
	}

	if err := s.store.Insert(ctx, models.CollectionLeaveRequests, req); err != nil {
		log.Printf("[leave.Submit] employee %s: %v", id.ID, err)
		return nil, err
	}
	return req, nil
}

func (s *Service) Approve(ctx context.Context, id *models.Identity, requestID string) (*models.LeaveRequest, error) {
	return s.decide(ctx, id, requestID, models.LeaveApproved)
}

func (s *Service) Reject(ctx context.Context, id *models.Identity, requestID string) (*models.LeaveRequest, error) {
	return s.decide(ctx, id, requestID, models.LeaveRejected)
}

// decide records the new status and the approver in one update. There is no
// locking across clients: two admins deciding the same request race and the
// last write wins at the store.
func (s *Service) decide(ctx context.Context, id *models.Identity, requestID string, next models.LeaveStatus) (*models.LeaveRequest, error) {
	op := "approve leave request"
	if next == models.LeaveRejected {
		op = "reject leave request"
	}
	if !access.Permits(id, access.Mutation{
		Kind:       access.Update,
		Collection: models.CollectionLeaveRequests,
		RowID:      requestID,
		Fields:     []string{"status", "approved_by"},
	}) {
		return nil, apperr.Denied(op)
	}

	current, err := s.store.LeaveRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s %s (status %s): %w", op, requestID, current.Status, ErrTerminal)
	}

	var updated models.LeaveRequest
	patch := store.Patch{"status": next, "approved_by": id.ID}
	if err := s.store.Update(ctx, models.CollectionLeaveRequests, requestID, patch, &updated); err != nil {
		log.Printf("[leave.decide] %s %s by %s: %v", op, requestID, id.ID, err)
		return nil, err
	}
	log.Printf("[leave.decide] request %s %s by %s", requestID, next, id.ID)
	return &updated, nil
}

// Delete removes a request regardless of its status. Admin only.
func (s *Service) Delete(ctx context.Context, id *models.Identity, requestID string) error {
	if !access.Permits(id, access.Mutation{Kind: access.Delete, Collection: models.CollectionLeaveRequests, RowID: requestID}) {
		return apperr.Denied("delete leave request")
	}
	return s.store.Delete(ctx, models.CollectionLeaveRequests, requestID)
}

type Filter struct {
	Status    string
	LeaveType string
}

// List returns the requests the caller may see, newest first. Before the
// identity is resolved it returns nothing without touching the store.
func (s *Service) List(ctx context.Context, id *models.Identity, f Filter) ([]models.LeaveRequest, error) {
	q := store.NewQuery(models.CollectionLeaveRequests).
		Where("status", f.Status).
		Where("leave_type", f.LeaveType).
		OrderBy("created_at", true)
	scoped, ok := access.Scope(id, q)
	if !ok {
		return nil, nil
	}
	return s.store.LeaveRequests(ctx, scoped)
}

// Calendar maps each day (YYYY-MM-DD) to the requests covering it.
func Calendar(rows []models.LeaveRequest) map[string][]models.LeaveRequest {
	out := make(map[string][]models.LeaveRequest)
	for _, r := range rows {
		if r.EndDate.Before(r.StartDate) {
			continue
		}
		for d := r.StartDate; !r.EndDate.Before(d); d = d.AddDays(1) {
			key := d.String()
			out[key] = append(out[key], r)
		}
	}
	return out
}

// Days returns the sorted keys of a calendar.
func Days(cal map[string][]models.LeaveRequest) []string {
	days := make([]string, 0, len(cal))
	for d := range cal {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}
