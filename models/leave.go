package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaveType string

const (
	LeaveVacation    LeaveType = "vacation"
	LeaveSick        LeaveType = "sick"
	LeavePersonal    LeaveType = "personal"
	LeaveMaternity   LeaveType = "maternity"
	LeavePaternity   LeaveType = "paternity"
	LeaveBereavement LeaveType = "bereavement"
)

var LeaveTypes = []LeaveType{
	LeaveVacation, LeaveSick, LeavePersonal, LeaveMaternity, LeavePaternity, LeaveBereavement,
}

func (t LeaveType) Valid() bool {
	for _, lt := range LeaveTypes {
		if t == lt {
			return true
		}
	}
	return false
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

func (s LeaveStatus) Valid() bool {
	return s == LeavePending || s == LeaveApproved || s == LeaveRejected
}

// Terminal reports whether no transition leaves s.
func (s LeaveStatus) Terminal() bool {
	return s == LeaveApproved || s == LeaveRejected
}

// CanTransitionTo encodes the whole lifecycle: pending -> approved | rejected.
func (s LeaveStatus) CanTransitionTo(next LeaveStatus) bool {
	return s == LeavePending && next.Terminal()
}

type LeaveRequest struct {
	ID         string      `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	EmployeeID string      `gorm:"not null;size:36;index" json:"employee_id"`
	LeaveType  LeaveType   `gorm:"not null;size:20" json:"leave_type"`
	StartDate  Date        `gorm:"not null" json:"start_date"`
	EndDate    Date        `gorm:"not null" json:"end_date"`
	Reason     string      `gorm:"size:1000" json:"reason"`
	Status     LeaveStatus `gorm:"not null;size:20;default:pending;index" json:"status"`
	ApprovedBy *string     `gorm:"size:36" json:"approved_by"`
}

func (LeaveRequest) TableName() string {
	return CollectionLeaveRequests
}

func (l *LeaveRequest) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = LeavePending
	}
	return nil
}

var ErrInvalidLeavePeriod = errors.New("end date must not be before start date")

func (l *LeaveRequest) Validate() error {
	if l.EmployeeID == "" {
		return errors.New("employee is required")
	}
	if !l.LeaveType.Valid() {
		return fmt.Errorf("unknown leave type %q", l.LeaveType)
	}
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		return errors.New("start and end dates are required")
	}
	if l.EndDate.Before(l.StartDate) {
		return ErrInvalidLeavePeriod
	}
	return nil
}

// Days is the inclusive number of calendar days covered.
func (l *LeaveRequest) Days() int {
	return int(l.EndDate.Sub(l.StartDate.Time).Hours()/24) + 1
}
