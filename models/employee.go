package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
	EmployeeOnLeave  EmployeeStatus = "on_leave"
)

func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeActive, EmployeeInactive, EmployeeOnLeave:
		return true
	}
	return false
}

type Employee struct {
	ID               string         `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	FullName         string         `gorm:"not null;size:200" json:"full_name"`
	Email            string         `gorm:"uniqueIndex;not null;size:200" json:"email"`
	Department       string         `gorm:"not null;size:100;index" json:"department"`
	Position         string         `gorm:"not null;size:100" json:"position"`
	StartDate        Date           `gorm:"not null" json:"start_date"`
	Salary           float64        `gorm:"not null" json:"salary"`
	Phone            *string        `gorm:"size:50" json:"phone"`
	Address          *string        `gorm:"size:500" json:"address"`
	EmergencyContact *string        `gorm:"size:200" json:"emergency_contact"`
	Status           EmployeeStatus `gorm:"not null;size:20;default:active" json:"status"`
	Role             Role           `gorm:"not null;size:20;default:employee" json:"role"`
	AuthID           *string        `gorm:"uniqueIndex;size:64" json:"auth_id"`
}

func (Employee) TableName() string {
	return CollectionEmployees
}

func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = EmployeeActive
	}
	if e.Role == "" {
		e.Role = RoleEmployee
	}
	return nil
}

func (e *Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.Email
}

func (e *Employee) IsActive() bool {
	return e.Status == EmployeeActive
}

// EmployeeDocument is the metadata row for a file kept in blob storage.
type EmployeeDocument struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	EmployeeID string    `gorm:"not null;size:36;index" json:"employee_id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	FileURL    string    `gorm:"not null;size:500" json:"file_url"`
	FileType   string    `gorm:"not null;size:20" json:"file_type"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (EmployeeDocument) TableName() string {
	return CollectionDocuments
}

func (d *EmployeeDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Account is a locally managed login. Employees reference it through AuthID.
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `gorm:"uniqueIndex;not null;size:200" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
