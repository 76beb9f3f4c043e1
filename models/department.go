package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentStatus string

const (
	DepartmentActive   DepartmentStatus = "active"
	DepartmentInactive DepartmentStatus = "inactive"
)

func (s DepartmentStatus) Valid() bool {
	return s == DepartmentActive || s == DepartmentInactive
}

// Department is referenced by Employee.Department through its name.
// EmployeeCount is never trusted as stored; readers recompute it.
type Department struct {
	ID            string           `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt     time.Time        `json:"created_at"`
	Name          string           `gorm:"uniqueIndex;not null;size:100" json:"name"`
	Description   string           `gorm:"size:1000" json:"description"`
	Icon          *string          `gorm:"size:50" json:"icon"`
	Status        DepartmentStatus `gorm:"not null;size:20;default:active" json:"status"`
	EmployeeCount int              `gorm:"default:0" json:"employee_count"`
}

func (Department) TableName() string {
	return CollectionDepartments
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = DepartmentActive
	}
	return nil
}
