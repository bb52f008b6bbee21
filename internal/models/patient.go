package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Patient represents a patient record
type Patient struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	RecordNumber string     `gorm:"type:varchar(50);uniqueIndex" json:"record_number"`
	FirstName    string     `gorm:"type:varchar(255)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(255);index" json:"last_name"`
	Sex          string     `gorm:"type:varchar(20)" json:"sex"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Phone        string     `gorm:"type:varchar(50)" json:"phone"`
	Email        string     `gorm:"type:varchar(255)" json:"email"`
	Address      string     `gorm:"type:text" json:"address"`
	Notes        string     `gorm:"type:text" json:"notes"`

	// Active insurance plan; nil means the patient is self-pay.
	InsurancePlanID *uint          `gorm:"index" json:"insurance_plan_id"`
	InsurancePlan   *InsurancePlan `gorm:"foreignKey:InsurancePlanID" json:"insurance_plan,omitempty"`
	InsuranceCode   string         `gorm:"type:varchar(100)" json:"insurance_code"` // member/policy number at the insurer

	// Relationships
	Invoices     []Invoice     `gorm:"foreignKey:PatientID" json:"invoices,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"appointments,omitempty"`
}

// FullName returns the display name of the patient
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasActiveInsurance reports whether coverage calculation applies to this patient
func (p Patient) HasActiveInsurance() bool {
	return p.InsurancePlan != nil && p.InsurancePlan.IsActive
}
