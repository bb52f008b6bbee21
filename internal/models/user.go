package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a staff account
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleBilling   UserRole = "billing"
	UserRoleReception UserRole = "reception"
)

// User represents a staff account in the system.
// Authentication happens against Firebase; the local row carries the role
// used for authorization and is matched by email.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name        string   `gorm:"type:varchar(255)" json:"name"`
	Phone       string   `gorm:"type:varchar(50)" json:"phone"`
	Email       string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirebaseUID string   `gorm:"type:varchar(128);index" json:"firebase_uid"`
	Role        UserRole `gorm:"type:varchar(20);default:'reception'" json:"role"`
	IsActive    bool     `gorm:"default:true" json:"is_active"`

	// Relationships
	Appointments []Appointment `gorm:"foreignKey:PractitionerID" json:"appointments,omitempty"`
	Payments     []Payment     `gorm:"foreignKey:RecordedByID" json:"payments,omitempty"`
	Exonerations []Exoneration `gorm:"foreignKey:AuthorizedByID" json:"exonerations,omitempty"`
}

// CanAuthorizeBilling reports whether the user may cancel or exonerate invoices
func (u User) CanAuthorizeBilling() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleBilling
}
