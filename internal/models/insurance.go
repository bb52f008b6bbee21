package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InsurancePlan represents an insurer's plan a patient can be enrolled in
type InsurancePlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InsurerName string `gorm:"type:varchar(255)" json:"insurer_name"`
	PlanName    string `gorm:"type:varchar(255)" json:"plan_name"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	Notes       string `gorm:"type:text" json:"notes"`

	// Relationships
	CoverageRules []CoverageRule `gorm:"foreignKey:InsurancePlanID" json:"coverage_rules,omitempty"`
	Patients      []Patient      `gorm:"foreignKey:InsurancePlanID" json:"patients,omitempty"`
}

// CoverageRule maps (plan, service) to the percentage the insurer pays.
// A service without a rule is not covered at all.
type CoverageRule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InsurancePlanID uint            `gorm:"index;uniqueIndex:idx_coverage_plan_service,where:deleted_at IS NULL" json:"insurance_plan_id"`
	ServiceItemID   uint            `gorm:"index;uniqueIndex:idx_coverage_plan_service,where:deleted_at IS NULL" json:"service_item_id"`
	CoveragePercent decimal.Decimal `gorm:"type:decimal(5,2)" json:"coverage_percent"` // 0-100

	// Relationships
	InsurancePlan InsurancePlan `gorm:"foreignKey:InsurancePlanID" json:"insurance_plan,omitempty"`
	ServiceItem   ServiceItem   `gorm:"foreignKey:ServiceItemID" json:"service_item,omitempty"`
}
