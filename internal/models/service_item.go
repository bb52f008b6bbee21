package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceItem is a catalog entry for a billable clinic service
type ServiceItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code        string          `gorm:"type:varchar(50);uniqueIndex" json:"code"`
	Name        string          `gorm:"type:varchar(255)" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	IsActive    bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	CoverageRules []CoverageRule `gorm:"foreignKey:ServiceItemID" json:"coverage_rules,omitempty"`
}
