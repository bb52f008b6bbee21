package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Exoneration is an administrative waiver of a patient's owed balance on an
// invoice. At most one exoneration exists per invoice; after creation only
// the print flag may change.
type Exoneration struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID uint `gorm:"uniqueIndex" json:"invoice_id"`

	// OriginalAmount is the owed balance at the moment of exoneration;
	// ExoneratedAmount is the part of it that was waived.
	OriginalAmount   decimal.Decimal `gorm:"type:decimal(12,2)" json:"original_amount"`
	ExoneratedAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"exonerated_amount"`

	Reason            string `gorm:"type:text" json:"reason"`
	AuthorizationCode string `gorm:"type:varchar(100)" json:"authorization_code"`
	Notes             string `gorm:"type:text" json:"notes"`

	AuthorizedByID uint       `gorm:"index" json:"authorized_by_id"`
	IsPrinted      bool       `gorm:"default:false" json:"is_printed"`
	PrintedAt      *time.Time `json:"printed_at"`

	// Relationships
	Invoice      Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	AuthorizedBy User    `gorm:"foreignKey:AuthorizedByID" json:"authorized_by,omitempty"`
}

// IsPartial reports whether less than the full owed balance was waived
func (e Exoneration) IsPartial() bool {
	return e.ExoneratedAmount.LessThan(e.OriginalAmount)
}
