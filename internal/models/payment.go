package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod is the channel through which a payment was received
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodGateway  PaymentMethod = "gateway"
)

// Payment records money received against an invoice. Rows are append-only:
// they are never edited or deleted once recorded.
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InvoiceID    uint            `gorm:"index" json:"invoice_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	Method       PaymentMethod   `gorm:"type:varchar(50)" json:"method"`
	Reference    string          `gorm:"type:varchar(255)" json:"reference"` // gateway order id, bank ref, etc.
	Notes        string          `gorm:"type:text" json:"notes"`
	RecordedByID *uint           `gorm:"index" json:"recorded_by_id"`
	PaidAt       time.Time       `json:"paid_at"`

	// Relationships
	Invoice    Invoice `gorm:"foreignKey:InvoiceID" json:"invoice,omitempty"`
	RecordedBy *User   `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}
