package models

import "time"

// NumberSequence is a named monotonically increasing counter. Invoice numbers
// are allocated from the "invoice" row under a FOR UPDATE lock so that the
// sequence never skips or reuses a value.
type NumberSequence struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string `gorm:"type:varchar(50);uniqueIndex" json:"name"`
	LastValue int64  `json:"last_value"`
}
