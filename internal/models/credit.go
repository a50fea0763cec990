package models

import "time"

type CreditType string

const (
	CreditTypeAssigned  CreditType = "assigned-by-admin"
	CreditTypePurchased CreditType = "purchased"
	CreditTypeUsed      CreditType = "used"
)

// Credit is one ledger entry. Type is immutable after creation; amount
// may be corrected, which applies the delta difference to the cached
// balance rather than overwriting it.
type Credit struct {
	ID     uint64     `gorm:"primarykey" json:"id"`
	UserID uint64     `gorm:"not null;index:idx_credits_user_created" json:"user_id"`
	Amount int64      `gorm:"not null" json:"amount"`
	Type   CreditType `gorm:"type:varchar(20);not null" json:"type"`

	// Reporting decomposition: the added and consumed portions.
	CreditAssign int64 `gorm:"not null;default:0" json:"credit_assign"`
	CreditUsed   int64 `gorm:"not null;default:0" json:"credit_used"`

	Description string    `gorm:"type:varchar(300)" json:"description,omitempty"`
	ExpiryDate  time.Time `gorm:"not null" json:"expiry_date"`

	CreatedAt time.Time `gorm:"index:idx_credits_user_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignedDelta is the entry's contribution to the cached balance:
// negative for used entries, positive otherwise.
func SignedDelta(t CreditType, amount int64) int64 {
	if amount < 0 {
		amount = -amount
	}
	if t == CreditTypeUsed {
		return -amount
	}
	return amount
}

// Delta returns the entry's current signed contribution.
func (c *Credit) Delta() int64 {
	return SignedDelta(c.Type, c.Amount)
}
