package models

import "time"

// Local lifecycle statuses shared by all billable resource tables.
// "cancelled" uses the local spelling everywhere; the payment provider's own
// status vocabulary ("canceled", "unpaid", ...) is mapped in the billing package.
const (
	BillingStatusPending   = "pending"
	BillingStatusActive    = "active"
	BillingStatusCancelled = "cancelled"
	BillingStatusExpired   = "expired"
)

// BillingCore is the column set every billable resource table embeds:
// subscriptions and promoted placements share the same lifecycle shape.
// ExternalSubscriptionID stays empty until the payment provider creates a
// subscription for the record (set by the webhook handler, never by this core).
type BillingCore struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	ExternalSubscriptionID string     `gorm:"type:varchar(191);not null;default:'';index" json:"external_subscription_id"`
	Status                 string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestedAt            *time.Time `gorm:"type:timestamp;default:null" json:"requested_at,omitempty"`
	StartDate              *time.Time `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	EndDate                *time.Time `gorm:"type:timestamp;default:null" json:"end_date,omitempty"`
	CancelledAt            *time.Time `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive reports whether the record still counts against the one-live-record
// rule for its (owner, target) tuple.
func (b *BillingCore) IsLive() bool {
	return b.Status == BillingStatusPending || b.Status == BillingStatusActive
}
