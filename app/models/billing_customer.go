package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderStripe = "stripe"
)

// BillingCustomer stores a user's customer handle at the payment provider so
// checkout sessions reuse the same provider-side customer across purchases.
type BillingCustomer struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index:ux_billing_customers_user_provider,unique,priority:1" json:"user_id"`
	Provider           string    `gorm:"type:varchar(20);not null;index:ux_billing_customers_user_provider,unique,priority:2" json:"provider"`
	ProviderCustomerID string    `gorm:"type:varchar(191);not null" json:"provider_customer_id"`
	Email              string    `gorm:"type:varchar(200);default:''" json:"email"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
