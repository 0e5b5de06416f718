package models

// PromotedTour is a paid placement for a single tour. It belongs to an
// operator's subscription bundle, so the owning reference is the
// TourOperatorSubscription id rather than a user id.
type PromotedTour struct {
	BillingCore
	OperatorSubscriptionID uint   `gorm:"not null;index:idx_promoted_tours_tuple,priority:1" json:"operator_subscription_id"`
	TourID                 uint   `gorm:"not null;index:idx_promoted_tours_tuple,priority:2" json:"tour_id"`
	Destination            string `gorm:"type:varchar(150);default:''" json:"destination"`
	DisplayName            string `gorm:"type:varchar(150);default:''" json:"display_name"`
}
