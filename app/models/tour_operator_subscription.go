package models

// TourOperatorSubscription is the paid base plan a tour operator holds for
// their operator profile. Promoted tours hang off this subscription.
type TourOperatorSubscription struct {
	BillingCore
	UserID      uint   `gorm:"not null;index:idx_tour_operator_subscriptions_tuple,priority:1" json:"user_id"`
	OperatorID  uint   `gorm:"not null;index:idx_tour_operator_subscriptions_tuple,priority:2" json:"operator_id"`
	PlanTier    string `gorm:"type:varchar(50);not null;default:'basic'" json:"plan_tier"`
	DisplayName string `gorm:"type:varchar(150);default:''" json:"display_name"`
}
