package models

// RestaurantSubscription is the paid base plan a restaurant owner holds for
// one of their restaurants.
type RestaurantSubscription struct {
	BillingCore
	UserID       uint   `gorm:"not null;index:idx_restaurant_subscriptions_tuple,priority:1" json:"user_id"`
	RestaurantID uint   `gorm:"not null;index:idx_restaurant_subscriptions_tuple,priority:2" json:"restaurant_id"`
	PlanTier     string `gorm:"type:varchar(50);not null;default:'basic'" json:"plan_tier"`
	DisplayName  string `gorm:"type:varchar(150);default:''" json:"display_name"`
}
