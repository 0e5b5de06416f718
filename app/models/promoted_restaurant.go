package models

// PromotedRestaurant is a paid placement that pins a restaurant to the top of
// search results for a destination. Unlike the base subscriptions, promotions
// track an explicit cancellation timestamp (CancelledAt on the embedded core).
type PromotedRestaurant struct {
	BillingCore
	UserID       uint   `gorm:"not null;index:idx_promoted_restaurants_tuple,priority:1" json:"user_id"`
	RestaurantID uint   `gorm:"not null;index:idx_promoted_restaurants_tuple,priority:2" json:"restaurant_id"`
	Destination  string `gorm:"type:varchar(150);default:''" json:"destination"`
	DisplayName  string `gorm:"type:varchar(150);default:''" json:"display_name"`
}
