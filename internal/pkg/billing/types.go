package billing

import "time"

// Kind discriminates the four billable resource tables. All four follow the
// same subscription lifecycle; the kind decides which table a record lives in
// and which owner/target columns identify it.
type Kind string

const (
	KindRestaurantSubscription   Kind = "restaurant_subscription"
	KindTourOperatorSubscription Kind = "tour_operator_subscription"
	KindPromotedRestaurant       Kind = "promoted_restaurant"
	KindPromotedTour             Kind = "promoted_tour"
)

// Record is the kind-agnostic view of one billable resource row, carrying
// only the lifecycle columns the writer and the sweep operate on.
type Record struct {
	ID                     uint
	Kind                   Kind
	OwnerRef               uint
	TargetRef              uint
	ExternalSubscriptionID string
	Status                 string
	RequestedAt            *time.Time
	StartDate              *time.Time
	EndDate                *time.Time
	CancelledAt            *time.Time
}

// PendingRequest is the input to the pending-record writer. Payload carries
// kind-specific descriptive columns (plan_tier, destination, display_name)
// that are stored but never read by the reconciliation logic.
type PendingRequest struct {
	Kind      Kind
	OwnerRef  uint
	TargetRef uint
	Payload   map[string]any
}

// SweepResult aggregates one reconciliation pass across all kinds.
type SweepResult struct {
	Checked int      `json:"checked"`
	Fixed   int      `json:"fixed"`
	Errors  []string `json:"errors"`
}

// CheckoutItem correlates one pending record with the plan it should be
// billed under when the checkout session is assembled.
type CheckoutItem struct {
	Kind     Kind
	RecordID uint
	PlanKey  string
}
