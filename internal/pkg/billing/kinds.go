package billing

import "fmt"

// kindSpec maps a Kind onto its table and tuple columns. tracksCancelledAt
// marks the promotion kinds, which record an explicit cancellation timestamp;
// the base subscription kinds do not.
type kindSpec struct {
	table             string
	ownerColumn       string
	targetColumn      string
	tracksCancelledAt bool
}

var kindSpecs = map[Kind]kindSpec{
	KindRestaurantSubscription: {
		table:        "restaurant_subscriptions",
		ownerColumn:  "user_id",
		targetColumn: "restaurant_id",
	},
	KindTourOperatorSubscription: {
		table:        "tour_operator_subscriptions",
		ownerColumn:  "user_id",
		targetColumn: "operator_id",
	},
	KindPromotedRestaurant: {
		table:             "promoted_restaurants",
		ownerColumn:       "user_id",
		targetColumn:      "restaurant_id",
		tracksCancelledAt: true,
	},
	KindPromotedTour: {
		table:             "promoted_tours",
		ownerColumn:       "operator_subscription_id",
		targetColumn:      "tour_id",
		tracksCancelledAt: true,
	},
}

// allKinds returns the kinds in sweep order. Order carries no correctness
// weight; it only keeps log output and aggregate counts stable.
func allKinds() []Kind {
	return []Kind{
		KindRestaurantSubscription,
		KindTourOperatorSubscription,
		KindPromotedRestaurant,
		KindPromotedTour,
	}
}

func specFor(kind Kind) (kindSpec, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return kindSpec{}, fmt.Errorf("unknown billing kind %q", kind)
	}
	return spec, nil
}
