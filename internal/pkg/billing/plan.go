package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tabletour/tabletour/internal/pkg/env"
)

// Plan keys used by the checkout request payload. Promotions are billed as
// add-on line items next to a base subscription plan.
const (
	PlanRestaurantBasic = "restaurant_basic"
	PlanRestaurantPlus  = "restaurant_plus"
	PlanOperatorBasic   = "operator_basic"
	PlanOperatorPlus    = "operator_plus"
	PlanPromoRestaurant = "promo_restaurant"
	PlanPromoTour       = "promo_tour"
)

var ErrPriceNotConfigured = errors.New("no provider price configured for plan")

// PriceTable maps internal plan keys to provider-side price identifiers.
type PriceTable map[string]string

// PriceTableFromEnv loads the static plan->price mapping. Missing entries are
// tolerated at startup and only fail when a checkout actually needs them.
func PriceTableFromEnv() PriceTable {
	return PriceTable{
		PlanRestaurantBasic: env.GetEnv("STRIPE_PRICE_RESTAURANT_BASIC", ""),
		PlanRestaurantPlus:  env.GetEnv("STRIPE_PRICE_RESTAURANT_PLUS", ""),
		PlanOperatorBasic:   env.GetEnv("STRIPE_PRICE_OPERATOR_BASIC", ""),
		PlanOperatorPlus:    env.GetEnv("STRIPE_PRICE_OPERATOR_PLUS", ""),
		PlanPromoRestaurant: env.GetEnv("STRIPE_PRICE_PROMO_RESTAURANT", ""),
		PlanPromoTour:       env.GetEnv("STRIPE_PRICE_PROMO_TOUR", ""),
	}
}

// PriceFor resolves a plan key to its provider price id. An unmapped plan is
// a configuration error, not user input.
func (p PriceTable) PriceFor(planKey string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(planKey))
	priceID := strings.TrimSpace(p[key])
	if priceID == "" {
		return "", fmt.Errorf("%w: %s", ErrPriceNotConfigured, key)
	}
	return priceID, nil
}

// isProviderActiveStatus reports whether a provider subscription status means
// the customer is entitled right now.
func isProviderActiveStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return true
	default:
		return false
	}
}

// isProviderCanceledStatus reports statuses that definitively end a
// subscription. Ambiguous states (incomplete, past_due, paused) are neither
// active nor canceled here; the sweep leaves those records untouched.
func isProviderCanceledStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "canceled", "unpaid", "incomplete_expired":
		return true
	default:
		return false
	}
}
