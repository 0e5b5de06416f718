package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrices() PriceTable {
	return PriceTable{
		PlanRestaurantBasic: "price_rb",
		PlanOperatorPlus:    "price_op",
		PlanPromoTour:       "price_pt",
	}
}

func TestCreateCheckoutSessionBuildsLineItemsAndMetadata(t *testing.T) {
	store := newMemStore()
	store.customers[42] = "cus_known"
	provider := newFakeProvider()
	provider.customers["cus_known"] = &ProviderCustomer{ID: "cus_known", Email: "owner@example.com"}
	svc := NewService(store, provider, testPrices())

	url, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
		UserID: 42,
		Email:  "owner@example.com",
		Items: []CheckoutItem{
			{Kind: KindRestaurantSubscription, RecordID: 11, PlanKey: PlanRestaurantBasic},
			{Kind: KindPromotedTour, RecordID: 12, PlanKey: PlanPromoTour},
		},
		SuccessURL: "https://tabletour.example.com/billing/success",
		CancelURL:  "https://tabletour.example.com/billing/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/c/session", url)

	require.Len(t, provider.sessions, 1)
	params := provider.sessions[0]
	assert.Equal(t, "cus_known", params.CustomerID)
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, LineItem{PriceID: "price_rb", Quantity: 1}, params.LineItems[0])
	assert.Equal(t, LineItem{PriceID: "price_pt", Quantity: 1}, params.LineItems[1])
	assert.Equal(t, "42", params.Metadata["user_id"])
	assert.Equal(t, "restaurant_subscription:11", params.Metadata["record_0"])
	assert.Equal(t, "promoted_tour:12", params.Metadata["record_1"])
	assert.Equal(t, "https://tabletour.example.com/billing/success", params.SuccessURL)

	assert.Zero(t, provider.createdCustomers, "a verified stored customer must be reused")
}

func TestCreateCheckoutSessionCreatesCustomerWhenNoneStored(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := NewService(store, provider, testPrices())

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
		UserID: 9,
		Email:  "new@example.com",
		Name:   "New Owner",
		Items:  []CheckoutItem{{Kind: KindTourOperatorSubscription, RecordID: 5, PlanKey: PlanOperatorPlus}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.createdCustomers)
	assert.Equal(t, "cus_new_1", store.customers[9], "the fresh customer id must be persisted")
	require.Len(t, provider.sessions, 1)
	assert.Equal(t, "cus_new_1", provider.sessions[0].CustomerID)
}

func TestCreateCheckoutSessionRecreatesStaleCustomer(t *testing.T) {
	store := newMemStore()
	store.customers[9] = "cus_deleted"
	provider := newFakeProvider()
	svc := NewService(store, provider, testPrices())

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
		UserID: 9,
		Email:  "back@example.com",
		Items:  []CheckoutItem{{Kind: KindRestaurantSubscription, RecordID: 2, PlanKey: PlanRestaurantBasic}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, provider.createdCustomers)
	assert.Equal(t, "cus_new_1", store.customers[9], "the stale id must be replaced")
}

func TestCreateCheckoutSessionPropagatesTransientCustomerLookupError(t *testing.T) {
	store := newMemStore()
	store.customers[9] = "cus_known"
	provider := newFakeProvider()
	provider.customerLookupErr = errors.New("stripe GET /customers/cus_known failed: status=500 body=")
	svc := NewService(store, provider, testPrices())

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
		UserID: 9,
		Items:  []CheckoutItem{{Kind: KindRestaurantSubscription, RecordID: 2, PlanKey: PlanRestaurantBasic}},
	})
	require.Error(t, err)
	assert.Zero(t, provider.createdCustomers, "a transient verify failure must not recreate the customer")
	assert.Empty(t, provider.sessions)
}

func TestCreateCheckoutSessionFailsOnUnconfiguredPlan(t *testing.T) {
	store := newMemStore()
	provider := newFakeProvider()
	svc := NewService(store, provider, testPrices())

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{
		UserID: 9,
		Items:  []CheckoutItem{{Kind: KindPromotedRestaurant, RecordID: 3, PlanKey: PlanPromoRestaurant}},
	})
	assert.ErrorIs(t, err, ErrPriceNotConfigured)
	assert.Empty(t, provider.sessions)
}

func TestCreateCheckoutSessionValidatesInput(t *testing.T) {
	svc := NewService(newMemStore(), newFakeProvider(), testPrices())

	_, err := svc.CreateCheckoutSession(context.Background(), CheckoutInput{UserID: 0})
	assert.Error(t, err)

	_, err = svc.CreateCheckoutSession(context.Background(), CheckoutInput{UserID: 1})
	assert.Error(t, err)
}
