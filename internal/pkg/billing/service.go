package billing

import (
	"gorm.io/gorm"
)

// Service ties the resource store, the payment provider client and the price
// table together: the pending-record writer, the checkout session builder and
// the reconciliation sweep are all methods on it.
type Service struct {
	store    Store
	provider ProviderClient
	prices   PriceTable
}

// NewService creates a billing service from injected collaborators.
func NewService(store Store, provider ProviderClient, prices PriceTable) *Service {
	return &Service{store: store, provider: provider, prices: prices}
}

// NewServiceFromDB creates a billing service from a GORM DB handle with the
// provider client and price table read from the environment.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewStore(db), NewStripeClientFromEnv(), PriceTableFromEnv())
}
