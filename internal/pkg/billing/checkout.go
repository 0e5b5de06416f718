package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"
)

// CheckoutInput carries everything the session builder needs: the customer
// identity and the pending records (one base plan, zero or more promotion
// add-ons) created by EnsurePending beforehand.
type CheckoutInput struct {
	UserID     uint
	Email      string
	Name       string
	Items      []CheckoutItem
	SuccessURL string
	CancelURL  string
}

// CreateCheckoutSession resolves or creates the provider-side customer,
// assembles one line item per plan and requests a checkout session with the
// pending-record ids embedded as metadata. It returns the provider redirect
// URL and mutates no billing resource record.
func (s *Service) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (string, error) {
	if in.UserID == 0 {
		return "", errors.New("user_id is required")
	}
	if len(in.Items) == 0 {
		return "", errors.New("at least one checkout item is required")
	}

	customerID, err := s.resolveCustomer(ctx, in.UserID, in.Email, in.Name)
	if err != nil {
		return "", err
	}

	lineItems := make([]LineItem, 0, len(in.Items))
	metadata := map[string]string{
		"user_id": fmt.Sprintf("%d", in.UserID),
	}
	for i, item := range in.Items {
		priceID, err := s.prices.PriceFor(item.PlanKey)
		if err != nil {
			return "", err
		}
		lineItems = append(lineItems, LineItem{PriceID: priceID, Quantity: 1})
		metadata[fmt.Sprintf("record_%d", i)] = fmt.Sprintf("%s:%d", item.Kind, item.RecordID)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionParams{
		CustomerID: customerID,
		LineItems:  lineItems,
		Metadata:   metadata,
		SuccessURL: in.SuccessURL,
		CancelURL:  in.CancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	log.Printf("billing: checkout session %s created for user %d (%d line items)", session.ID, in.UserID, len(lineItems))
	return session.URL, nil
}

// resolveCustomer reuses the stored provider customer id when the provider
// still knows it, and recreates the customer when the stored id is stale
// (deleted at the provider, or never valid). The fresh id is persisted before
// the checkout session is requested.
func (s *Service) resolveCustomer(ctx context.Context, userID uint, email, name string) (string, error) {
	stored, err := s.store.GetCustomerID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("lookup billing customer: %w", err)
	}

	if strings.TrimSpace(stored) != "" {
		customer, err := s.provider.GetCustomer(ctx, stored)
		if err == nil {
			return customer.ID, nil
		}
		if !errors.Is(err, ErrCustomerNotFound) {
			return "", fmt.Errorf("verify billing customer %s: %w", stored, err)
		}
		log.Printf("billing: stored customer %s for user %d is stale, recreating", stored, userID)
	}

	customer, err := s.provider.CreateCustomer(ctx, email, name)
	if err != nil {
		return "", fmt.Errorf("create billing customer: %w", err)
	}
	if err := s.store.SaveCustomerID(userID, customer.ID, email); err != nil {
		return "", fmt.Errorf("persist billing customer %s: %w", customer.ID, err)
	}
	return customer.ID, nil
}
