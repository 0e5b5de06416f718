package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/tabletour/tabletour/app/models"
	"github.com/tabletour/tabletour/internal/pkg/billing"
	"github.com/tabletour/tabletour/internal/pkg/database"
	"github.com/tabletour/tabletour/internal/pkg/env"
	"gorm.io/gorm"
)

// CheckoutService is the slice of the billing service the purchase flow
// needs: the pending-record writer and the checkout session builder.
type CheckoutService interface {
	EnsurePending(ctx context.Context, req billing.PendingRequest) (uint, error)
	CreateCheckoutSession(ctx context.Context, in billing.CheckoutInput) (string, error)
}

// CheckoutConfig carries the provider redirect targets, resolved once at
// startup.
type CheckoutConfig struct {
	SuccessURL string
	CancelURL  string
}

func CheckoutConfigFromEnv() CheckoutConfig {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	return CheckoutConfig{
		SuccessURL: env.GetEnv("CHECKOUT_SUCCESS_URL", base+"/billing/success"),
		CancelURL:  env.GetEnv("CHECKOUT_CANCEL_URL", base+"/billing/cancelled"),
	}
}

type CheckoutController struct {
	svc CheckoutService
	cfg CheckoutConfig
}

func NewCheckoutController(svc CheckoutService, cfg CheckoutConfig) *CheckoutController {
	return &CheckoutController{svc: svc, cfg: cfg}
}

type checkoutItemRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=restaurant_subscription tour_operator_subscription promoted_restaurant promoted_tour"`
	OwnerRef    uint   `json:"owner_ref" validate:"required"`
	TargetRef   uint   `json:"target_ref" validate:"required"`
	PlanKey     string `json:"plan_key" validate:"required,max=50"`
	DisplayName string `json:"display_name" validate:"max=150"`
	Destination string `json:"destination" validate:"max=150"`
}

type checkoutRequest struct {
	UserID uint                  `json:"user_id" validate:"required"`
	Items  []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleCreateCheckoutSession drives the purchase flow: one pending record
// per requested item first, then a provider checkout session with the record
// ids as metadata. Writer failure aborts the request before any provider
// call, so no checkout session can exist for an unrecorded intent.
func (cc *CheckoutController) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Malformed JSON body"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	}

	db := database.GetDB()
	var user models.User
	if err := db.First(&user, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Unknown user"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "User lookup failed"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items := make([]billing.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		kind := billing.Kind(item.Kind)
		recordID, err := cc.svc.EnsurePending(ctx, billing.PendingRequest{
			Kind:      kind,
			OwnerRef:  item.OwnerRef,
			TargetRef: item.TargetRef,
			Payload:   payloadForItem(db, kind, item),
		})
		if err != nil {
			if errors.Is(err, billing.ErrAlreadyActive) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_active", "message": "This target already has an active subscription or promotion"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "pending_record_failed", "message": "Could not record the purchase intent"})
		}
		items = append(items, billing.CheckoutItem{Kind: kind, RecordID: recordID, PlanKey: item.PlanKey})
	}

	url, err := cc.svc.CreateCheckoutSession(ctx, billing.CheckoutInput{
		UserID:     user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Items:      items,
		SuccessURL: cc.cfg.SuccessURL,
		CancelURL:  cc.cfg.CancelURL,
	})
	if err != nil {
		if errors.Is(err, billing.ErrPriceNotConfigured) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "configuration_error", "message": "A requested plan has no configured price"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "checkout_failed", "message": "Could not create a checkout session"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"checkout_url": url})
}

// payloadForItem builds the kind-specific descriptive columns stored on the
// pending record. Display names fall back to the catalog entry for the
// target so created records stay queryable without a join.
func payloadForItem(db *gorm.DB, kind billing.Kind, item checkoutItemRequest) map[string]any {
	displayName := strings.TrimSpace(item.DisplayName)
	if displayName == "" && db != nil {
		displayName = lookupDisplayName(db, kind, item.TargetRef)
	}

	switch kind {
	case billing.KindRestaurantSubscription, billing.KindTourOperatorSubscription:
		return map[string]any{
			"plan_tier":    strings.TrimSpace(item.PlanKey),
			"display_name": displayName,
		}
	default:
		return map[string]any{
			"destination":  strings.TrimSpace(item.Destination),
			"display_name": displayName,
		}
	}
}

func lookupDisplayName(db *gorm.DB, kind billing.Kind, targetRef uint) string {
	switch kind {
	case billing.KindRestaurantSubscription, billing.KindPromotedRestaurant:
		var restaurant models.Restaurant
		if err := db.First(&restaurant, targetRef).Error; err == nil {
			return restaurant.Name
		}
	case billing.KindTourOperatorSubscription:
		var operator models.TourOperator
		if err := db.First(&operator, targetRef).Error; err == nil {
			return operator.Name
		}
	case billing.KindPromotedTour:
		var tour models.Tour
		if err := db.First(&tour, targetRef).Error; err == nil {
			return tour.Name
		}
	}
	return ""
}
