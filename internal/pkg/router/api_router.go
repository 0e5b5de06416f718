package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/tabletour/tabletour/app/controllers"
	"github.com/tabletour/tabletour/internal/pkg/billing"
	"github.com/tabletour/tabletour/internal/pkg/database"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())

	// API v1 routes
	v1 := api.Group("/v1")

	svc := billing.NewServiceFromDB(database.GetDB())
	checkout := controllers.NewCheckoutController(svc, controllers.CheckoutConfigFromEnv())
	v1.Post("/checkout/sessions", checkout.HandleCreateCheckoutSession)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
