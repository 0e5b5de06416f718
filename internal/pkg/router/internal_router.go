package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tabletour/tabletour/app/controllers"
	"github.com/tabletour/tabletour/internal/pkg/billing"
	"github.com/tabletour/tabletour/internal/pkg/cache"
	"github.com/tabletour/tabletour/internal/pkg/database"
	"github.com/tabletour/tabletour/internal/pkg/env"
	"github.com/tabletour/tabletour/internal/pkg/middleware"
)

// InternalRouter wires the operator-facing endpoints hit by the external
// scheduler, guarded by a shared secret captured at install time.
type InternalRouter struct {
}

func (h InternalRouter) InstallRouter(app *fiber.App) {
	internal := app.Group("/internal", middleware.InternalAuth(env.GetEnv("RECONCILE_API_KEY", "")))

	svc := billing.NewServiceFromDB(database.GetDB())
	reconcile := controllers.NewReconcileController(svc, cache.NewSweepLock())
	internal.Get("/reconcile-subscriptions", reconcile.HandleReconcileSubscriptions)
}

func NewInternalRouter() *InternalRouter {
	return &InternalRouter{}
}
