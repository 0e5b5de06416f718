package controllers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tabletour/tabletour/internal/pkg/billing"
)

const (
	sweepLockName = "reconcile-sweep"
	sweepLockTTL  = 10 * time.Minute
	sweepTimeout  = 5 * time.Minute
)

// ReconcileService is the slice of the billing service the trigger endpoint
// needs.
type ReconcileService interface {
	ReconcileAll(ctx context.Context) (*billing.SweepResult, error)
}

// SweepLock guards against overlapping sweep invocations (a slow sweep plus
// the next scheduled trigger). Overlap would be wasteful, not incorrect.
type SweepLock interface {
	Acquire(name string, ttl time.Duration) (bool, error)
	Release(name string) error
}

type ReconcileController struct {
	svc  ReconcileService
	lock SweepLock
}

func NewReconcileController(svc ReconcileService, lock SweepLock) *ReconcileController {
	return &ReconcileController{svc: svc, lock: lock}
}

// HandleReconcileSubscriptions runs one reconciliation sweep. Authentication
// happens in middleware.InternalAuth before this handler is reached.
func (rc *ReconcileController) HandleReconcileSubscriptions(c *fiber.Ctx) error {
	if rc.lock != nil {
		acquired, err := rc.lock.Acquire(sweepLockName, sweepLockTTL)
		if err != nil {
			// The lock is best-effort; an unreachable Redis must not block
			// the sweep itself.
			log.Printf("reconcile: sweep lock unavailable, proceeding unguarded: %v", err)
		} else if !acquired {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"error":   "reconciliation already running",
			})
		} else {
			defer func() {
				if releaseErr := rc.lock.Release(sweepLockName); releaseErr != nil {
					log.Printf("reconcile: failed to release sweep lock: %v", releaseErr)
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	results, err := rc.svc.ReconcileAll(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
			"results": results,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":   true,
		"message":   "Reconciliation completed",
		"results":   results,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
