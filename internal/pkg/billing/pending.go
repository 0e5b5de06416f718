package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tabletour/tabletour/app/models"
	"gorm.io/gorm"
)

var (
	// ErrAlreadyActive rejects a purchase attempt for a tuple that already
	// has a confirmed subscription or promotion.
	ErrAlreadyActive = errors.New("target already has an active subscription or promotion")

	// ErrConcurrentUpdate surfaces a lost conditional update: the record
	// changed status between lookup and write.
	ErrConcurrentUpdate = errors.New("billing record was modified concurrently")
)

// EnsurePending guarantees exactly one live record in pending state for the
// request's (kind, owner, target) tuple and returns its id for checkout
// metadata correlation. It performs at most one store write and never calls
// the payment provider. An abandoned pending record is reused in place and a
// cancelled or expired one is revived, so retried checkouts cannot duplicate
// rows.
func (s *Service) EnsurePending(ctx context.Context, req PendingRequest) (uint, error) {
	_ = ctx
	if _, err := specFor(req.Kind); err != nil {
		return 0, err
	}
	if req.OwnerRef == 0 || req.TargetRef == 0 {
		return 0, errors.New("owner_ref and target_ref are required")
	}

	// An active record wins outright; nothing to request.
	_, err := s.store.FindByTuple(req.Kind, req.OwnerRef, req.TargetRef, []string{models.BillingStatusActive})
	if err == nil {
		return 0, ErrAlreadyActive
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("lookup active record: %w", err)
	}

	now := time.Now()

	// Reuse an abandoned pending record for the same tuple.
	rec, err := s.store.FindByTuple(req.Kind, req.OwnerRef, req.TargetRef, []string{models.BillingStatusPending})
	if err == nil {
		ok, updErr := s.store.UpdateFields(req.Kind, rec.ID, models.BillingStatusPending, resetFields(req, now))
		if updErr != nil {
			return 0, fmt.Errorf("reuse pending record %d: %w", rec.ID, updErr)
		}
		if !ok {
			return 0, ErrConcurrentUpdate
		}
		log.Printf("billing: %s record %d reused as pending (owner=%d target=%d)", req.Kind, rec.ID, req.OwnerRef, req.TargetRef)
		return rec.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("lookup pending record: %w", err)
	}

	// Revive a previously cancelled or expired record (re-promotion path).
	rec, err = s.store.FindByTuple(req.Kind, req.OwnerRef, req.TargetRef, []string{models.BillingStatusCancelled, models.BillingStatusExpired})
	if err == nil {
		fields := resetFields(req, now)
		fields["status"] = models.BillingStatusPending
		ok, updErr := s.store.UpdateFields(req.Kind, rec.ID, rec.Status, fields)
		if updErr != nil {
			return 0, fmt.Errorf("revive record %d: %w", rec.ID, updErr)
		}
		if !ok {
			return 0, ErrConcurrentUpdate
		}
		log.Printf("billing: %s record %d revived %s -> pending (owner=%d target=%d)", req.Kind, rec.ID, rec.Status, req.OwnerRef, req.TargetRef)
		return rec.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("lookup revivable record: %w", err)
	}

	// First request for this tuple.
	fields := resetFields(req, now)
	fields["status"] = models.BillingStatusPending
	id, err := s.store.Insert(req.Kind, req.OwnerRef, req.TargetRef, fields)
	if err != nil {
		return 0, fmt.Errorf("insert pending record: %w", err)
	}
	log.Printf("billing: %s record %d created as pending (owner=%d target=%d)", req.Kind, id, req.OwnerRef, req.TargetRef)
	return id, nil
}

// resetFields clears any residue from an earlier checkout cycle and stamps a
// fresh request time. The caller adds "status" where the transition needs it.
func resetFields(req PendingRequest, now time.Time) map[string]any {
	fields := map[string]any{
		"external_subscription_id": "",
		"requested_at":             now,
		"start_date":               nil,
		"end_date":                 nil,
		"cancelled_at":             nil,
	}
	for k, v := range req.Payload {
		fields[k] = v
	}
	return fields
}
