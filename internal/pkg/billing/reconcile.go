package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tabletour/tabletour/app/models"
)

// providerQueryTimeout bounds each per-record provider query so one
// unresponsive call cannot stall the whole sweep.
const providerQueryTimeout = 15 * time.Second

// ReconcileAll scans every kind for records in pending or active state,
// queries the payment provider for ground truth and corrects local status
// drift. It is idempotent and safe to run concurrently with user-triggered
// flows: every correction is a conditional single-row update that only
// applies while the record still has the status the sweep observed.
//
// Per-record and per-kind failures are accumulated into the result; an error
// return happens only when the store is unreachable before any kind scan
// begins, and the partial result accompanies it.
func (s *Service) ReconcileAll(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{Errors: []string{}}

	if err := s.store.Ping(); err != nil {
		return result, fmt.Errorf("resource store unreachable: %w", err)
	}

	for _, kind := range allKinds() {
		s.reconcileKind(ctx, kind, result)
	}

	log.Printf("billing: reconciliation sweep done (checked=%d fixed=%d errors=%d)", result.Checked, result.Fixed, len(result.Errors))
	return result, nil
}

// reconcileKind scans one kind. A scan failure abandons this kind only; the
// caller proceeds with the remaining kinds.
func (s *Service) reconcileKind(ctx context.Context, kind Kind, result *SweepResult) {
	records, err := s.store.FindLive(kind)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: list live records: %v", kind, err))
		return
	}
	result.Checked += len(records)

	for i := range records {
		s.reconcileRecord(ctx, &records[i], result)
	}
}

func (s *Service) reconcileRecord(ctx context.Context, rec *Record, result *SweepResult) {
	// No external id means checkout never completed; only the webhook path
	// may ever activate this record.
	if rec.ExternalSubscriptionID == "" {
		return
	}

	qctx, cancel := context.WithTimeout(ctx, providerQueryTimeout)
	sub, err := s.provider.GetSubscription(qctx, rec.ExternalSubscriptionID)
	cancel()

	if errors.Is(err, ErrSubscriptionNotFound) {
		// Irrecoverable drift: the provider no longer knows about a
		// subscription the local store still considers live.
		s.applyTransition(rec, models.BillingStatusCancelled, "missing at provider", result)
		return
	}
	if err != nil {
		// Transient failures must never cause a state transition.
		result.Errors = append(result.Errors, fmt.Sprintf("%s record %d: provider query: %v", rec.Kind, rec.ID, err))
		return
	}

	switch {
	case isProviderActiveStatus(sub.Status) && rec.Status != models.BillingStatusActive:
		s.applyTransition(rec, models.BillingStatusActive, "provider reports "+sub.Status, result)
	case isProviderCanceledStatus(sub.Status) && rec.Status == models.BillingStatusActive:
		s.applyTransition(rec, models.BillingStatusCancelled, "provider reports "+sub.Status, result)
	default:
		// States agree, or the provider status is ambiguous; doing nothing
		// beats a wrong transition.
	}
}

// applyTransition performs the conditional update for one record and records
// the outcome. A lost conditional update (row changed under us) is not an
// error: whoever changed the row owns its new state.
func (s *Service) applyTransition(rec *Record, newStatus, reason string, result *SweepResult) {
	spec := kindSpecs[rec.Kind]

	fields := map[string]any{"status": newStatus}
	if newStatus == models.BillingStatusCancelled && spec.tracksCancelledAt {
		fields["cancelled_at"] = time.Now()
	}

	ok, err := s.store.UpdateFields(rec.Kind, rec.ID, rec.Status, fields)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s record %d: update %s -> %s: %v", rec.Kind, rec.ID, rec.Status, newStatus, err))
		return
	}
	if !ok {
		log.Printf("billing: %s record %d changed concurrently, skipping %s -> %s", rec.Kind, rec.ID, rec.Status, newStatus)
		return
	}

	result.Fixed++
	log.Printf("billing: %s record %d %s -> %s (%s)", rec.Kind, rec.ID, rec.Status, newStatus, reason)
}
