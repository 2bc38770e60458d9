package service

import (
	"context"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	"github.com/openjustice/prisonalerts/internal/events"
	"github.com/openjustice/prisonalerts/internal/storage"
)

// ResendEvents re-publishes every domain event of a completed plan run,
// rebuilt from the alert audit trail rather than any in-memory state. The
// plan must have completed; the replay itself runs in the background.
// Resending is repeat-safe: each invocation emits the same multiset of
// events, which downstream consumers de-duplicate.
func (s *Service) ResendEvents(ctx context.Context, planID string) error {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return err
	}
	if !plan.Completed() || plan.StartedAt == nil {
		return domain.ErrPlanNotCompleted
	}

	runCtx := context.WithoutCancel(ctx)
	s.run(func() { s.replayEvents(runCtx, plan) })
	return nil
}

// replayEvents reads the audit entries the run wrote, identified by the
// system actor and the plan's exact started timestamp, and publishes one
// event per entry plus one person-level event per distinct person touched.
func (s *Service) replayEvents(ctx context.Context, plan domain.BulkPlan) {
	trail, err := s.alerts.FindAuditEvents(ctx, domain.SystemActor, *plan.StartedAt)
	if err != nil {
		s.logf("bulk plan %s: resend aborted, audit lookup failed: %v", plan.ID, err)
		return
	}

	var touched []string
	sources := make(map[string]string)
	for _, entry := range trail {
		s.publish(ctx, events.Event{
			Type:         eventTypeForAudit(entry.Action),
			AlertID:      entry.AlertID,
			AlertCode:    entry.AlertCode,
			PrisonNumber: entry.PrisonNumber,
			Source:       entry.Source,
			OccurredAt:   entry.OccurredAt,
		})
		if _, ok := sources[entry.PrisonNumber]; !ok {
			sources[entry.PrisonNumber] = entry.Source
			touched = append(touched, entry.PrisonNumber)
		}
	}
	for _, prisonNumber := range touched {
		s.publish(ctx, events.Event{
			Type:         events.TypePersonAlertsChanged,
			PrisonNumber: prisonNumber,
			Source:       sources[prisonNumber],
			OccurredAt:   *plan.StartedAt,
		})
	}
	s.logf("bulk plan %s: resent %d alert events for %d people", plan.ID, len(trail), len(touched))
}

func eventTypeForAudit(action storage.AuditAction) events.Type {
	switch action {
	case storage.AuditCreated:
		return events.TypeAlertCreated
	case storage.AuditUpdated:
		return events.TypeAlertUpdated
	case storage.AuditInactive:
		return events.TypeAlertInactive
	}
	return ""
}
