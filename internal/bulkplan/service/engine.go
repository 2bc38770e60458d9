package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	"github.com/openjustice/prisonalerts/internal/events"
	perrors "github.com/openjustice/prisonalerts/internal/platform/errors"
	"github.com/openjustice/prisonalerts/internal/platform/requestctx"
	"github.com/openjustice/prisonalerts/internal/storage"
)

// StartPlan accepts a plan for execution. The started stamp is written with a
// conditional update, so of any number of concurrent starts exactly one wins;
// the rest get ErrPlanAlreadyStarted and cause no mutations. The winning call
// returns as soon as the stamp is durable and the run itself proceeds in the
// background.
//
// The started timestamp is truncated to millisecond precision before it is
// stamped: the audit trail stores milliseconds, and event resend finds a
// run's audit entries by exact timestamp match.
func (s *Service) StartPlan(ctx context.Context, planID string, batchSize int) (domain.BulkPlan, error) {
	if batchSize < domain.MinBatchSize || batchSize > domain.MaxBatchSize {
		return domain.BulkPlan{}, perrors.WithMetadata(perrors.CodeBatchSizeOutOfRange,
			"batch size must be between 1 and 1000",
			map[string]string{"batchSize": strconv.Itoa(batchSize)})
	}

	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return domain.BulkPlan{}, err
	}
	if plan.AlertCode == "" {
		return domain.BulkPlan{}, domain.ErrAlertCodeRequired
	}

	caller := requestctx.CallerFromContext(ctx)
	startedAt := s.clock().UTC().Truncate(time.Millisecond)
	if err := s.plans.MarkPlanStarted(ctx, planID, startedAt, caller.Username, caller.DisplayName); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyStarted):
			return domain.BulkPlan{}, domain.ErrPlanAlreadyStarted
		case errors.Is(err, storage.ErrNotFound):
			return domain.BulkPlan{}, domain.ErrPlanNotFound
		}
		return domain.BulkPlan{}, fmt.Errorf("mark plan started: %w", err)
	}

	// Edits may legally commit between the load above and the stamp. The
	// stamp froze the mutable fields, so re-read and execute exactly the
	// state committed at start time, not the pre-gate snapshot.
	plan, err = s.loadPlan(ctx, planID)
	if err != nil {
		return domain.BulkPlan{}, err
	}

	runCtx := context.WithoutCancel(ctx)
	s.run(func() { s.executePlan(runCtx, plan, batchSize, caller.Source) })
	return plan, nil
}

// executePlan reconciles the alert records against the plan, one sequential
// batch of targets at a time, then runs cleanup and records completion. Any
// store failure aborts the run with the plan left incomplete; mutations
// already committed stand, and the audit trail makes them recoverable.
func (s *Service) executePlan(ctx context.Context, plan domain.BulkPlan, batchSize int, source string) {
	stamp := storage.AuditStamp{
		Actor:            domain.SystemActor,
		ActorDisplayName: domain.SystemActorDisplayName,
		Source:           source,
		OccurredAt:       *plan.StartedAt,
	}

	var counts domain.PlanCounts
	var touched []string
	seen := make(map[string]bool)
	touch := func(prisonNumber string) {
		if !seen[prisonNumber] {
			seen[prisonNumber] = true
			touched = append(touched, prisonNumber)
		}
	}

	for offset := 0; offset < len(plan.People); offset += batchSize {
		end := min(offset+batchSize, len(plan.People))
		for _, prisonNumber := range plan.People[offset:end] {
			outcome, err := s.reconcileTarget(ctx, plan, prisonNumber, stamp)
			if err != nil {
				s.logf("bulk plan %s: aborting run, target %s failed: %v", plan.ID, prisonNumber, err)
				return
			}
			switch outcome {
			case ClassificationCreate:
				counts.Created++
				touch(prisonNumber)
			case ClassificationUpdate:
				counts.Updated++
				touch(prisonNumber)
			case ClassificationNoChange:
				counts.Unchanged++
			}
		}
	}

	if plan.CleanupMode == domain.CleanupExpireUnspecified {
		expired, expiredPeople, err := s.expireUnspecified(ctx, plan, stamp)
		if err != nil {
			s.logf("bulk plan %s: aborting run, cleanup failed: %v", plan.ID, err)
			return
		}
		counts.Expired = expired
		for _, prisonNumber := range expiredPeople {
			touch(prisonNumber)
		}
	}

	for _, prisonNumber := range touched {
		s.publish(ctx, events.Event{
			Type:         events.TypePersonAlertsChanged,
			PrisonNumber: prisonNumber,
			Source:       source,
			OccurredAt:   stamp.OccurredAt,
		})
	}

	completedAt := s.clock().UTC().Truncate(time.Millisecond)
	if err := s.plans.CompletePlan(ctx, plan.ID, completedAt, counts); err != nil {
		s.logf("bulk plan %s: run finished but completion was not recorded: %v", plan.ID, err)
		return
	}
	s.logf("bulk plan %s: completed, created=%d updated=%d unchanged=%d expired=%d",
		plan.ID, counts.Created, counts.Updated, counts.Unchanged, counts.Expired)
}

// reconcileTarget brings one targeted person's alert in line with the plan
// and reports which classification applied.
func (s *Service) reconcileTarget(ctx context.Context, plan domain.BulkPlan, prisonNumber string, stamp storage.AuditStamp) (Classification, error) {
	existing, err := s.alerts.FindActiveAlert(ctx, prisonNumber, plan.AlertCode, stamp.OccurredAt)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("find active alert: %w", err)
		}
		alertID, err := s.newID()
		if err != nil {
			return "", fmt.Errorf("generate alert id: %w", err)
		}
		alert := storage.Alert{
			ID:           alertID,
			PrisonNumber: prisonNumber,
			AlertCode:    plan.AlertCode,
			Description:  plan.Description,
			ActiveFrom:   stamp.OccurredAt,
			CreatedAt:    stamp.OccurredAt,
			UpdatedAt:    stamp.OccurredAt,
		}
		if err := s.alerts.CreateAlert(ctx, alert, stamp); err != nil {
			return "", fmt.Errorf("create alert: %w", err)
		}
		s.publish(ctx, events.Event{
			Type:         events.TypeAlertCreated,
			AlertID:      alertID,
			AlertCode:    plan.AlertCode,
			PrisonNumber: prisonNumber,
			Source:       stamp.Source,
			OccurredAt:   stamp.OccurredAt,
		})
		return ClassificationCreate, nil
	}

	if !needsUpdate(existing, plan) {
		return ClassificationNoChange, nil
	}
	if err := s.alerts.UpdateAlert(ctx, existing.ID, plan.Description, stamp); err != nil {
		return "", fmt.Errorf("update alert: %w", err)
	}
	s.publish(ctx, events.Event{
		Type:         events.TypeAlertUpdated,
		AlertID:      existing.ID,
		AlertCode:    plan.AlertCode,
		PrisonNumber: prisonNumber,
		Source:       stamp.Source,
		OccurredAt:   stamp.OccurredAt,
	})
	return ClassificationUpdate, nil
}

// expireUnspecified expires every active alert of the plan's code held by a
// person outside the target population. Returns the expiry count and the
// prison numbers affected.
func (s *Service) expireUnspecified(ctx context.Context, plan domain.BulkPlan, stamp storage.AuditStamp) (int, []string, error) {
	active, err := s.alerts.ListActiveAlertsByCode(ctx, plan.AlertCode, stamp.OccurredAt)
	if err != nil {
		return 0, nil, fmt.Errorf("list active alerts: %w", err)
	}
	var expired int
	var people []string
	for _, alert := range active {
		if plan.ContainsPerson(alert.PrisonNumber) {
			continue
		}
		if err := s.alerts.ExpireAlert(ctx, alert.ID, stamp.OccurredAt, stamp); err != nil {
			return expired, people, fmt.Errorf("expire alert %s: %w", alert.ID, err)
		}
		expired++
		people = append(people, alert.PrisonNumber)
		s.publish(ctx, events.Event{
			Type:         events.TypeAlertInactive,
			AlertID:      alert.ID,
			AlertCode:    alert.AlertCode,
			PrisonNumber: alert.PrisonNumber,
			Source:       stamp.Source,
			OccurredAt:   stamp.OccurredAt,
		})
	}
	return expired, people, nil
}

// publish delivers one event, logging and moving on when delivery fails.
// Events are at-least-once: a lost event is recovered by resending the plan's
// events, never by rolling back the record change it describes.
func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logf("publish %s for %s failed: %v", event.Type, event.PrisonNumber, err)
	}
}
