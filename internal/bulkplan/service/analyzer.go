package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	"github.com/openjustice/prisonalerts/internal/storage"
)

// Classification says what executing the plan would do to one person's alert.
type Classification string

const (
	ClassificationCreate   Classification = "CREATE"
	ClassificationUpdate   Classification = "UPDATE"
	ClassificationNoChange Classification = "NO_CHANGE"
)

// PlanImpact is the predicted outcome of executing a plan now.
type PlanImpact struct {
	// ExistingAlerts are the active alerts of the plan's code already held by
	// targeted people.
	ExistingAlerts []storage.Alert
	// ToBeCreated lists targeted prison numbers with no active alert.
	ToBeCreated []string
	// ToBeUpdated lists existing alerts whose state differs from the plan's.
	ToBeUpdated []storage.Alert
	// ToBeExpired lists active alerts held outside the target population that
	// the expiring cleanup mode would end. Empty under KEEP_ALL.
	ToBeExpired []storage.Alert

	Counts domain.PlanCounts
}

// Prisoners resolves the plan's target population to person summaries,
// ordered by prison number.
func (s *Service) Prisoners(ctx context.Context, planID string) ([]storage.PersonSummary, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	summaries := make([]storage.PersonSummary, 0, len(plan.People))
	for _, prisonNumber := range plan.People {
		summary, err := s.persons.GetPersonSummary(ctx, prisonNumber)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// The person was known when added; fall back to the bare number.
				summaries = append(summaries, storage.PersonSummary{PrisonNumber: prisonNumber})
				continue
			}
			return nil, fmt.Errorf("resolve person %s: %w", prisonNumber, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Affects previews what executing the plan now would do, without mutating
// anything. The preview classifies every targeted person and, under the
// expiring cleanup mode, every non-targeted holder of an active alert.
func (s *Service) Affects(ctx context.Context, planID string) (PlanImpact, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return PlanImpact{}, err
	}
	if plan.AlertCode == "" {
		return PlanImpact{}, domain.ErrAlertCodeRequired
	}
	return s.classifyPlan(ctx, plan, s.clock().UTC())
}

// classifyPlan computes the impact of the plan as of the reference time. The
// engine uses the same classification during execution, so a preview taken at
// the start instant predicts the run exactly.
func (s *Service) classifyPlan(ctx context.Context, plan domain.BulkPlan, asOf time.Time) (PlanImpact, error) {
	var impact PlanImpact
	for _, prisonNumber := range plan.People {
		existing, err := s.alerts.FindActiveAlert(ctx, prisonNumber, plan.AlertCode, asOf)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				impact.Counts.Created++
				impact.ToBeCreated = append(impact.ToBeCreated, prisonNumber)
				continue
			}
			return PlanImpact{}, fmt.Errorf("find active alert for %s: %w", prisonNumber, err)
		}
		impact.ExistingAlerts = append(impact.ExistingAlerts, existing)
		if needsUpdate(existing, plan) {
			impact.Counts.Updated++
			impact.ToBeUpdated = append(impact.ToBeUpdated, existing)
		} else {
			impact.Counts.Unchanged++
		}
	}

	if plan.CleanupMode == domain.CleanupExpireUnspecified {
		active, err := s.alerts.ListActiveAlertsByCode(ctx, plan.AlertCode, asOf)
		if err != nil {
			return PlanImpact{}, fmt.Errorf("list active alerts for %s: %w", plan.AlertCode, err)
		}
		for _, alert := range active {
			if plan.ContainsPerson(alert.PrisonNumber) {
				continue
			}
			impact.Counts.Expired++
			impact.ToBeExpired = append(impact.ToBeExpired, alert)
		}
	}
	return impact, nil
}

// needsUpdate reports whether an existing active alert differs from the state
// the plan declares: the description must match and the alert must be
// open-ended. An end-dated alert is rewritten even when still active, so the
// plan's intent of an indefinite alert holds.
func needsUpdate(alert storage.Alert, plan domain.BulkPlan) bool {
	return alert.Description != plan.Description || alert.ActiveTo != nil
}
