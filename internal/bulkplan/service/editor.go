package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	perrors "github.com/openjustice/prisonalerts/internal/platform/errors"
	"github.com/openjustice/prisonalerts/internal/storage"
)

// CreatePlan creates a new empty bulk alert plan and returns it.
func (s *Service) CreatePlan(ctx context.Context) (domain.BulkPlan, error) {
	planID, err := s.newID()
	if err != nil {
		return domain.BulkPlan{}, fmt.Errorf("generate plan id: %w", err)
	}
	plan := domain.NewPlan(planID, s.clock())
	if err := s.plans.CreatePlan(ctx, plan); err != nil {
		return domain.BulkPlan{}, fmt.Errorf("create plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns the plan with the given id.
func (s *Service) GetPlan(ctx context.Context, planID string) (domain.BulkPlan, error) {
	return s.loadPlan(ctx, planID)
}

// UpdatePlan applies editing actions to an unstarted plan atomically: either
// every action lands or the plan is unchanged. Alert codes are checked against
// reference data and added prison numbers against known person summaries
// before anything is applied.
func (s *Service) UpdatePlan(ctx context.Context, planID string, actions ...domain.Action) (domain.BulkPlan, error) {
	plan, err := s.loadPlan(ctx, planID)
	if err != nil {
		return domain.BulkPlan{}, err
	}
	if plan.Started() {
		return domain.BulkPlan{}, domain.ErrPlanAlreadyStarted
	}

	for _, action := range actions {
		if err := s.validateAction(ctx, action); err != nil {
			return domain.BulkPlan{}, err
		}
	}

	if err := domain.Apply(&plan, actions...); err != nil {
		return domain.BulkPlan{}, err
	}
	plan.UpdatedAt = s.clock().UTC()

	if err := s.plans.UpdatePlan(ctx, plan); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyStarted):
			return domain.BulkPlan{}, domain.ErrPlanAlreadyStarted
		case errors.Is(err, storage.ErrNotFound):
			return domain.BulkPlan{}, domain.ErrPlanNotFound
		}
		return domain.BulkPlan{}, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

// validateAction resolves an action's references before it is applied.
func (s *Service) validateAction(ctx context.Context, action domain.Action) error {
	switch a := action.(type) {
	case domain.SetAlertCode:
		code := strings.TrimSpace(a.Code)
		if code == "" {
			return domain.ErrAlertCodeRequired
		}
		exists, err := s.alertCodes.AlertCodeExists(ctx, code)
		if err != nil {
			return perrors.Wrap(perrors.CodeDownstreamFailure, "alert code lookup failed", err)
		}
		if !exists {
			return perrors.WithMetadata(perrors.CodeAlertCodeNotFound,
				"alert code not found in reference data",
				map[string]string{"alertCode": code})
		}
	case domain.AddPrisonNumbers:
		for _, raw := range a.PrisonNumbers {
			prisonNumber := strings.ToUpper(strings.TrimSpace(raw))
			if prisonNumber == "" {
				continue
			}
			if _, err := s.persons.GetPersonSummary(ctx, prisonNumber); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return perrors.WithMetadata(perrors.CodePrisonerNotFound,
						"prisoner not found",
						map[string]string{"prisonNumber": prisonNumber})
				}
				return perrors.Wrap(perrors.CodeDownstreamFailure, "person summary lookup failed", err)
			}
		}
	}
	return nil
}
