package domain

import (
	"sort"
	"strings"
)

// Action is one typed mutation of an unstarted plan. The set of variants is
// closed: each carries its own apply method, and the unexported method keeps
// external packages from adding variants.
type Action interface {
	apply(plan *BulkPlan) error
}

// SetAlertCode replaces the plan's alert code. Existence of the code in
// reference data is validated by the editor before the action is applied.
type SetAlertCode struct {
	Code string
}

func (a SetAlertCode) apply(plan *BulkPlan) error {
	code := strings.TrimSpace(a.Code)
	if code == "" {
		return ErrAlertCodeRequired
	}
	plan.AlertCode = code
	return nil
}

// SetDescription replaces the plan's description.
type SetDescription struct {
	Text string
}

func (a SetDescription) apply(plan *BulkPlan) error {
	text := strings.TrimSpace(a.Text)
	if len(text) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	plan.Description = text
	return nil
}

// SetCleanupMode replaces the plan's cleanup mode.
type SetCleanupMode struct {
	Mode CleanupMode
}

func (a SetCleanupMode) apply(plan *BulkPlan) error {
	if !a.Mode.Valid() {
		return ErrInvalidCleanupMode
	}
	plan.CleanupMode = a.Mode
	return nil
}

// AddPrisonNumbers adds prison numbers to the target population. The editor
// resolves each number against the person summary store before applying.
type AddPrisonNumbers struct {
	PrisonNumbers []string
}

func (a AddPrisonNumbers) apply(plan *BulkPlan) error {
	additions := normalizePrisonNumbers(a.PrisonNumbers)
	if len(additions) == 0 {
		return ErrEmptyPrisonNumberSet
	}
	merged := append([]string{}, plan.People...)
	merged = append(merged, additions...)
	plan.People = normalizePrisonNumbers(merged)
	return nil
}

// RemovePrisonNumbers removes prison numbers from the target population.
// Numbers not present in the population are ignored.
type RemovePrisonNumbers struct {
	PrisonNumbers []string
}

func (a RemovePrisonNumbers) apply(plan *BulkPlan) error {
	removals := normalizePrisonNumbers(a.PrisonNumbers)
	if len(removals) == 0 {
		return ErrEmptyPrisonNumberSet
	}
	drop := make(map[string]bool, len(removals))
	for _, prisonNumber := range removals {
		drop[prisonNumber] = true
	}
	var kept []string
	for _, prisonNumber := range plan.People {
		if !drop[prisonNumber] {
			kept = append(kept, prisonNumber)
		}
	}
	sort.Strings(kept)
	plan.People = kept
	return nil
}

// Apply folds actions into the plan in order. Started plans reject every
// mutation. A failing action leaves the plan unmodified.
func Apply(plan *BulkPlan, actions ...Action) error {
	if plan.Started() {
		return ErrPlanAlreadyStarted
	}
	updated := *plan
	updated.People = append([]string{}, plan.People...)
	for _, action := range actions {
		if err := action.apply(&updated); err != nil {
			return err
		}
	}
	*plan = updated
	return nil
}
