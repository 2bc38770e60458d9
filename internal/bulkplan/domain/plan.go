// Package domain models bulk alert plans: a declarative description of one
// alert code, a target population of prisoners, and a cleanup strategy,
// together with the recorded outcome of executing the plan.
package domain

import (
	"sort"
	"strings"
	"time"
)

// SystemActor is the fixed audit identity used for every alert mutation a
// bulk plan run performs. Resend recovers a run's effects by querying the
// alert audit trail for this actor at the plan's started-at timestamp, so the
// value must never change between a run and its replays.
const SystemActor = "BULK_ALERT_PLAN"

// SystemActorDisplayName is the human-readable form of SystemActor.
const SystemActorDisplayName = "Bulk alert plan"

// MaxDescriptionLength bounds the persisted plan description.
const MaxDescriptionLength = 4000

// Batch size bounds for plan execution.
const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

// CleanupMode selects what happens to active alerts of the plan's code held
// by people outside the target population.
type CleanupMode string

const (
	// CleanupKeepAll leaves alerts of non-targeted people untouched.
	CleanupKeepAll CleanupMode = "KEEP_ALL"
	// CleanupExpireUnspecified expires active alerts of the plan's code held
	// by any prison number not in the target population.
	CleanupExpireUnspecified CleanupMode = "EXPIRE_FOR_PRISON_NUMBERS_NOT_SPECIFIED"
)

// Valid reports whether the cleanup mode is a recognised value.
func (m CleanupMode) Valid() bool {
	return m == CleanupKeepAll || m == CleanupExpireUnspecified
}

// PlanCounts records the per-classification outcome of one completed run.
type PlanCounts struct {
	Created   int
	Updated   int
	Unchanged int
	Expired   int
}

// BulkPlan is one bulk alert plan record. A plan is mutable until StartedAt
// is set; from then on only the completion fields are ever written.
type BulkPlan struct {
	ID                   string
	AlertCode            string
	Description          string
	CleanupMode          CleanupMode
	People               []string
	StartedAt            *time.Time
	StartedBy            string
	StartedByDisplayName string
	CompletedAt          *time.Time
	Counts               *PlanCounts
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewPlan returns an empty plan: no alert code, KEEP_ALL, no population.
func NewPlan(id string, createdAt time.Time) BulkPlan {
	createdAt = createdAt.UTC()
	return BulkPlan{
		ID:          id,
		CleanupMode: CleanupKeepAll,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// Started reports whether a run has begun on this plan.
func (p BulkPlan) Started() bool {
	return p.StartedAt != nil
}

// Completed reports whether a run has finished on this plan.
func (p BulkPlan) Completed() bool {
	return p.CompletedAt != nil
}

// ContainsPerson reports whether the prison number is in the target population.
func (p BulkPlan) ContainsPerson(prisonNumber string) bool {
	for _, existing := range p.People {
		if existing == prisonNumber {
			return true
		}
	}
	return false
}

// normalizePrisonNumbers trims, de-duplicates, and drops empty entries.
// The returned slice is sorted so population order is deterministic.
func normalizePrisonNumbers(prisonNumbers []string) []string {
	seen := make(map[string]bool, len(prisonNumbers))
	var out []string
	for _, raw := range prisonNumbers {
		prisonNumber := strings.ToUpper(strings.TrimSpace(raw))
		if prisonNumber == "" || seen[prisonNumber] {
			continue
		}
		seen[prisonNumber] = true
		out = append(out, prisonNumber)
	}
	sort.Strings(out)
	return out
}
