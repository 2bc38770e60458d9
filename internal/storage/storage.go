// Package storage defines persistence contracts for plan, alert, person
// summary, and reference data records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrAlreadyStarted indicates a conditional started stamp found the plan
	// already stamped by an earlier or concurrent run.
	ErrAlreadyStarted = errors.New("plan already started")
)

// PlanStore persists bulk alert plan records and their target populations.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan domain.BulkPlan) error
	GetPlan(ctx context.Context, id string) (domain.BulkPlan, error)
	// UpdatePlan replaces the mutable plan fields and population. It fails
	// with ErrAlreadyStarted once the plan has a started stamp.
	UpdatePlan(ctx context.Context, plan domain.BulkPlan) error
	// MarkPlanStarted stamps the started fields if and only if the plan has
	// never been started. This conditional write is the exactly-once gate for
	// plan execution.
	MarkPlanStarted(ctx context.Context, id string, startedAt time.Time, startedBy, startedByDisplayName string) error
	// CompletePlan records the completion timestamp and final counts.
	CompletePlan(ctx context.Context, id string, completedAt time.Time, counts domain.PlanCounts) error
}

// Alert is one persisted per-person alert record. An alert is active at a
// reference time when its window [ActiveFrom, ActiveTo) covers it; a nil
// ActiveTo means the alert is open-ended.
type Alert struct {
	ID           string
	PrisonNumber string
	AlertCode    string
	Description  string
	ActiveFrom   time.Time
	ActiveTo     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the alert window covers the reference time.
func (a Alert) Active(asOf time.Time) bool {
	if a.ActiveFrom.After(asOf) {
		return false
	}
	return a.ActiveTo == nil || a.ActiveTo.After(asOf)
}

// AuditAction classifies one entry in an alert's audit trail.
type AuditAction string

const (
	AuditCreated  AuditAction = "CREATED"
	AuditUpdated  AuditAction = "UPDATED"
	AuditInactive AuditAction = "INACTIVE"
)

// AuditEvent is one entry in an alert's ordered audit trail.
type AuditEvent struct {
	AlertID          string
	PrisonNumber     string
	AlertCode        string
	Action           AuditAction
	Actor            string
	ActorDisplayName string
	Source           string
	OccurredAt       time.Time
}

// AuditStamp attributes one alert mutation. The store appends a matching
// audit event in the same transaction as the mutation itself.
type AuditStamp struct {
	Actor            string
	ActorDisplayName string
	Source           string
	OccurredAt       time.Time
}

// AlertStore persists alert records with their audit history.
type AlertStore interface {
	// FindActiveAlert returns the alert of the given code active for the
	// prison number at the reference time, or ErrNotFound.
	FindActiveAlert(ctx context.Context, prisonNumber, alertCode string, asOf time.Time) (Alert, error)
	// ListActiveAlertsByCode returns every alert of the code active at the
	// reference time, across all prison numbers.
	ListActiveAlertsByCode(ctx context.Context, alertCode string, asOf time.Time) ([]Alert, error)
	CreateAlert(ctx context.Context, alert Alert, stamp AuditStamp) error
	// UpdateAlert replaces the alert's description and clears any end date,
	// leaving the alert active open-ended.
	UpdateAlert(ctx context.Context, alertID, description string, stamp AuditStamp) error
	// ExpireAlert sets the alert's end date, deactivating it from that time.
	ExpireAlert(ctx context.Context, alertID string, activeTo time.Time, stamp AuditStamp) error
	// FindAuditEvents returns audit entries recorded by the actor at exactly
	// the given timestamp, in insertion order.
	FindAuditEvents(ctx context.Context, actor string, occurredAt time.Time) ([]AuditEvent, error)
}

// PersonSummary is the cached identity and location projection for one prisoner.
type PersonSummary struct {
	PrisonNumber string
	FirstName    string
	LastName     string
	PrisonCode   string
	CellLocation string
	UpdatedAt    time.Time
}

// PersonSummaryStore reads and refreshes cached person summaries.
type PersonSummaryStore interface {
	GetPersonSummary(ctx context.Context, prisonNumber string) (PersonSummary, error)
	PutPersonSummary(ctx context.Context, summary PersonSummary) error
}

// AlertCode is one reference-data alert code.
type AlertCode struct {
	Code        string
	Description string
	Active      bool
	CreatedAt   time.Time
}

// AlertCodeStore reads and seeds alert code reference data.
type AlertCodeStore interface {
	PutAlertCode(ctx context.Context, code AlertCode) error
	// AlertCodeExists reports whether the code exists and is active.
	AlertCodeExists(ctx context.Context, code string) (bool, error)
}
