// Package events defines the domain events emitted when alert state changes,
// and the publisher boundary they are delivered through.
package events

import (
	"context"
	"time"
)

// Type identifies the type of a domain event.
type Type string

// Alert lifecycle events.
const (
	// TypeAlertCreated records the creation of an alert.
	TypeAlertCreated Type = "prisoner-alerts.alert.created"
	// TypeAlertUpdated records an update to an existing alert.
	TypeAlertUpdated Type = "prisoner-alerts.alert.updated"
	// TypeAlertInactive records an alert being expired.
	TypeAlertInactive Type = "prisoner-alerts.alert.inactive"
)

// Person events.
const (
	// TypePersonAlertsChanged records that the set of alerts held by a person
	// changed in some way. At most one is emitted per person per run.
	TypePersonAlertsChanged Type = "prisoner-alerts.person.alerts-changed"
)

// Event is one domain event. Alert fields are empty for person-level events.
type Event struct {
	Type         Type
	AlertID      string
	AlertCode    string
	PrisonNumber string
	Source       string
	OccurredAt   time.Time
}

// Publisher delivers domain events with at-least-once semantics. Publish
// failures do not roll back the mutation the event describes; replay is the
// recovery path.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
