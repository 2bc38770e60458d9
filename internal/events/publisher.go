package events

import (
	"context"
	"log"
	"sync"
)

// LogPublisher writes domain events to the process log. It stands in for a
// message-bus producer in deployments that have none configured.
type LogPublisher struct {
	// Logf defaults to log.Printf when nil.
	Logf func(format string, args ...any)
}

// Publish logs one event.
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logf := log.Printf
	if p != nil && p.Logf != nil {
		logf = p.Logf
	}
	if event.PrisonNumber != "" && event.AlertID == "" {
		logf("event %s person=%s", event.Type, event.PrisonNumber)
		return nil
	}
	logf("event %s alert=%s code=%s person=%s", event.Type, event.AlertID, event.AlertCode, event.PrisonNumber)
	return nil
}

// CapturePublisher records published events in memory for inspection.
type CapturePublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends one event to the captured list.
func (p *CapturePublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a copy of the captured events in publication order.
func (p *CapturePublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// CountByType returns how many captured events have the given type.
func (p *CapturePublisher) CountByType(eventType Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, event := range p.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

// Reset discards all captured events.
func (p *CapturePublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
