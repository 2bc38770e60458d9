// Package service implements the bulk alert plan operations: editing a plan,
// previewing its impact, executing it exactly once, and re-publishing the
// events of a completed run.
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	"github.com/openjustice/prisonalerts/internal/events"
	"github.com/openjustice/prisonalerts/internal/platform/id"
	"github.com/openjustice/prisonalerts/internal/storage"
)

// Runner executes a plan's background work. The default runner detaches the
// task on a goroutine; tests substitute SyncRunner to run it inline.
type Runner func(task func())

// SyncRunner runs the task on the calling goroutine.
func SyncRunner(task func()) { task() }

// Config carries the collaborators a Service needs. Plans, Alerts, Persons,
// AlertCodes, and Publisher are required; the rest default.
type Config struct {
	Plans      storage.PlanStore
	Alerts     storage.AlertStore
	Persons    storage.PersonSummaryStore
	AlertCodes storage.AlertCodeStore
	Publisher  events.Publisher

	Clock func() time.Time
	NewID func() (string, error)
	Logf  func(format string, args ...any)
	Run   Runner
}

// Service is the bulk alert plan application service.
type Service struct {
	plans      storage.PlanStore
	alerts     storage.AlertStore
	persons    storage.PersonSummaryStore
	alertCodes storage.AlertCodeStore
	publisher  events.Publisher

	clock func() time.Time
	newID func() (string, error)
	logf  func(format string, args ...any)
	run   Runner
}

// New builds a Service, filling in defaults for clock, id generation,
// logging, and the background runner.
func New(cfg Config) *Service {
	s := &Service{
		plans:      cfg.Plans,
		alerts:     cfg.Alerts,
		persons:    cfg.Persons,
		alertCodes: cfg.AlertCodes,
		publisher:  cfg.Publisher,
		clock:      cfg.Clock,
		newID:      cfg.NewID,
		logf:       cfg.Logf,
		run:        cfg.Run,
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = id.NewID
	}
	if s.logf == nil {
		s.logf = log.Printf
	}
	if s.run == nil {
		s.run = s.goRunner
	}
	return s
}

// goRunner detaches the task on a goroutine and contains panics so a failing
// run cannot take the process down.
func (s *Service) goRunner(task func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logf("bulk plan background task panicked: %v", r)
			}
		}()
		task()
	}()
}

// loadPlan fetches a plan, translating the storage miss into the domain error.
func (s *Service) loadPlan(ctx context.Context, planID string) (domain.BulkPlan, error) {
	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.BulkPlan{}, domain.ErrPlanNotFound
		}
		return domain.BulkPlan{}, err
	}
	return plan, nil
}
