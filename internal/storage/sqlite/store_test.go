package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	"github.com/openjustice/prisonalerts/internal/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(" "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetPlanRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created := time.Date(2026, time.April, 7, 10, 30, 0, 0, time.UTC)
	plan := domain.NewPlan("plan-1", created)
	plan.AlertCode = "XSA"
	plan.Description = "escape list"
	plan.CleanupMode = domain.CleanupExpireUnspecified
	plan.People = []string{"A1234AA", "B2345BB"}

	if err := store.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	got, err := store.GetPlan(context.Background(), "plan-1")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.AlertCode != "XSA" {
		t.Fatalf("alert code = %q, want %q", got.AlertCode, "XSA")
	}
	if got.CleanupMode != domain.CleanupExpireUnspecified {
		t.Fatalf("cleanup mode = %q", got.CleanupMode)
	}
	if len(got.People) != 2 || got.People[0] != "A1234AA" || got.People[1] != "B2345BB" {
		t.Fatalf("people = %v", got.People)
	}
	if got.Started() || got.Completed() || got.Counts != nil {
		t.Fatal("new plan must have no execution state")
	}
}

func TestCreatePlanDuplicateReturnsAlreadyExists(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	plan := domain.NewPlan("plan-dup", time.Now().UTC())
	if err := store.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	err := store.CreatePlan(context.Background(), plan)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want %v", err, storage.ErrAlreadyExists)
	}
}

func TestGetPlanMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.GetPlan(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestUpdatePlanReplacesPopulation(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	plan := domain.NewPlan("plan-2", time.Now().UTC())
	plan.People = []string{"A1234AA"}
	if err := store.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	plan.AlertCode = "XSA"
	plan.People = []string{"B2345BB", "C3456CC"}
	if err := store.UpdatePlan(context.Background(), plan); err != nil {
		t.Fatalf("update plan: %v", err)
	}

	got, err := store.GetPlan(context.Background(), "plan-2")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.AlertCode != "XSA" {
		t.Fatalf("alert code = %q", got.AlertCode)
	}
	if len(got.People) != 2 || got.People[0] != "B2345BB" || got.People[1] != "C3456CC" {
		t.Fatalf("people = %v", got.People)
	}
}

func TestUpdatePlanMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	plan := domain.NewPlan("ghost", time.Now().UTC())
	err := store.UpdatePlan(context.Background(), plan)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestMarkPlanStartedIsConditional(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	plan := domain.NewPlan("plan-3", time.Now().UTC())
	if err := store.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	startedAt := time.Date(2026, time.April, 8, 9, 15, 0, 0, time.UTC)
	if err := store.MarkPlanStarted(context.Background(), "plan-3", startedAt, "AB11DZ", "A. Officer"); err != nil {
		t.Fatalf("mark started: %v", err)
	}

	err := store.MarkPlanStarted(context.Background(), "plan-3", startedAt.Add(time.Minute), "CD22EA", "B. Officer")
	if !errors.Is(err, storage.ErrAlreadyStarted) {
		t.Fatalf("second mark error = %v, want %v", err, storage.ErrAlreadyStarted)
	}

	got, err := store.GetPlan(context.Background(), "plan-3")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(startedAt) {
		t.Fatalf("started at = %v, want %v", got.StartedAt, startedAt)
	}
	if got.StartedBy != "AB11DZ" {
		t.Fatalf("started by = %q, want first caller", got.StartedBy)
	}

	// A started plan is immutable through UpdatePlan too.
	got.Description = "late edit"
	err = store.UpdatePlan(context.Background(), got)
	if !errors.Is(err, storage.ErrAlreadyStarted) {
		t.Fatalf("update after start error = %v, want %v", err, storage.ErrAlreadyStarted)
	}
}

func TestMarkPlanStartedMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.MarkPlanStarted(context.Background(), "ghost", time.Now().UTC(), "AB11DZ", "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestCompletePlanRecordsCounts(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	plan := domain.NewPlan("plan-4", time.Now().UTC())
	if err := store.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	startedAt := time.Date(2026, time.April, 9, 11, 0, 0, 0, time.UTC)
	if err := store.MarkPlanStarted(context.Background(), "plan-4", startedAt, "AB11DZ", ""); err != nil {
		t.Fatalf("mark started: %v", err)
	}

	completedAt := startedAt.Add(2 * time.Minute)
	counts := domain.PlanCounts{Created: 12, Updated: 3, Unchanged: 2, Expired: 1}
	if err := store.CompletePlan(context.Background(), "plan-4", completedAt, counts); err != nil {
		t.Fatalf("complete plan: %v", err)
	}

	got, err := store.GetPlan(context.Background(), "plan-4")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("completed at = %v, want %v", got.CompletedAt, completedAt)
	}
	if got.Counts == nil || *got.Counts != counts {
		t.Fatalf("counts = %+v, want %+v", got.Counts, counts)
	}
}

func TestCompletePlanRequiresStartedPlan(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	plan := domain.NewPlan("plan-5", time.Now().UTC())
	if err := store.CreatePlan(context.Background(), plan); err != nil {
		t.Fatalf("create plan: %v", err)
	}
	err := store.CompletePlan(context.Background(), "plan-5", time.Now().UTC(), domain.PlanCounts{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestPersonSummaryRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	summary := storage.PersonSummary{
		PrisonNumber: "A1234AA",
		FirstName:    "Dora",
		LastName:     "Wilson",
		PrisonCode:   "LEI",
		CellLocation: "B-2-014",
		UpdatedAt:    time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC),
	}
	if err := store.PutPersonSummary(context.Background(), summary); err != nil {
		t.Fatalf("put person summary: %v", err)
	}

	got, err := store.GetPersonSummary(context.Background(), "A1234AA")
	if err != nil {
		t.Fatalf("get person summary: %v", err)
	}
	if got.LastName != "Wilson" || got.PrisonCode != "LEI" {
		t.Fatalf("summary = %+v", got)
	}

	// Refresh replaces the cached projection.
	summary.CellLocation = "C-1-002"
	if err := store.PutPersonSummary(context.Background(), summary); err != nil {
		t.Fatalf("refresh person summary: %v", err)
	}
	got, err = store.GetPersonSummary(context.Background(), "A1234AA")
	if err != nil {
		t.Fatalf("get refreshed summary: %v", err)
	}
	if got.CellLocation != "C-1-002" {
		t.Fatalf("cell location = %q, want refreshed value", got.CellLocation)
	}
}

func TestGetPersonSummaryMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	_, err := store.GetPersonSummary(context.Background(), "Z9999ZZ")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestAlertCodeExistsHonorsActiveFlag(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.PutAlertCode(context.Background(), storage.AlertCode{Code: "XSA", Description: "Staff assaulter", Active: true}); err != nil {
		t.Fatalf("put alert code: %v", err)
	}
	if err := store.PutAlertCode(context.Background(), storage.AlertCode{Code: "XOLD", Description: "Retired", Active: false}); err != nil {
		t.Fatalf("put inactive code: %v", err)
	}

	exists, err := store.AlertCodeExists(context.Background(), "XSA")
	if err != nil {
		t.Fatalf("check XSA: %v", err)
	}
	if !exists {
		t.Fatal("expected XSA to exist")
	}

	exists, err = store.AlertCodeExists(context.Background(), "XOLD")
	if err != nil {
		t.Fatalf("check XOLD: %v", err)
	}
	if exists {
		t.Fatal("inactive code must not count as existing")
	}

	exists, err = store.AlertCodeExists(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("check NOPE: %v", err)
	}
	if exists {
		t.Fatal("unknown code must not exist")
	}
}
