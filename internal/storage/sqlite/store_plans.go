package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openjustice/prisonalerts/internal/bulkplan/domain"
	"github.com/openjustice/prisonalerts/internal/storage"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// CreatePlan inserts one plan record with its target population.
func (s *Store) CreatePlan(ctx context.Context, plan domain.BulkPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	planID := strings.TrimSpace(plan.ID)
	if planID == "" {
		return fmt.Errorf("plan id is required")
	}
	if !plan.CleanupMode.Valid() {
		return fmt.Errorf("cleanup mode %q is invalid", plan.CleanupMode)
	}
	createdAt := plan.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := plan.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create plan: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO bulk_plans (
		   id, alert_code, description, cleanup_mode,
		   started_at, started_by, started_by_display_name,
		   completed_at, created_count, updated_count, unchanged_count, expired_count,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, NULL, '', '', NULL, NULL, NULL, NULL, NULL, ?, ?)`,
		planID,
		strings.TrimSpace(plan.AlertCode),
		strings.TrimSpace(plan.Description),
		string(plan.CleanupMode),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create plan: %w", err)
	}

	if err := insertPlanPeople(ctx, tx, planID, plan.People); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create plan: %w", err)
	}
	return nil
}

// GetPlan returns one plan with its population by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (domain.BulkPlan, error) {
	if err := ctx.Err(); err != nil {
		return domain.BulkPlan{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.BulkPlan{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.BulkPlan{}, fmt.Errorf("plan id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, alert_code, description, cleanup_mode,
		        started_at, started_by, started_by_display_name,
		        completed_at, created_count, updated_count, unchanged_count, expired_count,
		        created_at, updated_at
		   FROM bulk_plans
		  WHERE id = ?`,
		id,
	)

	var plan domain.BulkPlan
	var cleanupMode string
	var startedAt, completedAt sql.NullInt64
	var createdCount, updatedCount, unchangedCount, expiredCount sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(
		&plan.ID,
		&plan.AlertCode,
		&plan.Description,
		&cleanupMode,
		&startedAt,
		&plan.StartedBy,
		&plan.StartedByDisplayName,
		&completedAt,
		&createdCount,
		&updatedCount,
		&unchangedCount,
		&expiredCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BulkPlan{}, storage.ErrNotFound
		}
		return domain.BulkPlan{}, fmt.Errorf("get plan: %w", err)
	}

	plan.CleanupMode = domain.CleanupMode(cleanupMode)
	plan.StartedAt = fromNullMillis(startedAt)
	plan.CompletedAt = fromNullMillis(completedAt)
	plan.CreatedAt = fromMillis(createdAt)
	plan.UpdatedAt = fromMillis(updatedAt)
	if createdCount.Valid {
		plan.Counts = &domain.PlanCounts{
			Created:   int(createdCount.Int64),
			Updated:   int(updatedCount.Int64),
			Unchanged: int(unchangedCount.Int64),
			Expired:   int(expiredCount.Int64),
		}
	}

	people, err := s.listPlanPeople(ctx, id)
	if err != nil {
		return domain.BulkPlan{}, err
	}
	plan.People = people
	return plan, nil
}

// UpdatePlan replaces mutable plan fields and the population. Started plans
// are immutable and fail with ErrAlreadyStarted.
func (s *Store) UpdatePlan(ctx context.Context, plan domain.BulkPlan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	planID := strings.TrimSpace(plan.ID)
	if planID == "" {
		return fmt.Errorf("plan id is required")
	}
	if !plan.CleanupMode.Valid() {
		return fmt.Errorf("cleanup mode %q is invalid", plan.CleanupMode)
	}
	updatedAt := plan.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update plan: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE bulk_plans
		    SET alert_code = ?, description = ?, cleanup_mode = ?, updated_at = ?
		  WHERE id = ? AND started_at IS NULL`,
		strings.TrimSpace(plan.AlertCode),
		strings.TrimSpace(plan.Description),
		string(plan.CleanupMode),
		toMillis(updatedAt),
		planID,
	)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update plan rows affected: %w", err)
	}
	if affected == 0 {
		return planMissingOrStarted(ctx, tx, planID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bulk_plan_people WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("clear plan people: %w", err)
	}
	if err := insertPlanPeople(ctx, tx, planID, plan.People); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update plan: %w", err)
	}
	return nil
}

// MarkPlanStarted stamps the started fields once. A plan already stamped by
// any earlier call fails with ErrAlreadyStarted.
func (s *Store) MarkPlanStarted(ctx context.Context, id string, startedAt time.Time, startedBy, startedByDisplayName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("plan id is required")
	}
	if startedAt.IsZero() {
		return fmt.Errorf("started at is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE bulk_plans
		    SET started_at = ?, started_by = ?, started_by_display_name = ?, updated_at = ?
		  WHERE id = ? AND started_at IS NULL`,
		toMillis(startedAt),
		strings.TrimSpace(startedBy),
		strings.TrimSpace(startedByDisplayName),
		toMillis(startedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark plan started: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark plan started rows affected: %w", err)
	}
	if affected == 0 {
		return s.planMissingOrStartedDB(ctx, id)
	}
	return nil
}

// CompletePlan records the completion timestamp and final counts for a
// started, not yet completed plan.
func (s *Store) CompletePlan(ctx context.Context, id string, completedAt time.Time, counts domain.PlanCounts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("plan id is required")
	}
	if completedAt.IsZero() {
		return fmt.Errorf("completed at is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE bulk_plans
		    SET completed_at = ?, created_count = ?, updated_count = ?,
		        unchanged_count = ?, expired_count = ?, updated_at = ?
		  WHERE id = ? AND started_at IS NOT NULL AND completed_at IS NULL`,
		toMillis(completedAt),
		counts.Created,
		counts.Updated,
		counts.Unchanged,
		counts.Expired,
		toMillis(completedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("complete plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete plan rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) listPlanPeople(ctx context.Context, planID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT prison_number FROM bulk_plan_people WHERE plan_id = ? ORDER BY prison_number`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("list plan people: %w", err)
	}
	defer rows.Close()

	var people []string
	for rows.Next() {
		var prisonNumber string
		if err := rows.Scan(&prisonNumber); err != nil {
			return nil, fmt.Errorf("scan plan person: %w", err)
		}
		people = append(people, prisonNumber)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan people: %w", err)
	}
	return people, nil
}

func insertPlanPeople(ctx context.Context, tx *sql.Tx, planID string, people []string) error {
	for _, prisonNumber := range people {
		prisonNumber = strings.TrimSpace(prisonNumber)
		if prisonNumber == "" {
			continue
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO bulk_plan_people (plan_id, prison_number) VALUES (?, ?)`,
			planID,
			prisonNumber,
		); err != nil {
			return fmt.Errorf("insert plan person %s: %w", prisonNumber, err)
		}
	}
	return nil
}

// planMissingOrStarted distinguishes a missing plan from an immutable one
// after a conditional write matched zero rows.
func planMissingOrStarted(ctx context.Context, tx *sql.Tx, planID string) error {
	row := tx.QueryRowContext(ctx, `SELECT started_at FROM bulk_plans WHERE id = ?`, planID)
	var startedAt sql.NullInt64
	if err := row.Scan(&startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check plan state: %w", err)
	}
	if startedAt.Valid {
		return storage.ErrAlreadyStarted
	}
	return storage.ErrNotFound
}

func (s *Store) planMissingOrStartedDB(ctx context.Context, planID string) error {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT started_at FROM bulk_plans WHERE id = ?`, planID)
	var startedAt sql.NullInt64
	if err := row.Scan(&startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("check plan state: %w", err)
	}
	if startedAt.Valid {
		return storage.ErrAlreadyStarted
	}
	return storage.ErrNotFound
}

// isUniqueViolation reports whether err is a primary key or unique constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
