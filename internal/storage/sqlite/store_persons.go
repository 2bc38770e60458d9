package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openjustice/prisonalerts/internal/storage"
)

// GetPersonSummary returns the cached summary for one prison number.
func (s *Store) GetPersonSummary(ctx context.Context, prisonNumber string) (storage.PersonSummary, error) {
	if err := ctx.Err(); err != nil {
		return storage.PersonSummary{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PersonSummary{}, fmt.Errorf("storage is not configured")
	}
	prisonNumber = strings.TrimSpace(prisonNumber)
	if prisonNumber == "" {
		return storage.PersonSummary{}, fmt.Errorf("prison number is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT prison_number, first_name, last_name, prison_code, cell_location, updated_at
		   FROM person_summaries
		  WHERE prison_number = ?`,
		prisonNumber,
	)
	var summary storage.PersonSummary
	var updatedAt int64
	err := row.Scan(
		&summary.PrisonNumber,
		&summary.FirstName,
		&summary.LastName,
		&summary.PrisonCode,
		&summary.CellLocation,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PersonSummary{}, storage.ErrNotFound
		}
		return storage.PersonSummary{}, fmt.Errorf("get person summary: %w", err)
	}
	summary.UpdatedAt = fromMillis(updatedAt)
	return summary, nil
}

// PutPersonSummary inserts or replaces one cached person summary.
func (s *Store) PutPersonSummary(ctx context.Context, summary storage.PersonSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	prisonNumber := strings.TrimSpace(summary.PrisonNumber)
	if prisonNumber == "" {
		return fmt.Errorf("prison number is required")
	}
	updatedAt := summary.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO person_summaries (prison_number, first_name, last_name, prison_code, cell_location, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (prison_number) DO UPDATE SET
		   first_name = excluded.first_name,
		   last_name = excluded.last_name,
		   prison_code = excluded.prison_code,
		   cell_location = excluded.cell_location,
		   updated_at = excluded.updated_at`,
		prisonNumber,
		strings.TrimSpace(summary.FirstName),
		strings.TrimSpace(summary.LastName),
		strings.TrimSpace(summary.PrisonCode),
		strings.TrimSpace(summary.CellLocation),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put person summary: %w", err)
	}
	return nil
}
