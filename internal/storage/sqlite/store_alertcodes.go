package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openjustice/prisonalerts/internal/storage"
)

// PutAlertCode inserts or replaces one reference-data alert code.
func (s *Store) PutAlertCode(ctx context.Context, code storage.AlertCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	trimmed := strings.TrimSpace(code.Code)
	if trimmed == "" {
		return fmt.Errorf("alert code is required")
	}
	createdAt := code.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	active := 0
	if code.Active {
		active = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO alert_codes (code, description, active, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (code) DO UPDATE SET
		   description = excluded.description,
		   active = excluded.active`,
		trimmed,
		strings.TrimSpace(code.Description),
		active,
		toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("put alert code: %w", err)
	}
	return nil
}

// AlertCodeExists reports whether the code exists and is active.
func (s *Store) AlertCodeExists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM alert_codes WHERE code = ? AND active = 1`,
		code,
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check alert code: %w", err)
	}
	return count > 0, nil
}
