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

// FindActiveAlert returns the alert of the given code active for the prison
// number at the reference time.
func (s *Store) FindActiveAlert(ctx context.Context, prisonNumber, alertCode string, asOf time.Time) (storage.Alert, error) {
	if err := ctx.Err(); err != nil {
		return storage.Alert{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Alert{}, fmt.Errorf("storage is not configured")
	}
	prisonNumber = strings.TrimSpace(prisonNumber)
	alertCode = strings.TrimSpace(alertCode)
	if prisonNumber == "" {
		return storage.Alert{}, fmt.Errorf("prison number is required")
	}
	if alertCode == "" {
		return storage.Alert{}, fmt.Errorf("alert code is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, prison_number, alert_code, description, active_from, active_to, created_at, updated_at
		   FROM alerts
		  WHERE prison_number = ? AND alert_code = ?
		    AND active_from <= ?
		    AND (active_to IS NULL OR active_to > ?)
		  ORDER BY created_at DESC
		  LIMIT 1`,
		prisonNumber,
		alertCode,
		toMillis(asOf),
		toMillis(asOf),
	)
	alert, err := scanAlert(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Alert{}, storage.ErrNotFound
		}
		return storage.Alert{}, fmt.Errorf("find active alert: %w", err)
	}
	return alert, nil
}

// ListActiveAlertsByCode returns every alert of the code active at the
// reference time, ordered by prison number.
func (s *Store) ListActiveAlertsByCode(ctx context.Context, alertCode string, asOf time.Time) ([]storage.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	alertCode = strings.TrimSpace(alertCode)
	if alertCode == "" {
		return nil, fmt.Errorf("alert code is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, prison_number, alert_code, description, active_from, active_to, created_at, updated_at
		   FROM alerts
		  WHERE alert_code = ?
		    AND active_from <= ?
		    AND (active_to IS NULL OR active_to > ?)
		  ORDER BY prison_number`,
		alertCode,
		toMillis(asOf),
		toMillis(asOf),
	)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []storage.Alert
	for rows.Next() {
		alert, err := scanAlert(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

// CreateAlert inserts one alert and its CREATED audit entry in one transaction.
func (s *Store) CreateAlert(ctx context.Context, alert storage.Alert, stamp storage.AuditStamp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	alertID := strings.TrimSpace(alert.ID)
	prisonNumber := strings.TrimSpace(alert.PrisonNumber)
	alertCode := strings.TrimSpace(alert.AlertCode)
	if alertID == "" {
		return fmt.Errorf("alert id is required")
	}
	if prisonNumber == "" {
		return fmt.Errorf("prison number is required")
	}
	if alertCode == "" {
		return fmt.Errorf("alert code is required")
	}
	if err := validateStamp(stamp); err != nil {
		return err
	}
	if alert.ActiveFrom.IsZero() {
		return fmt.Errorf("active from is required")
	}
	now := stamp.OccurredAt.UTC()

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create alert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO alerts (id, prison_number, alert_code, description, active_from, active_to, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alertID,
		prisonNumber,
		alertCode,
		strings.TrimSpace(alert.Description),
		toMillis(alert.ActiveFrom),
		toNullMillis(alert.ActiveTo),
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create alert: %w", err)
	}

	if err := appendAuditEvent(ctx, tx, storage.AuditEvent{
		AlertID:          alertID,
		PrisonNumber:     prisonNumber,
		AlertCode:        alertCode,
		Action:           storage.AuditCreated,
		Actor:            stamp.Actor,
		ActorDisplayName: stamp.ActorDisplayName,
		Source:           stamp.Source,
		OccurredAt:       stamp.OccurredAt,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create alert: %w", err)
	}
	return nil
}

// UpdateAlert replaces the alert's description, clears any end date, and
// appends an UPDATED audit entry in the same transaction.
func (s *Store) UpdateAlert(ctx context.Context, alertID, description string, stamp storage.AuditStamp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	alertID = strings.TrimSpace(alertID)
	if alertID == "" {
		return fmt.Errorf("alert id is required")
	}
	if err := validateStamp(stamp); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update alert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE alerts SET description = ?, active_to = NULL, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(description),
		toMillis(stamp.OccurredAt),
		alertID,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	subject, err := alertSubject(ctx, tx, alertID)
	if err != nil {
		return err
	}
	if err := appendAuditEvent(ctx, tx, storage.AuditEvent{
		AlertID:          alertID,
		PrisonNumber:     subject.prisonNumber,
		AlertCode:        subject.alertCode,
		Action:           storage.AuditUpdated,
		Actor:            stamp.Actor,
		ActorDisplayName: stamp.ActorDisplayName,
		Source:           stamp.Source,
		OccurredAt:       stamp.OccurredAt,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update alert: %w", err)
	}
	return nil
}

// ExpireAlert sets the alert's end date and appends an INACTIVE audit entry
// in the same transaction.
func (s *Store) ExpireAlert(ctx context.Context, alertID string, activeTo time.Time, stamp storage.AuditStamp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	alertID = strings.TrimSpace(alertID)
	if alertID == "" {
		return fmt.Errorf("alert id is required")
	}
	if activeTo.IsZero() {
		return fmt.Errorf("active to is required")
	}
	if err := validateStamp(stamp); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expire alert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(
		ctx,
		`UPDATE alerts SET active_to = ?, updated_at = ? WHERE id = ?`,
		toMillis(activeTo),
		toMillis(stamp.OccurredAt),
		alertID,
	)
	if err != nil {
		return fmt.Errorf("expire alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("expire alert rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	subject, err := alertSubject(ctx, tx, alertID)
	if err != nil {
		return err
	}
	if err := appendAuditEvent(ctx, tx, storage.AuditEvent{
		AlertID:          alertID,
		PrisonNumber:     subject.prisonNumber,
		AlertCode:        subject.alertCode,
		Action:           storage.AuditInactive,
		Actor:            stamp.Actor,
		ActorDisplayName: stamp.ActorDisplayName,
		Source:           stamp.Source,
		OccurredAt:       stamp.OccurredAt,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit expire alert: %w", err)
	}
	return nil
}

// FindAuditEvents returns audit entries recorded by the actor at exactly the
// given timestamp, in insertion order.
func (s *Store) FindAuditEvents(ctx context.Context, actor string, occurredAt time.Time) ([]storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, fmt.Errorf("actor is required")
	}
	if occurredAt.IsZero() {
		return nil, fmt.Errorf("occurred at is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT alert_id, prison_number, alert_code, action, actor, actor_display_name, source, occurred_at
		   FROM alert_audit_events
		  WHERE actor = ? AND occurred_at = ?
		  ORDER BY id`,
		actor,
		toMillis(occurredAt),
	)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer rows.Close()

	var auditEvents []storage.AuditEvent
	for rows.Next() {
		var event storage.AuditEvent
		var action string
		var eventOccurredAt int64
		if err := rows.Scan(
			&event.AlertID,
			&event.PrisonNumber,
			&event.AlertCode,
			&action,
			&event.Actor,
			&event.ActorDisplayName,
			&event.Source,
			&eventOccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = storage.AuditAction(action)
		event.OccurredAt = fromMillis(eventOccurredAt)
		auditEvents = append(auditEvents, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return auditEvents, nil
}

func scanAlert(scan func(dest ...any) error) (storage.Alert, error) {
	var alert storage.Alert
	var activeFrom, createdAt, updatedAt int64
	var activeTo sql.NullInt64
	if err := scan(
		&alert.ID,
		&alert.PrisonNumber,
		&alert.AlertCode,
		&alert.Description,
		&activeFrom,
		&activeTo,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.Alert{}, err
	}
	alert.ActiveFrom = fromMillis(activeFrom)
	alert.ActiveTo = fromNullMillis(activeTo)
	alert.CreatedAt = fromMillis(createdAt)
	alert.UpdatedAt = fromMillis(updatedAt)
	return alert, nil
}

type alertSubjectRow struct {
	prisonNumber string
	alertCode    string
}

func alertSubject(ctx context.Context, tx *sql.Tx, alertID string) (alertSubjectRow, error) {
	row := tx.QueryRowContext(ctx, `SELECT prison_number, alert_code FROM alerts WHERE id = ?`, alertID)
	var subject alertSubjectRow
	if err := row.Scan(&subject.prisonNumber, &subject.alertCode); err != nil {
		return alertSubjectRow{}, fmt.Errorf("load alert subject: %w", err)
	}
	return subject, nil
}

func appendAuditEvent(ctx context.Context, tx *sql.Tx, event storage.AuditEvent) error {
	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO alert_audit_events
		   (alert_id, prison_number, alert_code, action, actor, actor_display_name, source, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.AlertID,
		event.PrisonNumber,
		event.AlertCode,
		string(event.Action),
		event.Actor,
		event.ActorDisplayName,
		event.Source,
		toMillis(event.OccurredAt),
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func validateStamp(stamp storage.AuditStamp) error {
	if strings.TrimSpace(stamp.Actor) == "" {
		return fmt.Errorf("audit actor is required")
	}
	if stamp.OccurredAt.IsZero() {
		return fmt.Errorf("audit occurred at is required")
	}
	return nil
}
