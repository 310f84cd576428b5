package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/cart"
	"github.com/Uz11ps/bototelgara/models"
)

// SessionRepository stores guest sessions in PostgreSQL
type SessionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB, logger *logrus.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// Ensure SessionRepository implements SessionRepositoryInterface
var _ SessionRepositoryInterface = (*SessionRepository)(nil)

// Save upserts the session row and replaces its cart lines in one transaction
func (r *SessionRepository) Save(ctx context.Context, s *models.GuestSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	queryUpsert := `
		INSERT INTO guest_sessions (id, guest_name, telegram_id, checkout_state, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id)
		DO UPDATE SET guest_name = EXCLUDED.guest_name,
		              telegram_id = EXCLUDED.telegram_id,
		              checkout_state = EXCLUDED.checkout_state,
		              last_error = EXCLUDED.last_error,
		              updated_at = EXCLUDED.updated_at
	`
	_, err = tx.ExecContext(ctx, queryUpsert,
		s.ID,
		s.GuestName,
		sql.NullString{String: s.TelegramID, Valid: s.TelegramID != ""},
		s.CheckoutState,
		s.LastError,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithField("session_id", s.ID).Error("Save: failed to upsert session")
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM guest_cart_lines WHERE session_id = $1`, s.ID); err != nil {
		return fmt.Errorf("failed to clear cart lines: %w", err)
	}

	queryLine := `
		INSERT INTO guest_cart_lines (session_id, position, item_id, item_name, unit_price, qty)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i, line := range s.Lines {
		if _, err := tx.ExecContext(ctx, queryLine, s.ID, i, line.ID, line.Name, line.Price, line.Quantity); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{"session_id": s.ID, "item_id": line.ID}).Error("Save: failed to insert cart line")
			return fmt.Errorf("failed to insert cart line: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithFields(logrus.Fields{"session_id": s.ID, "lines": len(s.Lines), "state": s.CheckoutState}).Debug("Save: session stored")
	return nil
}

// Get loads a session and its cart lines in display order
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.GuestSession, error) {
	querySession := `
		SELECT id, guest_name, telegram_id, checkout_state, last_error, created_at, updated_at
		FROM guest_sessions
		WHERE id = $1
	`

	var s models.GuestSession
	var telegramID sql.NullString
	err := r.db.QueryRowContext(ctx, querySession, id).Scan(
		&s.ID,
		&s.GuestName,
		&telegramID,
		&s.CheckoutState,
		&s.LastError,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if telegramID.Valid {
		s.TelegramID = telegramID.String
	}

	queryLines := `
		SELECT item_id, item_name, unit_price, qty
		FROM guest_cart_lines
		WHERE session_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, queryLines, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line cart.Line
		if err := rows.Scan(&line.ID, &line.Name, &line.Price, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		s.Lines = append(s.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return &s, nil
}

// Delete removes a session; its cart lines are removed by the foreign key cascade
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM guest_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteIdleSince removes sessions whose last update is older than before
func (r *SessionRepository) DeleteIdleSince(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM guest_sessions WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return int(n), nil
}
