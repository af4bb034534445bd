package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starva/storefront/internal/core/domain"
)

// MySQLAdapter journals mobile-money payment attempts. A polling loop that
// times out leaves its attempt unresolved here; the charge may still land
// server-side, so unresolved attempts can be listed and re-checked later.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Record(ctx context.Context, attempt domain.PaymentAttempt) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO payment_attempts (id, order_id, phone_number, reference, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.OrderID, attempt.PhoneNumber, attempt.Reference,
		attempt.Amount, attempt.Status, attempt.CreatedAt, attempt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record payment attempt: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateStatus(ctx context.Context, attemptID string, status domain.PaymentStatus) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE payment_attempts
		SET status = ?, updated_at = NOW()
		WHERE id = ?`,
		status, attemptID,
	)
	if err != nil {
		return fmt.Errorf("update payment attempt: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("payment attempt %s not found", attemptID)
	}
	return nil
}

func (m *MySQLAdapter) ListUnresolved(ctx context.Context) ([]domain.PaymentAttempt, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, order_id, phone_number, reference, amount, status, created_at, updated_at
		FROM payment_attempts
		WHERE status NOT IN (?, ?)
		ORDER BY created_at`,
		domain.PaymentSuccess, domain.PaymentFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("list payment attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.PaymentAttempt
	for rows.Next() {
		var a domain.PaymentAttempt
		if err := rows.Scan(&a.ID, &a.OrderID, &a.PhoneNumber, &a.Reference,
			&a.Amount, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
