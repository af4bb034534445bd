package port

import (
	"context"

	"github.com/starva/storefront/internal/core/domain"
)

type PaymentJournal interface {
	// Record persists a freshly initiated payment attempt
	Record(ctx context.Context, attempt domain.PaymentAttempt) error

	// UpdateStatus sets the last observed status of an attempt
	UpdateStatus(ctx context.Context, attemptID string, status domain.PaymentStatus) error

	// ListUnresolved returns attempts that never reached a terminal status
	// client-side (e.g. the poll loop timed out); the underlying charge may
	// still have completed and can be re-checked later
	ListUnresolved(ctx context.Context) ([]domain.PaymentAttempt, error)
}
