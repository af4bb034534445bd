package port

import (
	"context"

	"github.com/starva/storefront/internal/core/domain"
)

type CartRepository interface {
	// Load returns the persisted cart, or an empty cart if none was saved yet
	Load(ctx context.Context) (*domain.Cart, error)

	// Save persists the full cart state, replacing any previous snapshot
	Save(ctx context.Context, cart *domain.Cart) error
}
