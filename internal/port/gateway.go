package port

import (
	"context"

	"github.com/starva/storefront/internal/core/domain"
)

// Gateway is the remote storefront API. All methods translate non-2xx
// responses into errors carrying the server's message.
type Gateway interface {
	// CreateOrder places an order built from the cart
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderSummary, error)

	// GetOrder fetches the detail view of a placed order
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// CancelOrder cancels a placed order
	CancelOrder(ctx context.Context, orderID string) error

	// InitiatePayment starts a mobile-money charge for an order
	InitiatePayment(ctx context.Context, orderID, phoneNumber string) (*domain.PaymentInitiation, error)

	// PaymentStatus polls the state of a charge by its gateway reference
	PaymentStatus(ctx context.Context, orderID, reference string) (string, error)

	// ProductStock returns fresh stock snapshots for the given products,
	// scoped to one merchant
	ProductStock(ctx context.Context, productIDs []string, organizationID string) ([]domain.StockSnapshot, error)

	// LikeProduct / UnlikeProduct toggle the product like state server-side
	LikeProduct(ctx context.Context, slug string) error
	UnlikeProduct(ctx context.Context, slug string) error

	// FollowMerchant / UnfollowMerchant toggle the merchant follow state
	FollowMerchant(ctx context.Context, slug string) error
	UnfollowMerchant(ctx context.Context, slug string) error
}
