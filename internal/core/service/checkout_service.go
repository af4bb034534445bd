package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/starva/storefront/internal/core/domain"
	"github.com/starva/storefront/internal/port"
)

var ErrEmptyCart = errors.New("cart is empty")

// CheckoutService turns the local cart into orders against the remote API
// and keeps the cart's stock snapshots in sync with server truth.
type CheckoutService struct {
	cart    *CartService
	gateway port.Gateway
}

func NewCheckoutService(cart *CartService, gateway port.Gateway) *CheckoutService {
	return &CheckoutService{cart: cart, gateway: gateway}
}

// PlaceOrder sends the cart as a single merchant-scoped order. On success the
// line items are cleared and the checkout fields reset; on any failure the
// cart is left intact so the user can retry without re-entering items.
func (s *CheckoutService) PlaceOrder(ctx context.Context) (*domain.OrderSummary, error) {
	snapshot := s.cart.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	req := domain.OrderRequest{
		Notes:            snapshot.OrderNotes,
		DeliveryLocation: snapshot.DeliveryLocation,
	}
	for _, item := range snapshot.Items {
		req.Items = append(req.Items, domain.OrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Notes:     item.Notes,
		})
	}

	summary, err := s.gateway.CreateOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	// local cleanup is best-effort: the order already exists server-side
	if err := s.cart.ClearCart(ctx); err != nil {
		log.Printf("clear cart after order %s: %v", summary.OrderID, err)
	}
	if err := s.cart.ResetCheckoutFields(ctx); err != nil {
		log.Printf("reset checkout fields after order %s: %v", summary.OrderID, err)
	}

	return summary, nil
}

// CancelOrder cancels a placed order.
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID string) error {
	if err := s.gateway.CancelOrder(ctx, orderID); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	return nil
}

// Fees returns the checkout fee statement for the cart's current total.
func (s *CheckoutService) Fees() FeeBreakdown {
	return CalculateOrderFees(s.cart.TotalPrice())
}

// SyncStock fetches fresh stock snapshots for every product in the cart and
// reconciles quantities against them. A no-op on an empty cart.
func (s *CheckoutService) SyncStock(ctx context.Context) error {
	snapshot := s.cart.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil
	}

	stocks, err := s.gateway.ProductStock(ctx, snapshot.ProductIDs(), snapshot.OrganizationID())
	if err != nil {
		return fmt.Errorf("fetch stock: %w", err)
	}
	return s.cart.RefreshStock(ctx, stocks)
}
