package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/starva/storefront/internal/core/domain"
	"github.com/starva/storefront/internal/port"
)

var ErrCrossMerchantCart = errors.New("items can only be added from one store at a time; clear the cart to shop from another store")

// StockLimitError is returned when a requested quantity exceeds the known
// stock of a product. Available is surfaced verbatim to the user.
type StockLimitError struct {
	ProductID string
	Available int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("only %d units available in stock", e.Available)
}

// CartService owns the local cart and enforces the merchant-scope and
// stock-ceiling invariants before anything touches the network. Mutations are
// applied to a working copy and persisted first; a failed check or a failed
// save leaves the in-memory cart in its last-known-good form.
type CartService struct {
	repo port.CartRepository

	mu   sync.Mutex // held across persist, so mutations serialize fully
	cart *domain.Cart
}

func NewCartService(repo port.CartRepository) *CartService {
	return &CartService{
		repo: repo,
		cart: &domain.Cart{},
	}
}

// Restore hydrates the cart from the repository. Call once at startup.
func (s *CartService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("restore cart: %w", err)
	}
	s.cart = cart
	return nil
}

// AddItem merges the candidate into the cart or appends a new line.
// A non-positive quantity is treated as 1. The candidate's Quantity field is
// ignored; pass the requested amount explicitly.
func (s *CartService) AddItem(ctx context.Context, item domain.CartItem, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if org := s.cart.OrganizationID(); org != "" && item.OrganizationID != org {
		return ErrCrossMerchantCart
	}

	next := s.cart.Clone()
	existing := next.Find(item.ProductID)

	if item.InventoryEnabled && item.CurrentStock != nil {
		inCart := 0
		if existing != nil {
			inCart = existing.Quantity
		}
		if quantity+inCart > *item.CurrentStock {
			return &StockLimitError{ProductID: item.ProductID, Available: *item.CurrentStock}
		}
	}

	if existing != nil {
		existing.Quantity += quantity
		// take the fresher stock snapshot when the candidate carries one
		if item.CurrentStock != nil {
			existing.CurrentStock = item.CurrentStock
			existing.InventoryEnabled = item.InventoryEnabled
		}
	} else {
		item.Quantity = quantity
		next.Items = append(next.Items, item)
	}

	return s.commit(ctx, next)
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	item := next.Find(productID)
	if item == nil {
		return nil
	}

	if item.InventoryEnabled && item.CurrentStock != nil && quantity > *item.CurrentStock {
		return &StockLimitError{ProductID: productID, Available: *item.CurrentStock}
	}

	item.Quantity = quantity
	return s.commit(ctx, next)
}

// UpdateNotes sets the per-line special instructions for a product.
func (s *CartService) UpdateNotes(ctx context.Context, productID, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	item := next.Find(productID)
	if item == nil {
		return nil
	}
	item.Notes = notes
	return s.commit(ctx, next)
}

// RemoveItem deletes the line unconditionally; a missing product is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	kept := next.Items[:0]
	for _, item := range next.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(next.Items) {
		return nil
	}
	next.Items = kept
	return s.commit(ctx, next)
}

// RefreshStock reconciles cart lines against fresh server snapshots. Lines
// whose quantity exceeds the reported stock are clamped silently; lines with
// no matching snapshot are left alone. Never removes lines.
func (s *CartService) RefreshStock(ctx context.Context, snapshots []domain.StockSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]domain.StockSnapshot, len(snapshots))
	for _, snap := range snapshots {
		byID[snap.ProductID] = snap
	}

	next := s.cart.Clone()
	changed := false
	for i := range next.Items {
		snap, ok := byID[next.Items[i].ProductID]
		if !ok {
			continue
		}
		stock := snap.CurrentStock
		next.Items[i].CurrentStock = &stock
		next.Items[i].InventoryEnabled = snap.InventoryEnabled
		if snap.InventoryEnabled && next.Items[i].Quantity > stock {
			next.Items[i].Quantity = stock
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return s.commit(ctx, next)
}

func (s *CartService) SetDeliveryLocation(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	next.DeliveryLocation = location
	return s.commit(ctx, next)
}

func (s *CartService) SetOrderNotes(ctx context.Context, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	next.OrderNotes = notes
	return s.commit(ctx, next)
}

// ClearCart drops every line but keeps the checkout fields; those are reset
// separately by ResetCheckoutFields once an order has gone through.
func (s *CartService) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	next.Items = nil
	return s.commit(ctx, next)
}

// ResetCheckoutFields blanks the delivery location and order notes.
func (s *CartService) ResetCheckoutFields(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	next.DeliveryLocation = ""
	next.OrderNotes = ""
	return s.commit(ctx, next)
}

// TotalPrice is the sum of price*quantity across lines.
func (s *CartService) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, item := range s.cart.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities across lines.
func (s *CartService) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, item := range s.cart.Items {
		count += item.Quantity
	}
	return count
}

// Snapshot returns a deep copy of the current cart state.
func (s *CartService) Snapshot() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.Clone()
}

// commit persists the working copy and, only on success, makes it current.
// Caller must hold the mutex.
func (s *CartService) commit(ctx context.Context, next *domain.Cart) error {
	if err := s.repo.Save(ctx, next); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	s.cart = next
	return nil
}
