package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/starva/storefront/internal/core/domain"
)

// Mock CartRepository
type mockCartRepo struct {
	saved   *domain.Cart
	saveErr error
	saves   int
}

func (m *mockCartRepo) Load(ctx context.Context) (*domain.Cart, error) {
	if m.saved == nil {
		return &domain.Cart{}, nil
	}
	return m.saved.Clone(), nil
}

func (m *mockCartRepo) Save(ctx context.Context, cart *domain.Cart) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = cart.Clone()
	m.saves++
	return nil
}

func intPtr(v int) *int { return &v }

func testItem(id, org string, price float64) domain.CartItem {
	return domain.CartItem{
		ProductID:      id,
		ProductName:    "item " + id,
		ProductSlug:    id,
		OrganizationID: org,
		Price:          price,
		Category:       "food",
	}
}

func trackedItem(id, org string, price float64, stock int) domain.CartItem {
	item := testItem(id, org, price)
	item.InventoryEnabled = true
	item.CurrentStock = intPtr(stock)
	return item
}

func TestAddItem_AppendAndMerge(t *testing.T) {
	repo := &mockCartRepo{}
	svc := NewCartService(repo)
	ctx := context.Background()

	if err := svc.AddItem(ctx, testItem("p1", "org-1", 500), 1); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := svc.AddItem(ctx, testItem("p1", "org-1", 500), 2); err != nil {
		t.Fatalf("merge add failed: %v", err)
	}

	cart := svc.Snapshot()
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", cart.Items[0].Quantity)
	}
	if repo.saves != 2 {
		t.Errorf("expected 2 persists, got %d", repo.saves)
	}
}

func TestAddItem_DefaultQuantity(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})

	if err := svc.AddItem(context.Background(), testItem("p1", "org-1", 500), 0); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if got := svc.Snapshot().Items[0].Quantity; got != 1 {
		t.Errorf("expected default quantity 1, got %d", got)
	}
}

func TestAddItem_CrossMerchantRejected(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	if err := svc.AddItem(ctx, testItem("p1", "org-1", 500), 1); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before := svc.Snapshot()

	err := svc.AddItem(ctx, testItem("p2", "org-2", 300), 1)
	if !errors.Is(err, ErrCrossMerchantCart) {
		t.Fatalf("expected ErrCrossMerchantCart, got: %v", err)
	}

	if !reflect.DeepEqual(before, svc.Snapshot()) {
		t.Error("cart changed after rejected add")
	}
}

func TestAddItem_MerchantScopeFollowsFirstLine(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 1)
	svc.AddItem(ctx, testItem("p2", "org-1", 300), 1)

	for _, item := range svc.Snapshot().Items {
		if item.OrganizationID != "org-1" {
			t.Errorf("line %s has organization %s, want org-1", item.ProductID, item.OrganizationID)
		}
	}

	// clearing resets the scope, another merchant becomes valid
	svc.ClearCart(ctx)
	if err := svc.AddItem(ctx, testItem("p3", "org-2", 100), 1); err != nil {
		t.Errorf("add after clear failed: %v", err)
	}
}

func TestAddItem_StockLimit(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	err := svc.AddItem(ctx, trackedItem("p1", "org-1", 500, 5), 6)
	var stockErr *StockLimitError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockLimitError, got: %v", err)
	}
	if stockErr.Available != 5 {
		t.Errorf("expected available 5, got %d", stockErr.Available)
	}
	if len(svc.Snapshot().Items) != 0 {
		t.Error("cart changed after rejected add")
	}
}

func TestAddItem_StockLimitCountsExistingQuantity(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	if err := svc.AddItem(ctx, trackedItem("p1", "org-1", 500, 5), 3); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := svc.AddItem(ctx, trackedItem("p1", "org-1", 500, 5), 3)
	var stockErr *StockLimitError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected StockLimitError for prospective quantity 6, got: %v", err)
	}
	if got := svc.Snapshot().Items[0].Quantity; got != 3 {
		t.Errorf("expected quantity left at 3, got %d", got)
	}

	// topping up within the ceiling still works
	if err := svc.AddItem(ctx, trackedItem("p1", "org-1", 500, 5), 2); err != nil {
		t.Errorf("add within stock failed: %v", err)
	}
}

func TestAddItem_UntrackedStockUnlimited(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})

	if err := svc.AddItem(context.Background(), testItem("p1", "org-1", 500), 999); err != nil {
		t.Errorf("untracked product should not hit a stock ceiling: %v", err)
	}
}

func TestUpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantGone bool
		wantQty  int
		wantErr  bool
	}{
		{name: "set within stock", quantity: 4, wantQty: 4},
		{name: "zero removes line", quantity: 0, wantGone: true},
		{name: "negative removes line", quantity: -5, wantGone: true},
		{name: "beyond stock rejected", quantity: 6, wantQty: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCartService(&mockCartRepo{})
			ctx := context.Background()
			if err := svc.AddItem(ctx, trackedItem("p1", "org-1", 500, 5), 2); err != nil {
				t.Fatalf("add failed: %v", err)
			}

			err := svc.UpdateQuantity(ctx, "p1", tt.quantity)

			if tt.wantErr {
				var stockErr *StockLimitError
				if !errors.As(err, &stockErr) {
					t.Fatalf("expected StockLimitError, got: %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			cart := svc.Snapshot()
			if tt.wantGone {
				if len(cart.Items) != 0 {
					t.Errorf("expected line removed, got %d lines", len(cart.Items))
				}
				return
			}
			if cart.Items[0].Quantity != tt.wantQty {
				t.Errorf("expected quantity %d, got %d", tt.wantQty, cart.Items[0].Quantity)
			}
		})
	}
}

func TestRemoveItem_Idempotent(t *testing.T) {
	repo := &mockCartRepo{}
	svc := NewCartService(repo)
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 1)
	if err := svc.RemoveItem(ctx, "p1"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	saves := repo.saves

	// absent product is a no-op, not an error, and does not re-persist
	if err := svc.RemoveItem(ctx, "p1"); err != nil {
		t.Errorf("second remove errored: %v", err)
	}
	if repo.saves != saves {
		t.Errorf("no-op remove persisted the cart")
	}
}

func TestRefreshStock_ClampsSilently(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	svc.AddItem(ctx, trackedItem("p1", "org-1", 500, 10), 8)
	svc.AddItem(ctx, testItem("p2", "org-1", 300), 2)

	err := svc.RefreshStock(ctx, []domain.StockSnapshot{
		{ProductID: "p1", CurrentStock: 3, InventoryEnabled: true},
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	cart := svc.Snapshot()
	if cart.Items[0].Quantity != 3 {
		t.Errorf("expected clamped quantity 3, got %d", cart.Items[0].Quantity)
	}
	if *cart.Items[0].CurrentStock != 3 {
		t.Errorf("expected stock snapshot 3, got %d", *cart.Items[0].CurrentStock)
	}
	if cart.Items[1].Quantity != 2 {
		t.Errorf("line without snapshot was touched: quantity %d", cart.Items[1].Quantity)
	}
	if len(cart.Items) != 2 {
		t.Errorf("refresh must never remove lines, got %d", len(cart.Items))
	}
}

func TestRefreshStock_InventoryDisabledNeverClamps(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 8)
	err := svc.RefreshStock(ctx, []domain.StockSnapshot{
		{ProductID: "p1", CurrentStock: 3, InventoryEnabled: false},
	})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	cart := svc.Snapshot()
	if cart.Items[0].Quantity != 8 {
		t.Errorf("expected quantity 8 untouched, got %d", cart.Items[0].Quantity)
	}
	if cart.Items[0].CurrentStock == nil || *cart.Items[0].CurrentStock != 3 {
		t.Error("snapshot fields not updated")
	}
}

func TestTotalsArePure(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 2)
	svc.AddItem(ctx, testItem("p2", "org-1", 300), 3)

	wantTotal, wantCount := 500.0*2+300*3, 5
	for i := 0; i < 3; i++ {
		if got := svc.TotalPrice(); got != wantTotal {
			t.Errorf("call %d: expected total %.0f, got %.0f", i, wantTotal, got)
		}
		if got := svc.ItemCount(); got != wantCount {
			t.Errorf("call %d: expected count %d, got %d", i, wantCount, got)
		}
	}
}

func TestClearCart_KeepsCheckoutFields(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 1)
	svc.SetDeliveryLocation(ctx, "Kigali Heights")
	svc.SetOrderNotes(ctx, "call on arrival")

	if err := svc.ClearCart(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	cart := svc.Snapshot()
	if len(cart.Items) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(cart.Items))
	}
	if cart.DeliveryLocation != "Kigali Heights" || cart.OrderNotes != "call on arrival" {
		t.Error("clear must not touch checkout fields")
	}

	if err := svc.ResetCheckoutFields(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	cart = svc.Snapshot()
	if cart.DeliveryLocation != "" || cart.OrderNotes != "" {
		t.Error("checkout fields not reset")
	}
}

func TestPersistFailureLeavesCartUntouched(t *testing.T) {
	repo := &mockCartRepo{}
	svc := NewCartService(repo)
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 1)
	before := svc.Snapshot()

	repo.saveErr = errors.New("storage down")
	if err := svc.AddItem(ctx, testItem("p2", "org-1", 300), 1); err == nil {
		t.Fatal("expected persist error")
	}

	if !reflect.DeepEqual(before, svc.Snapshot()) {
		t.Error("cart mutated despite failed persist")
	}
}

func TestRestore(t *testing.T) {
	repo := &mockCartRepo{saved: &domain.Cart{
		Items:            []domain.CartItem{testItem("p1", "org-1", 500)},
		DeliveryLocation: "Remera",
	}}
	repo.saved.Items[0].Quantity = 2

	svc := NewCartService(repo)
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	cart := svc.Snapshot()
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Errorf("restored cart wrong: %+v", cart.Items)
	}
	if cart.DeliveryLocation != "Remera" {
		t.Errorf("expected delivery location restored, got %q", cart.DeliveryLocation)
	}
}

func TestUpdateNotes(t *testing.T) {
	svc := NewCartService(&mockCartRepo{})
	ctx := context.Background()

	svc.AddItem(ctx, testItem("p1", "org-1", 500), 1)
	if err := svc.UpdateNotes(ctx, "p1", "no onions"); err != nil {
		t.Fatalf("update notes failed: %v", err)
	}
	if got := svc.Snapshot().Items[0].Notes; got != "no onions" {
		t.Errorf("expected notes set, got %q", got)
	}
}
