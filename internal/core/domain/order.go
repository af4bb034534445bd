package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderLine is one line of an order-creation request, built from a cart line.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

// OrderRequest is the payload for placing an order.
type OrderRequest struct {
	Items            []OrderLine `json:"items"`
	Notes            string      `json:"notes,omitempty"`
	DeliveryLocation string      `json:"deliveryLocation,omitempty"`
}

// OrderSummary is what the server returns once an order is placed.
// StockWarnings carries per-line notices (e.g. a quantity reduced
// server-side) and may be empty.
type OrderSummary struct {
	OrderID          string   `json:"orderId"`
	OrderNumber      int      `json:"orderNumber"`
	TotalPrice       string   `json:"totalPrice"`
	DeliveryLocation string   `json:"deliveryLocation"`
	StockWarnings    []string `json:"stockWarnings,omitempty"`
}

// Order is the detail view of a placed order.
type Order struct {
	ID        string      `json:"id"`
	Status    OrderStatus `json:"status"`
	IsPaid    bool        `json:"isPaid"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CanPay reports whether a payment may be initiated for the order.
func (o *Order) CanPay() bool {
	return o.Status == OrderStatusConfirmed && !o.IsPaid
}

// CanCancel reports whether the order may still be cancelled.
func (o *Order) CanCancel() bool {
	return o.Status != OrderStatusCancelled && o.Status != OrderStatusDelivered
}
