package domain

// CartItem is one product line in the cart. CurrentStock is nil until a
// stock snapshot has been seen for the product.
type CartItem struct {
	ProductID        string   `json:"productId"`
	ProductName      string   `json:"productName"`
	ProductSlug      string   `json:"productSlug"`
	ProductImages    []string `json:"productImages"`
	OrganizationID   string   `json:"organizationId"`
	Price            float64  `json:"price"`
	Category         string   `json:"category"`
	Quantity         int      `json:"quantity"`
	CurrentStock     *int     `json:"currentStock,omitempty"`
	InventoryEnabled bool     `json:"inventoryEnabled"`
	Notes            string   `json:"notes,omitempty"`
}

// Cart is the persisted aggregate: ordered line items plus the two
// checkout-scoped fields. Derived values (totals, counts) are never stored.
type Cart struct {
	Items            []CartItem `json:"items"`
	DeliveryLocation string     `json:"deliveryLocation"`
	OrderNotes       string     `json:"orderNotes"`
}

// OrganizationID returns the merchant scope of the cart, or "" when empty.
func (c *Cart) OrganizationID() string {
	if len(c.Items) == 0 {
		return ""
	}
	return c.Items[0].OrganizationID
}

// Find returns the line with the given product ID, or nil.
func (c *Cart) Find(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := &Cart{
		DeliveryLocation: c.DeliveryLocation,
		OrderNotes:       c.OrderNotes,
	}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		copy(out.Items, c.Items)
		for i := range out.Items {
			if c.Items[i].CurrentStock != nil {
				stock := *c.Items[i].CurrentStock
				out.Items[i].CurrentStock = &stock
			}
			if c.Items[i].ProductImages != nil {
				out.Items[i].ProductImages = append([]string(nil), c.Items[i].ProductImages...)
			}
		}
	}
	return out
}

// ProductIDs returns the product IDs of all lines in cart order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for i := range c.Items {
		ids = append(ids, c.Items[i].ProductID)
	}
	return ids
}

// StockSnapshot is the server-reported inventory truth for one product,
// used to reconcile cart quantities.
type StockSnapshot struct {
	ProductID        string `json:"id"`
	CurrentStock     int    `json:"currentStock"`
	InventoryEnabled bool   `json:"inventoryEnabled"`
}
