package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/hushimx/hostservice-cart/internal/cart"
)

// Order is the immutable submission payload built from a cart snapshot. The
// items and total come from the same snapshot, so no mutation can slip in
// between total computation and payload construction.
type Order struct {
	OrderID       string          `json:"orderId"`
	LocationID    string          `json:"locationId"`
	VendorID      string          `json:"vendorId"`
	Items         []cart.LineItem `json:"items"`
	Total         float64         `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Confirmation is what the remote order API returns on success.
type Confirmation struct {
	OrderID   string    `json:"orderId"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
}

// PrepareOrder validates the snapshot and payment method and builds the
// submission payload. It fails with ErrEmptyCart or ErrNoPaymentMethod and
// never touches the network.
func PrepareOrder(snapshot *cart.Cart, paymentMethod string) (*Order, error) {
	if snapshot == nil || len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if paymentMethod == "" {
		return nil, ErrNoPaymentMethod
	}

	items := make([]cart.LineItem, len(snapshot.Items))
	copy(items, snapshot.Items)

	return &Order{
		OrderID:       uuid.NewString(),
		LocationID:    snapshot.Identity.LocationID,
		VendorID:      snapshot.Identity.VendorID,
		Items:         items,
		Total:         snapshot.Total(),
		PaymentMethod: paymentMethod,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// StorageKey returns the identity partition key the order was built from.
func (o *Order) StorageKey() string {
	return cart.Identity{LocationID: o.LocationID, VendorID: o.VendorID}.StorageKey()
}
