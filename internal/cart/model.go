package cart

import "net/url"

// Identity is the (location, vendor) pair that scopes exactly one cart.
// A guest browsing vendor "v" while staying at location "l" always lands
// on the same cart, and carts for distinct pairs never mix.
type Identity struct {
	LocationID string `json:"locationId"`
	VendorID   string `json:"vendorId"`
}

func (id Identity) IsZero() bool {
	return id.LocationID == "" && id.VendorID == ""
}

// StorageKey derives the durable storage key for this identity. Both parts
// are escaped so IDs containing the separator cannot collide across pairs.
func (id Identity) StorageKey() string {
	return "cart:" + url.QueryEscape(id.LocationID) + ":" + url.QueryEscape(id.VendorID)
}

// Product is what the storefront hands us when the guest taps "add".
type Product struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image,omitempty"`
}

type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

// Cart is the persisted shape of one identity's cart. Items are unique by
// ProductID and keep insertion order. The total is always derived, never stored.
type Cart struct {
	Identity Identity   `json:"identity"`
	Items    []LineItem `json:"items"`
}

func (c *Cart) Total() float64 {
	total := 0.0
	for _, it := range c.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// Clone returns a deep copy so callers can hold a snapshot while the
// live cart keeps mutating.
func (c *Cart) Clone() *Cart {
	cp := &Cart{Identity: c.Identity}
	if len(c.Items) > 0 {
		cp.Items = make([]LineItem, len(c.Items))
		copy(cp.Items, c.Items)
	}
	return cp
}
