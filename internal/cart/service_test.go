package cart_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hushimx/hostservice-cart/internal/cart"
	"github.com/hushimx/hostservice-cart/internal/cartstore"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newService(t *testing.T, store cart.Store) *cart.Service {
	t.Helper()
	svc := cart.NewService(store, testLogger())
	t.Cleanup(svc.Flush)
	return svc
}

func mustSetIdentity(t *testing.T, svc *cart.Service, locationID, vendorID string) {
	t.Helper()
	if err := svc.SetIdentity(context.Background(), locationID, vendorID); err != nil {
		t.Fatalf("set identity %s/%s: %v", locationID, vendorID, err)
	}
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")

	p := cart.Product{ProductID: "p1", Name: "Burger", UnitPrice: 10}
	if err := svc.AddItem(p); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.AddItem(p); err != nil {
		t.Fatalf("add item again: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("expected one line item, got %d", len(snap.Items))
	}
	if snap.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", snap.Items[0].Quantity)
	}
	if got := svc.Total(); got != 20 {
		t.Fatalf("expected total 20, got %v", got)
	}
}

func TestUpdateQuantityRemovesAtZero(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")

	p := cart.Product{ProductID: "p1", UnitPrice: 10}
	_ = svc.AddItem(p)
	_ = svc.AddItem(p)

	if err := svc.UpdateQuantity("p1", -2); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap.Items) != 0 {
		t.Fatalf("expected item removed, got %+v", snap.Items)
	}
	if got := svc.Total(); got != 0 {
		t.Fatalf("expected total 0, got %v", got)
	}
}

func TestQuantityNeverObservedBelowOne(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")

	_ = svc.AddItem(cart.Product{ProductID: "p1", UnitPrice: 5})

	deltas := []int{3, -1, -5, 2, -10}
	for _, d := range deltas {
		if err := svc.UpdateQuantity("p1", d); err != nil {
			t.Fatalf("update quantity %d: %v", d, err)
		}
		for _, it := range svc.Snapshot().Items {
			if it.Quantity < 1 {
				t.Fatalf("observed quantity %d after delta %d", it.Quantity, d)
			}
		}
	}
}

func TestSwitchingIdentityPartitionsCarts(t *testing.T) {
	store := cartstore.NewMemory()
	svc := newService(t, store)

	mustSetIdentity(t, svc, "hotel-1", "vendor-9")
	_ = svc.AddItem(cart.Product{ProductID: "p1", Name: "Burger", UnitPrice: 10})

	// New partition starts empty, no merge.
	mustSetIdentity(t, svc, "hotel-1", "vendor-10")
	if snap := svc.Snapshot(); len(snap.Items) != 0 {
		t.Fatalf("expected empty cart for new partition, got %+v", snap.Items)
	}
	_ = svc.AddItem(cart.Product{ProductID: "p9", UnitPrice: 3})

	// Switching back restores the original cart from the store.
	svc.Flush()
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")
	snap := svc.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ProductID != "p1" || snap.Items[0].Quantity != 1 {
		t.Fatalf("expected original item back, got %+v", snap.Items)
	}
}

func TestMutatingOnePartitionLeavesOthersUntouched(t *testing.T) {
	store := cartstore.NewMemory()
	svc := newService(t, store)

	mustSetIdentity(t, svc, "hotel-1", "vendor-9")
	_ = svc.AddItem(cart.Product{ProductID: "p1", UnitPrice: 10})
	svc.Flush()

	mustSetIdentity(t, svc, "hotel-2", "vendor-9")
	_ = svc.AddItem(cart.Product{ProductID: "p2", UnitPrice: 4})
	_ = svc.UpdateQuantity("p2", 5)
	_ = svc.Clear()
	svc.Flush()

	other, err := store.Load(context.Background(), cart.Identity{LocationID: "hotel-1", VendorID: "vendor-9"}.StorageKey())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if other == nil || len(other.Items) != 1 || other.Items[0].ProductID != "p1" {
		t.Fatalf("sibling partition changed: %+v", other)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")

	_ = svc.AddItem(cart.Product{ProductID: "p1", UnitPrice: 10})

	for i := 0; i < 2; i++ {
		if err := svc.Clear(); err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
		if got := svc.Total(); got != 0 {
			t.Fatalf("clear #%d: expected total 0, got %v", i+1, got)
		}
		if snap := svc.Snapshot(); len(snap.Items) != 0 {
			t.Fatalf("clear #%d: expected no items, got %+v", i+1, snap.Items)
		}
	}
}

func TestClearPersistsEmptyRecord(t *testing.T) {
	store := cartstore.NewMemory()
	svc := newService(t, store)
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")

	_ = svc.AddItem(cart.Product{ProductID: "p1", UnitPrice: 10})
	_ = svc.Clear()
	svc.Flush()

	key := cart.Identity{LocationID: "hotel-1", VendorID: "vendor-9"}.StorageKey()
	persisted, err := store.Load(context.Background(), key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if persisted == nil {
		t.Fatalf("expected an empty persisted record, got none")
	}
	if len(persisted.Items) != 0 {
		t.Fatalf("expected empty items, got %+v", persisted.Items)
	}
}

func TestMutationsBeforeIdentityAreRejected(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())

	if err := svc.AddItem(cart.Product{ProductID: "p1"}); err != cart.ErrNoActiveCart {
		t.Fatalf("expected ErrNoActiveCart, got %v", err)
	}
	if err := svc.Clear(); err != cart.ErrNoActiveCart {
		t.Fatalf("expected ErrNoActiveCart, got %v", err)
	}
}

func TestUnknownProductMutationsAreNoOps(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")
	_ = svc.AddItem(cart.Product{ProductID: "p1", UnitPrice: 10})

	if err := svc.UpdateQuantity("missing", -3); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if err := svc.RemoveItem("missing"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
	if err := svc.AddItem(cart.Product{}); err != nil {
		t.Fatalf("expected no-op for empty product id, got %v", err)
	}

	if snap := svc.Snapshot(); len(snap.Items) != 1 || snap.Items[0].Quantity != 1 {
		t.Fatalf("no-op mutated the cart: %+v", snap.Items)
	}
}

func TestSetIdentityValidatesParts(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())

	if err := svc.SetIdentity(context.Background(), "", "vendor-9"); err != cart.ErrInvalidIdentity {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
	if err := svc.SetIdentity(context.Background(), "hotel-1", ""); err != cart.ErrInvalidIdentity {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	svc := newService(t, cartstore.NewMemory())
	mustSetIdentity(t, svc, "hotel-1", "vendor-9")

	for _, id := range []string{"p3", "p1", "p2"} {
		_ = svc.AddItem(cart.Product{ProductID: id, UnitPrice: 1})
	}
	_ = svc.AddItem(cart.Product{ProductID: "p1", UnitPrice: 1})

	snap := svc.Snapshot()
	want := []string{"p3", "p1", "p2"}
	if len(snap.Items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(snap.Items))
	}
	for i, id := range want {
		if snap.Items[i].ProductID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, snap.Items[i].ProductID)
		}
	}
}
