package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNoActiveCart is returned when a mutation arrives before any
	// identity has been set.
	ErrNoActiveCart = errors.New("no active cart identity")

	// ErrInvalidIdentity is returned for an identity with a missing part.
	ErrInvalidIdentity = errors.New("location and vendor ids are required")
)

// Store is the persistence contract the service writes through to. Load
// reports "no cart yet" as (nil, nil); a decode failure is treated the same
// way by implementations rather than surfaced.
type Store interface {
	Load(ctx context.Context, key string) (*Cart, error)
	Save(ctx context.Context, key string, c *Cart) error
}

// Service holds the cart for the currently active identity and writes every
// mutation through to the store. It starts without an identity; SetIdentity
// switches partitions by loading the target cart, never by merging.
//
// One Service instance belongs to one guest session. Mutations are applied
// in call order; persistence is serialized per storage key by the write
// queue so completion reordering cannot clobber a later write.
type Service struct {
	store Store
	queue *writeQueue
	log   logrus.FieldLogger

	mu       sync.Mutex
	identity Identity
	items    []LineItem
	active   bool
}

func NewService(store Store, log logrus.FieldLogger) *Service {
	return &Service{
		store: store,
		queue: newWriteQueue(store, log, 5*time.Second),
		log:   log,
	}
}

// SetIdentity makes (locationID, vendorID) the active partition. Switching
// discards the in-memory items and loads whatever is persisted for the new
// pair; setting the identity already active is a no-op. A load failure is
// treated as "no cart yet" — the store stays authoritative only for what it
// can actually return.
func (s *Service) SetIdentity(ctx context.Context, locationID, vendorID string) error {
	if locationID == "" || vendorID == "" {
		return ErrInvalidIdentity
	}
	next := Identity{LocationID: locationID, VendorID: vendorID}

	s.mu.Lock()
	if s.active && s.identity == next {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	// A write for the target partition may still be in flight from an
	// earlier visit; loading before it lands would resurrect stale state.
	s.queue.FlushKey(next.StorageKey())

	loaded, err := s.store.Load(ctx, next.StorageKey())
	if err != nil {
		s.log.WithError(err).WithField("key", next.StorageKey()).Warn("cart load failed, starting empty")
		loaded = nil
	}

	s.mu.Lock()
	s.identity = next
	s.active = true
	s.items = nil
	if loaded != nil && len(loaded.Items) > 0 {
		s.items = make([]LineItem, len(loaded.Items))
		copy(s.items, loaded.Items)
	}
	s.mu.Unlock()
	return nil
}

// Identity returns the active identity and whether one has been set.
func (s *Service) Identity() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.active
}

// AddItem increments the quantity of an existing line or appends a new one
// with quantity 1. New lines keep insertion order. An empty product id is a
// no-op by contract, not an error.
func (s *Service) AddItem(p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoActiveCart
	}
	if p.ProductID == "" {
		return nil
	}

	for i := range s.items {
		if s.items[i].ProductID == p.ProductID {
			s.items[i].Quantity++
			s.persistLocked()
			return nil
		}
	}
	s.items = append(s.items, LineItem{
		ProductID: p.ProductID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		Image:     p.Image,
		Quantity:  1,
	})
	s.persistLocked()
	return nil
}

// UpdateQuantity applies an integer delta to a line's quantity. A result of
// zero or below removes the line; an unknown product id is a no-op.
func (s *Service) UpdateQuantity(productID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoActiveCart
	}

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if s.items[i].Quantity+delta <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity += delta
		}
		s.persistLocked()
		return nil
	}
	return nil
}

// RemoveItem drops the line for productID if present; no-op otherwise.
func (s *Service) RemoveItem(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoActiveCart
	}

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked()
			return nil
		}
	}
	return nil
}

// Clear empties the active partition and persists the empty state. The
// persisted record remains, holding zero items.
func (s *Service) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return ErrNoActiveCart
	}
	s.items = nil
	s.persistLocked()
	return nil
}

// Total recomputes the cart total on every call.
func (s *Service) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0.0
	for _, it := range s.items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}

// Snapshot returns an immutable copy of the active cart taken at a single
// instant; identity, items and the total derived from it are consistent.
func (s *Service) Snapshot() *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) snapshotLocked() *Cart {
	c := &Cart{Identity: s.identity}
	if len(s.items) > 0 {
		c.Items = make([]LineItem, len(s.items))
		copy(c.Items, s.items)
	}
	return c
}

// persistLocked enqueues a write-through of the current state. Callers hold s.mu.
func (s *Service) persistLocked() {
	s.queue.Enqueue(s.identity.StorageKey(), s.snapshotLocked())
}

// Flush blocks until all pending write-throughs have completed. Used on
// shutdown and by tests that assert on persisted state.
func (s *Service) Flush() {
	s.queue.Wait()
}
