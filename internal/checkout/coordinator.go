package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hushimx/hostservice-cart/internal/cart"
)

// State tracks the current checkout attempt: Idle until Submit is called,
// Submitting while the order API call is in flight, then Confirmed or
// Failed. Failed returns to Submitting on retry; Confirmed is terminal for
// that attempt and the next Submit starts fresh.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateConfirmed  State = "confirmed"
	StateFailed     State = "failed"
)

// Submitter delegates the order to the remote order API.
type Submitter interface {
	SubmitOrder(ctx context.Context, o *Order) (*Confirmation, error)
}

// CartSource is the slice of the cart service the coordinator needs: a
// consistent snapshot to build the payload from, and Clear as its only
// mutation, invoked on confirmed submission.
type CartSource interface {
	Snapshot() *cart.Cart
	Clear() error
}

// EventsPublisher announces a confirmed checkout. Optional; publish
// failures are logged, never surfaced as checkout failures.
type EventsPublisher interface {
	PublishCartCheckedOut(ctx context.Context, o *Order) error
}

// Coordinator drives one session's checkout flow. Every Submit takes a
// fresh snapshot of the cart, so a retry after failure reflects whatever
// the guest changed in between rather than resubmitting a stale payload.
type Coordinator struct {
	carts   CartSource
	orders  Submitter
	events  EventsPublisher
	log     logrus.FieldLogger
	timeout time.Duration

	mu    sync.Mutex
	state State
}

func NewCoordinator(carts CartSource, orders Submitter, events EventsPublisher, log logrus.FieldLogger, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Coordinator{
		carts:   carts,
		orders:  orders,
		events:  events,
		log:     log,
		timeout: timeout,
		state:   StateIdle,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit snapshots the cart, validates it, and submits the order with the
// configured timeout. On success the cart is cleared and the checkout event
// published; on failure the cart is left untouched so the guest can retry.
func (c *Coordinator) Submit(ctx context.Context, paymentMethod string) (*Confirmation, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	c.state = StateSubmitting
	c.mu.Unlock()

	order, err := PrepareOrder(c.carts.Snapshot(), paymentMethod)
	if err != nil {
		c.setState(StateIdle)
		return nil, err
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conf, err := c.orders.SubmitOrder(submitCtx, order)
	if err != nil {
		c.setState(StateFailed)
		return nil, c.asSubmissionError(err)
	}

	c.setState(StateConfirmed)

	if err := c.carts.Clear(); err != nil {
		c.log.WithError(err).Warn("clear cart after confirmed order")
	}
	if c.events != nil {
		if err := c.events.PublishCartCheckedOut(ctx, order); err != nil {
			c.log.WithError(err).WithField("orderId", order.OrderID).Warn("publish cart checked out")
		}
	}

	return conf, nil
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// asSubmissionError normalizes submitter failures. Deadline expiry becomes a
// retryable timeout; anything not already classified is treated as a
// retryable transport failure.
func (c *Coordinator) asSubmissionError(err error) error {
	var subErr *SubmissionError
	if errors.As(err, &subErr) {
		return subErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &SubmissionError{Retryable: true, Timeout: true, Err: err}
	}
	return &SubmissionError{Retryable: true, Err: err}
}
