package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type saver interface {
	Save(ctx context.Context, key string, c *Cart) error
}

// writeQueue serializes write-throughs per storage key so that writes land in
// call order even when the backing store completes them asynchronously. A slow
// save for one identity never delays writes for another, and a write already
// in flight when the active identity switches still targets its original key.
type writeQueue struct {
	store   saver
	log     logrus.FieldLogger
	timeout time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	pending map[string][]*Cart
	active  map[string]bool
	wg      sync.WaitGroup
}

func newWriteQueue(store saver, log logrus.FieldLogger, timeout time.Duration) *writeQueue {
	q := &writeQueue{
		store:   store,
		log:     log,
		timeout: timeout,
		pending: make(map[string][]*Cart),
		active:  make(map[string]bool),
	}
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Enqueue schedules a full-overwrite save of snapshot under key. The snapshot
// must not be mutated after it is handed over.
func (q *writeQueue) Enqueue(key string, snapshot *Cart) {
	q.mu.Lock()
	q.pending[key] = append(q.pending[key], snapshot)
	if q.active[key] {
		q.mu.Unlock()
		return
	}
	q.active[key] = true
	q.wg.Add(1)
	q.mu.Unlock()

	go q.drain(key)
}

func (q *writeQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		queue := q.pending[key]
		if len(queue) == 0 {
			delete(q.pending, key)
			delete(q.active, key)
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}
		next := queue[0]
		q.pending[key] = queue[1:]
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.store.Save(ctx, key, next); err != nil {
			// In-memory state stays authoritative for the session; a failed
			// write is overwritten by the next successful one.
			q.log.WithError(err).WithField("key", key).Warn("cart write-through failed")
		}
		cancel()
	}
}

// FlushKey blocks until no write for key is pending or in flight. Loading a
// partition after FlushKey observes every write enqueued for it before the
// call (read-your-writes across identity switches).
func (q *writeQueue) FlushKey(key string) {
	q.mu.Lock()
	for q.active[key] || len(q.pending[key]) > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// Wait blocks until every enqueued write has completed.
func (q *writeQueue) Wait() {
	q.wg.Wait()
}
