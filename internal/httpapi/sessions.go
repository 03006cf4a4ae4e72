package httpapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/hushimx/hostservice-cart/internal/cart"
	"github.com/hushimx/hostservice-cart/internal/checkout"
)

const sessionCookieName = "cart_session"

// Session bundles the per-guest cart state machine with its checkout
// coordinator. Requests within one session are handled in call order; the
// cart service itself guards against overlap.
type Session struct {
	Cart     *cart.Service
	Checkout *checkout.Coordinator
}

// SessionFactory builds a fresh session wired to the shared store,
// submitter and publisher.
type SessionFactory func() *Session

// Sessions maps session ids (issued as cookies) to live sessions. State is
// in-memory; the carts themselves are durable, so a lost session only costs
// the active-identity selection.
type Sessions struct {
	newFn SessionFactory

	mu   sync.Mutex
	byID map[string]*Session
}

func NewSessions(newFn SessionFactory) *Sessions {
	return &Sessions{
		newFn: newFn,
		byID:  make(map[string]*Session),
	}
}

func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		sess = s.newFn()
		s.byID[id] = sess
	}
	return sess
}

// resolve returns the request's session, issuing a new session cookie when
// none is present.
func (s *Sessions) resolve(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return s.Get(c.Value)
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	return s.Get(id)
}
