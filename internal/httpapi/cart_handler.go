package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hushimx/hostservice-cart/internal/cart"
	"github.com/hushimx/hostservice-cart/internal/checkout"
)

type CartHandler struct {
	sessions *Sessions
}

func NewCartHandler(sessions *Sessions) *CartHandler {
	return &CartHandler{sessions: sessions}
}

// cartView is the response shape for every cart read: the live state plus
// the freshly recomputed total.
type cartView struct {
	Identity cart.Identity   `json:"identity"`
	Items    []cart.LineItem `json:"items"`
	Total    float64         `json:"total"`
}

func viewOf(s *Session) cartView {
	snap := s.Cart.Snapshot()
	items := snap.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartView{Identity: snap.Identity, Items: items, Total: snap.Total()}
}

// enterCart points the session's cart at the identity in the request path.
func (h *CartHandler) enterCart(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	locationID := chi.URLParam(r, "locationId")
	vendorID := chi.URLParam(r, "vendorId")

	sess := h.sessions.resolve(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := sess.Cart.SetIdentity(ctx, locationID, vendorID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid cart identity")
		return nil, false
	}
	return sess, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.enterCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.enterCart(w, r)
	if !ok {
		return
	}

	var body cart.Product
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	if body.UnitPrice < 0 {
		writeError(w, http.StatusBadRequest, "unitPrice must be >= 0")
		return
	}

	if err := sess.Cart.AddItem(body); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.enterCart(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	var body struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := sess.Cart.UpdateQuantity(productID, body.Delta); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update quantity")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.enterCart(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	if err := sess.Cart.RemoveItem(productID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.enterCart(w, r)
	if !ok {
		return
	}

	if err := sess.Cart.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.enterCart(w, r)
	if !ok {
		return
	}

	var body struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	conf, err := sess.Checkout.Submit(r.Context(), body.PaymentMethod)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "confirmed",
		"confirmation": conf,
	})
}

func (h *CartHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, "cart is empty")
	case errors.Is(err, checkout.ErrNoPaymentMethod):
		writeError(w, http.StatusUnprocessableEntity, "no payment method selected")
	case errors.Is(err, checkout.ErrSubmitInProgress):
		writeError(w, http.StatusConflict, "checkout already in progress")
	default:
		var subErr *checkout.SubmissionError
		if errors.As(err, &subErr) {
			status := http.StatusBadGateway
			if subErr.Timeout {
				status = http.StatusGatewayTimeout
			}
			writeJSON(w, status, map[string]any{
				"error":     "order submission failed",
				"retryable": subErr.Retryable,
				"timeout":   subErr.Timeout,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "checkout failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
