package orderapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hushimx/hostservice-cart/internal/cart"
	"github.com/hushimx/hostservice-cart/internal/checkout"
	"github.com/hushimx/hostservice-cart/internal/orderapi"
)

func testOrder() *checkout.Order {
	return &checkout.Order{
		OrderID:       "order-1",
		LocationID:    "hotel-1",
		VendorID:      "vendor-9",
		Items:         []cart.LineItem{{ProductID: "p1", UnitPrice: 10, Quantity: 2}},
		Total:         20,
		PaymentMethod: "Cash",
	}
}

func TestSubmitOrder_Success(t *testing.T) {
	var gotAuth string
	var gotBody checkout.Order
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(checkout.Confirmation{OrderID: gotBody.OrderID, Reference: "ref-42"})
	}))
	defer srv.Close()

	client, err := orderapi.NewClient(srv.URL, "secret-token", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	conf, err := client.SubmitOrder(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if conf.Reference != "ref-42" || conf.OrderID != "order-1" {
		t.Fatalf("unexpected confirmation %+v", conf)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("expected bearer credential, got %q", gotAuth)
	}
	if gotBody.Total != 20 || len(gotBody.Items) != 1 {
		t.Fatalf("unexpected submitted payload %+v", gotBody)
	}
}

func TestSubmitOrder_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := orderapi.NewClient(srv.URL, "", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.SubmitOrder(context.Background(), testOrder())
	var subErr *checkout.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if !subErr.Retryable || subErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected retryable 500, got %+v", subErr)
	}
}

func TestSubmitOrder_ClientErrorsAreNotRetryable(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusUnprocessableEntity} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no", status)
		}))

		client, err := orderapi.NewClient(srv.URL, "", srv.Client())
		if err != nil {
			t.Fatalf("new client: %v", err)
		}

		_, err = client.SubmitOrder(context.Background(), testOrder())
		srv.Close()

		var subErr *checkout.SubmissionError
		if !errors.As(err, &subErr) {
			t.Fatalf("status %d: expected SubmissionError, got %v", status, err)
		}
		if subErr.Retryable || subErr.StatusCode != status {
			t.Fatalf("status %d: expected non-retryable, got %+v", status, subErr)
		}
	}
}

func TestSubmitOrder_DeadlineTaggedAsTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client, err := orderapi.NewClient(srv.URL, "", srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.SubmitOrder(ctx, testOrder())
	var subErr *checkout.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if !subErr.Timeout || !subErr.Retryable {
		t.Fatalf("expected retryable timeout, got %+v", subErr)
	}
}

func TestSubmitOrder_NetworkFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	client, err := orderapi.NewClient(srv.URL, "", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.SubmitOrder(context.Background(), testOrder())
	var subErr *checkout.SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if !subErr.Retryable {
		t.Fatalf("expected retryable transport failure, got %+v", subErr)
	}
}
