// Package orderapi is the HTTP client for the remote order submission API.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hushimx/hostservice-cart/internal/checkout"
)

// Client submits orders over HTTPS with a bearer credential. HTTP failures
// are mapped to checkout.SubmissionError: 5xx and transport errors are
// retryable, 4xx (including 401) are not, and a deadline expiry is tagged as
// a timeout.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid order api base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, token: token, http: httpClient}, nil
}

func (c *Client) SubmitOrder(ctx context.Context, o *checkout.Order) (*checkout.Confirmation, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	u := c.baseURL.ResolveReference(&url.URL{Path: "/api/orders"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &checkout.SubmissionError{Retryable: true, Timeout: true, Err: err}
		}
		return nil, &checkout.SubmissionError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &checkout.SubmissionError{
			StatusCode: resp.StatusCode,
			Retryable:  resp.StatusCode >= 500,
		}
	}

	var conf checkout.Confirmation
	if err := json.NewDecoder(resp.Body).Decode(&conf); err != nil {
		return nil, &checkout.SubmissionError{Retryable: true, Err: fmt.Errorf("decode confirmation: %w", err)}
	}
	return &conf, nil
}
