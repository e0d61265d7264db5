// Package portone is a minimal client for the payment provider's query API.
package portone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.portone.io"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

var ErrPaymentNotFound = errors.New("payment not found at provider")

// Provider status vocabulary.
const (
	StatusReady                = "READY"
	StatusPayPending           = "PAY_PENDING"
	StatusVirtualAccountIssued = "VIRTUAL_ACCOUNT_ISSUED"
	StatusPaid                 = "PAID"
	StatusFailed               = "FAILED"
	StatusPartialCancelled     = "PARTIAL_CANCELLED"
	StatusCancelled            = "CANCELLED"
)

type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Type == "" && e.Message == "" {
		return fmt.Sprintf("portone: http %d", e.StatusCode)
	}
	return fmt.Sprintf("portone: http %d: %s: %s", e.StatusCode, e.Type, e.Message)
}

type Amount struct {
	Total     int64 `json:"total"`
	Paid      int64 `json:"paid"`
	Cancelled int64 `json:"cancelled"`
}

// Payment is the subset of the provider payment resource the service reads.
// Raw holds the full response body for the audit snapshot.
type Payment struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId"`
	StoreID       string  `json:"storeId"`
	Amount        *Amount `json:"amount"`
	Currency      string  `json:"currency"`

	Raw json.RawMessage `json:"-"`
}

// ChargedAmount is the total the provider reports, or nil when absent.
func (p *Payment) ChargedAmount() *int64 {
	if p.Amount == nil {
		return nil
	}
	total := p.Amount.Total
	return &total
}

type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outbound queries per second. rps <= 0 disables the cap.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL, secret string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPayment fetches the authoritative payment resource. It never retries;
// the provider's webhook redelivery is the retry mechanism.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("portone rate limit: %w", err)
		}
	}

	endpoint := c.baseURL + "/payments/" + url.PathEscape(paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "PortOne "+c.secret)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portone get payment %s: %w", paymentID, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read portone response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		if res.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", ErrPaymentNotFound, apiErr)
		}
		return nil, apiErr
	}

	var p Payment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode portone payment: %w", err)
	}
	p.Raw = json.RawMessage(body)
	return &p, nil
}
