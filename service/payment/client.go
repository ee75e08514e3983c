package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds one gateway call. A charge is not safely retryable
// without an idempotency key, so the client never retries; a timeout or
// malformed response is reported as a transport failure and the caller decides
// what to tell the customer.
const DefaultTimeout = 10 * time.Second

// ChargeRequest carries the fields Fakepay expects for a one-off charge.
// Amount is in the smallest currency unit.
type ChargeRequest struct {
	Amount          int    `json:"amount"`
	CardNumber      string `json:"card_number"`
	CVV             string `json:"cvv"`
	ExpirationMonth string `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
	ZipCode         string `json:"zip_code"`
}

// Decline is a charge the gateway processed and rejected. The code indexes
// into the gateway error catalog.
type Decline struct {
	Code int
}

// Result is the outcome of a charge that reached the gateway and came back
// well-formed: either an approval carrying the billing token, or a decline.
// Transport-level failures are returned as errors instead, because the
// gateway's state is unknown in that case.
type Result struct {
	Token    string
	Declined *Decline
}

// Approved reports whether the charge went through.
func (r Result) Approved() bool {
	return r.Declined == nil
}

type chargeResponse struct {
	Token     string `json:"token"`
	Success   bool   `json:"success"`
	ErrorCode *int   `json:"error_code"`
}

// Client talks to the Fakepay purchase API.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

// NewClient builds a gateway client for the given purchase URL and pre-shared
// API key.
func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: DefaultTimeout},
	}
}

// Charge submits one purchase to the gateway. No retries are performed on any
// failure path.
func (c *Client) Charge(ctx context.Context, charge ChargeRequest) (Result, error) {
	body, err := json.Marshal(charge)
	if err != nil {
		return Result{}, fmt.Errorf("encoding charge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("building charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token token="+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("calling payment gateway: %w", err)
	}
	defer resp.Body.Close()

	var parsed chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("parsing payment gateway response: %w", err)
	}

	if parsed.ErrorCode != nil {
		return Result{Declined: &Decline{Code: *parsed.ErrorCode}}, nil
	}

	if parsed.Token == "" {
		return Result{}, fmt.Errorf("payment gateway returned no token and no error code")
	}

	return Result{Token: parsed.Token}, nil
}
