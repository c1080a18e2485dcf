package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoris/STPark-sub000/internal/config"

	"github.com/shopspring/decimal"
)

// PayProviderClient talks to the payment gateway sidecar that fronts the
// card/Webpay acquirer. All calls go through a circuit breaker so a degraded
// gateway cannot stall checkouts.
type PayProviderClient struct {
	baseURL string
	http    *http.Client
	breaker *CircuitBreaker
}

// ChargeRequest asks the gateway to start a card charge for a session.
type ChargeRequest struct {
	SessionID string          `json:"session_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

// ChargeResponse carries the gateway's transaction handle. Final status
// arrives later through the webhook.
type ChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url,omitempty"`
	Status        string `json:"status"`
}

func NewPayProviderClient(cfg *config.Config) *PayProviderClient {
	return &PayProviderClient{
		baseURL: cfg.PayProviderURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: NewCircuitBreaker(5, 30*time.Second),
	}
}

// BreakerState exposes the breaker for the health endpoint.
func (c *PayProviderClient) BreakerState() string {
	return c.breaker.State()
}

// CreateCharge initiates an electronic charge with the gateway.
func (c *PayProviderClient) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	var out ChargeResponse
	err := c.breaker.Call(func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("gateway returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
