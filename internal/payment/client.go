package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lumident/lumident/internal/model"
)

// Client errors.
var (
	ErrOrderRejected = errors.New("gateway rejected order")
)

// ClientTimeout is the total order-creation request timeout.
const ClientTimeout = 15 * time.Second

// Order is a created gateway order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Client creates orders against the payment gateway REST API.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	http      *http.Client
}

// NewClient creates a gateway client authenticated with key ID/secret.
func NewClient(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		keyID:     keyID,
		keySecret: keySecret,
		http:      &http.Client{Timeout: ClientTimeout},
	}
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

// CreateOrder creates an order for the given plan on behalf of a user.
// The receipt embeds the user reference the webhook later extracts:
// "{userId}-{orderCreationEpochMs}".
func (c *Client) CreateOrder(ctx context.Context, userID string, plan model.Plan, now time.Time) (*Order, error) {
	receipt := fmt.Sprintf("%s-%d", userID, now.UnixMilli())

	// Gateway amounts are in currency subunits.
	payload := createOrderRequest{
		Amount:   plan.Amount() * 100,
		Currency: "INR",
		Receipt:  receipt,
		Notes:    map[string]string{"plan": string(plan)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Drain a bounded slice of the body for the error message.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrOrderRejected, resp.StatusCode, string(msg))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	return &order, nil
}
