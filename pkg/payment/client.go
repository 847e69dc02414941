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

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/storelinehq/storeline-backend/pkg/config"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 2048

var (
	errGatewayURLRequired = errors.New("payment gateway url is required")
	errMerchantIDRequired = errors.New("payment merchant id is required")
)

// Client wraps the card payment gateway: payment requests and callback verification.
type Client struct {
	httpClient    *http.Client
	gatewayURL    string
	merchantID    string
	callbackURL   string
	verifyRetries uint64
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the payment gateway client from configuration.
func NewClient(cfg config.PaymentConfig, opts ...Option) (*Client, error) {
	gatewayURL := strings.TrimSpace(cfg.GatewayURL)
	if gatewayURL == "" {
		return nil, errGatewayURLRequired
	}
	merchantID := strings.TrimSpace(cfg.MerchantID)
	if merchantID == "" {
		return nil, errMerchantIDRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		gatewayURL:    strings.TrimRight(gatewayURL, "/"),
		merchantID:    merchantID,
		callbackURL:   strings.TrimSpace(cfg.CallbackURL),
		verifyRetries: cfg.VerifyRetries,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Request describes a new payment to initiate at the gateway.
type Request struct {
	OrderRef    string
	AmountCents int64
	Description string
}

// Session is the gateway handle the customer is redirected with.
type Session struct {
	Token       string
	RedirectURL string
}

// VerifyResult reports the outcome of a callback verification.
type VerifyResult struct {
	Verified    bool
	ReferenceID string
}

// Amounts cross the gateway boundary in major units with two decimals.
func amountString(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// RequestPayment registers the payment at the gateway and returns the redirect session.
func (c *Client) RequestPayment(ctx context.Context, req Request) (*Session, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment client not configured")
	}
	if strings.TrimSpace(req.OrderRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference is required")
	}
	if req.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	payload := map[string]any{
		"merchantId":  c.merchantID,
		"orderRef":    req.OrderRef,
		"amount":      amountString(req.AmountCents),
		"callbackUrl": c.callbackURL,
		"description": req.Description,
	}

	var apiResp struct {
		Status      string `json:"status"`
		Token       string `json:"token"`
		RedirectURL string `json:"redirectUrl"`
		Message     string `json:"message"`
	}
	if err := c.post(ctx, "/payment/request", payload, &apiResp); err != nil {
		return nil, err
	}
	if !strings.EqualFold(apiResp.Status, "ok") || apiResp.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment gateway rejected request: %s", apiResp.Message))
	}

	return &Session{Token: apiResp.Token, RedirectURL: apiResp.RedirectURL}, nil
}

// Verify confirms a callback token against the gateway. Transient gateway
// failures are retried with exponential backoff; a definitive rejection is not.
func (c *Client) Verify(ctx context.Context, token string, amountCents int64) (*VerifyResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment client not configured")
	}
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment token is required")
	}

	payload := map[string]any{
		"merchantId": c.merchantID,
		"token":      strings.TrimSpace(token),
		"amount":     amountString(amountCents),
	}

	var result *VerifyResult
	backoff := retry.NewExponential(500 * time.Millisecond)
	backoff = retry.WithMaxRetries(c.verifyRetries, backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var apiResp struct {
			Status      string `json:"status"`
			ReferenceID string `json:"referenceId"`
			Message     string `json:"message"`
		}
		if err := c.post(ctx, "/payment/verify", payload, &apiResp); err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodeDependency {
				return retry.RetryableError(err)
			}
			return err
		}
		if strings.EqualFold(apiResp.Status, "ok") {
			result = &VerifyResult{Verified: true, ReferenceID: apiResp.ReferenceID}
			return nil
		}
		result = &VerifyResult{Verified: false}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal gateway payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute gateway request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if resp.StatusCode >= http.StatusInternalServerError {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), "gateway request failed")
	}
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), "gateway request rejected")
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}
