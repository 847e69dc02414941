package sms

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storelinehq/storeline-backend/pkg/config"
	pkgerrors "github.com/storelinehq/storeline-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var (
	errGatewayURLRequired  = errors.New("sms gateway url is required")
	errCredentialsRequired = errors.New("sms gateway credentials are required")
)

// Client posts XML payloads to the SMS gateway used for phone activation.
type Client struct {
	httpClient *http.Client
	gatewayURL string
	username   string
	password   string
	originator string
	codeDigits int
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

// NewClient builds the SMS gateway client from configuration.
func NewClient(cfg config.SMSConfig, opts ...Option) (*Client, error) {
	gatewayURL := strings.TrimSpace(cfg.GatewayURL)
	if gatewayURL == "" {
		return nil, errGatewayURLRequired
	}
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.Password) == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	digits := cfg.CodeDigits
	if digits < 4 || digits > 8 {
		digits = 5
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		gatewayURL: gatewayURL,
		username:   strings.TrimSpace(cfg.Username),
		password:   strings.TrimSpace(cfg.Password),
		originator: strings.TrimSpace(cfg.Originator),
		codeDigits: digits,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type smsEnvelope struct {
	XMLName    xml.Name `xml:"smsMessage"`
	Username   string   `xml:"username"`
	Password   string   `xml:"password"`
	Originator string   `xml:"originator,omitempty"`
	Recipient  string   `xml:"recipient"`
	Body       string   `xml:"body"`
}

type smsResult struct {
	XMLName xml.Name `xml:"smsResponse"`
	Status  string   `xml:"status"`
	Message string   `xml:"message"`
}

// Send delivers a free-form message to the recipient phone number.
func (c *Client) Send(ctx context.Context, phone, body string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sms client not configured")
	}
	if strings.TrimSpace(phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone is required")
	}
	if strings.TrimSpace(body) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	payload, err := xml.Marshal(smsEnvelope{
		Username:   c.username,
		Password:   c.password,
		Originator: c.originator,
		Recipient:  strings.TrimSpace(phone),
		Body:       body,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sms payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sms request")
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sms request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))), "sms request failed")
	}

	var result smsResult
	if err := xml.Unmarshal(raw, &result); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sms response")
	}
	if !strings.EqualFold(result.Status, "ok") && !strings.EqualFold(result.Status, "sent") {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sms gateway rejected message: %s", result.Message))
	}
	return nil
}

// SendActivationCode delivers a numeric activation code to the phone number.
func (c *Client) SendActivationCode(ctx context.Context, phone, code string) error {
	return c.Send(ctx, phone, fmt.Sprintf("Your activation code is %s", code))
}

// NewCode produces a random numeric activation code with the configured length.
func (c *Client) NewCode() (string, error) {
	digits := 5
	if c != nil && c.codeDigits > 0 {
		digits = c.codeDigits
	}
	buf := make([]byte, digits)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating activation code: %w", err)
	}
	out := make([]byte, digits)
	for i, b := range buf {
		out[i] = '0' + b%10
	}
	return string(out), nil
}
