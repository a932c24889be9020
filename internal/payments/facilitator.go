package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Facilitator verifies and settles payment authorizations.
type Facilitator interface {
	Verify(ctx context.Context, payload *PaymentPayload, requirements *PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload *PaymentPayload, requirements *PaymentRequirements) (*SettleResponse, error)
	Supported(ctx context.Context) (*SupportedResponse, error)
}

type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:     "https://x402.org/facilitator",
		Timeout: 30 * time.Second,
	}
}

type client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient returns an HTTP facilitator client. httpClient may be nil.
func NewClient(config ClientConfig, httpClient *http.Client) Facilitator {
	defaults := DefaultClientConfig()
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	config.URL = strings.TrimRight(config.URL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &client{config: config, http: httpClient}
}

func (c *client) Verify(ctx context.Context, payload *PaymentPayload, requirements *PaymentRequirements) (*VerifyResponse, error) {
	var result VerifyResponse
	if err := c.post(ctx, "/verify", payload, requirements, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) Settle(ctx context.Context, payload *PaymentPayload, requirements *PaymentRequirements) (*SettleResponse, error) {
	var result SettleResponse
	if err := c.post(ctx, "/settle", payload, requirements, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) Supported(ctx context.Context) (*SupportedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL+"/supported", nil)
	if err != nil {
		return nil, fmt.Errorf("build supported request: %w", err)
	}
	var result SupportedResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) post(ctx context.Context, path string, payload *PaymentPayload, requirements *PaymentRequirements, out interface{}) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(facilitatorRequest{
		X402Version:         X402Version,
		PaymentPayload:      payload,
		PaymentRequirements: requirements,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", req.Method, req.URL.Path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w: %v", req.URL.Path, ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s returned %d: %w", req.URL.Path, resp.StatusCode, ErrUnavailable)
	case resp.StatusCode >= 400:
		var fe facilitatorError
		_ = json.Unmarshal(data, &fe)
		reason := fe.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%s: %s: %w", req.URL.Path, reason, ErrRejected)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w: %v", req.URL.Path, ErrUnavailable, err)
	}
	return nil
}
