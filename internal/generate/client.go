package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const generateTimeout = 90 * time.Second

// Client posts a generation request to an HTTP endpoint that wraps the
// language model. Everything prompt- and model-related lives behind that
// endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Generator = (*Client)(nil)

type ClientConfig struct {
	Endpoint string
	APIKey   string
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: generateTimeout,
		},
	}
}

func (c *Client) Generate(ctx context.Context, genReq Request) (*Draft, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("generator client misconfigured: empty endpoint")
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, payload)
	}

	var draft Draft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return nil, fmt.Errorf("failed to decode generated draft: %w", err)
	}
	return &draft, nil
}
