package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "prodcat/catalogworker/pkg/errors"
)

// Client talks to the external proxy-allocation service. The service hands
// out one proxy URL per call; it is treated as unreliable and always optional.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a proxy service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// allocation is the service's response envelope
type allocation struct {
	Data string `json:"data"`
}

// Allocate requests a proxy URL from the service.
// GET {base}/proxy -> {"data": "<url>"}
func (c *Client) Allocate(ctx context.Context) (string, error) {
	if c.baseURL == "" {
		return "", apperrors.NewProxy("no proxy service URL configured", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/proxy", nil)
	if err != nil {
		return "", apperrors.NewProxy("failed to create proxy request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewProxy("proxy service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewProxy(fmt.Sprintf("proxy service returned status %d", resp.StatusCode), nil)
	}

	var alloc allocation
	if err := json.NewDecoder(resp.Body).Decode(&alloc); err != nil {
		return "", apperrors.NewProxy("failed to decode proxy response", err)
	}

	if alloc.Data == "" {
		return "", apperrors.NewProxy("proxy service returned an empty proxy", nil)
	}

	return alloc.Data, nil
}
