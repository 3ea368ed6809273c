package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/x402core/paycore/types"
)

// DefaultFacilitatorTimeout is the facilitator HTTP client's default
// request timeout, used for /verify.
const DefaultFacilitatorTimeout = 30 * time.Second

// HealthProbeTimeout bounds the /list health probe: a facilitator that
// doesn't answer within this window is unhealthy, regardless of how long
// /verify is allowed to take.
const HealthProbeTimeout = 5 * time.Second

// facilitatorVerifyRequest/facilitatorVerifyResponse are the admissibility
// pre-check request/response shapes for FacilitatorProvider.Execute step 1.
// Single scheme, not a version-negotiated set.
type facilitatorVerifyRequest struct {
	Network           types.Network `json:"network"`
	PayTo             string        `json:"payTo"`
	MaxAmountRequired string        `json:"maxAmountRequired"`
	Asset             string        `json:"asset"`
	From              string        `json:"from"`
}

type facilitatorVerifyResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// facilitatorClient is a minimal HTTP client for the facilitator's /verify
// and /list endpoints.
type facilitatorClient struct {
	baseURL    string
	httpClient *http.Client
}

func newFacilitatorClient(baseURL string) *facilitatorClient {
	return &facilitatorClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultFacilitatorTimeout},
	}
}

func (c *facilitatorClient) verify(ctx context.Context, req facilitatorVerifyRequest) (*facilitatorVerifyResponse, error) {
	var resp facilitatorVerifyResponse
	if err := c.doRequest(ctx, http.MethodPost, "/verify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// listHealthy calls /list and reports only whether it returned 2xx within
// HealthProbeTimeout; the body is irrelevant.
func (c *facilitatorClient) listHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthProbeTimeout)
	defer cancel()
	return c.doRequest(ctx, http.MethodGet, "/list", nil, nil)
}

func (c *facilitatorClient) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("facilitator client: marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("facilitator client: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("facilitator client: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("facilitator client: read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("facilitator client: %s %s returned status %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("facilitator client: decode response: %w", err)
		}
	}
	return nil
}
