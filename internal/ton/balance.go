package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// NanotonsPerTon is the chain's base-unit scale: balances arrive as integer
// nanotons and are divided down to TON for display and comparison.
const NanotonsPerTon = 1e9

// BalanceOracle reads wallet balances from a chain explorer. Read-only: this
// app never submits transactions.
type BalanceOracle interface {
	Balance(ctx context.Context, address string) (float64, error)
}

// ExplorerClient queries a toncenter-style HTTP API for address balances.
type ExplorerClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewExplorerClient creates a balance oracle over the given explorer endpoint
func NewExplorerClient(baseURL, apiKey string) *ExplorerClient {
	return &ExplorerClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type balanceResponse struct {
	OK     bool   `json:"ok"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Balance returns the address balance in TON.
func (c *ExplorerClient) Balance(ctx context.Context, address string) (float64, error) {
	endpoint := fmt.Sprintf("%s/getAddressBalance?address=%s", c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build balance request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("explorer returned %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode balance response: %w", err)
	}
	if !body.OK {
		return 0, fmt.Errorf("explorer rejected balance lookup: %s", body.Error)
	}

	nanotons, err := strconv.ParseInt(body.Result, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected balance format %q: %w", body.Result, err)
	}

	return float64(nanotons) / NanotonsPerTon, nil
}
