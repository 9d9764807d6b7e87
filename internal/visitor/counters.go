package visitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultCounterKey = "visits"

// DefaultCountAPIURL is the hosted hit counter.
const DefaultCountAPIURL = "https://api.countapi.xyz/hit/cosmelab-ucr/visits"

// LocalCounter counts runs in the local store; every Count is a hit.
type LocalCounter struct {
	store Store
	key   string
}

// NewLocalCounter creates a counter stored under key.
func NewLocalCounter(store Store, key string) *LocalCounter {
	return &LocalCounter{store: store, key: key}
}

// Name implements Provider.
func (c *LocalCounter) Name() string { return ProviderLocal }

// Count increments and returns the stored counter.
func (c *LocalCounter) Count(ctx context.Context) (int, error) {
	n, err := c.store.IncrementCounter(ctx, c.key)
	if err != nil {
		return 0, fmt.Errorf("incrementing visit counter: %w", err)
	}
	return int(n), nil
}

// CountAPI reads a remote hit counter returning {"value": n}.
type CountAPI struct {
	url        string
	httpClient *http.Client
}

// NewCountAPI creates a hit-counter provider. Empty url uses DefaultCountAPIURL.
func NewCountAPI(url string) (*CountAPI, error) {
	if url == "" {
		url = DefaultCountAPIURL
	}
	return &CountAPI{url: url, httpClient: &http.Client{Timeout: 10 * time.Second}}, nil
}

// Name implements Provider.
func (c *CountAPI) Name() string { return ProviderCountAPI }

// Count registers a hit and returns the new total.
func (c *CountAPI) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("making request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return 0, fmt.Errorf("counter request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Value *int `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decoding response: %w", err)
	}
	if payload.Value == nil {
		return 0, errors.New("counter response has no value")
	}
	return *payload.Value, nil
}
