// Package backend implements the typed HTTP client for the trading engine's
// three-endpoint contract: performance snapshots, the strategy catalog and
// configuration submission.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pythia-trading/pythia-console/internal/config"
	"github.com/pythia-trading/pythia-console/internal/models"
)

const userAgent = "pythia-console/1.0"

// Client talks to the engine. Reads share a rate limiter with writes; the
// circuit breaker guards only the configure path, because the performance
// poll must keep retrying every tick regardless of failure history.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// New builds a client from the console configuration.
func New(cfg *config.Config) *Client {
	settings := gobreaker.Settings{
		Name:        "engine-configure",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	}

	return &Client{
		baseURL: cfg.API.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.GetRequestTimeout(),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.API.RPS), cfg.API.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// FetchPerformance retrieves the current aggregated performance snapshot.
// Failures come back as *FetchError.
func (c *Client) FetchPerformance(ctx context.Context) (*models.PerformanceSnapshot, error) {
	var snapshot models.PerformanceSnapshot
	if err := c.getJSON(ctx, "/api/performance", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// FetchStrategies retrieves the strategy catalog. Each definition's ID is
// filled from its map key; the engine omits it from the object body.
func (c *Client) FetchStrategies(ctx context.Context) (map[string]models.StrategyDefinition, error) {
	var resp models.StrategiesResponse
	if err := c.getJSON(ctx, "/api/strategies", &resp); err != nil {
		return nil, err
	}

	strategies := make(map[string]models.StrategyDefinition, len(resp.Strategies))
	for id, def := range resp.Strategies {
		if def.ID == "" {
			def.ID = id
		}
		strategies[id] = def
	}
	return strategies, nil
}

// SubmitConfiguration posts a validated configuration request. Resubmitting
// an identical request is safe; the engine re-applies the same values.
// Failures come back as *SubmissionError.
func (c *Client) SubmitConfiguration(ctx context.Context, req models.ConfigurationRequest) (*models.ConfigureResponse, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.postConfigure(ctx, req)
	})
	if err != nil {
		var subErr *SubmissionError
		if errors.As(err, &subErr) {
			return nil, subErr
		}
		// Breaker-open and other non-HTTP failures.
		return nil, &SubmissionError{Err: err}
	}
	return result.(*models.ConfigureResponse), nil
}

func (c *Client) postConfigure(ctx context.Context, req models.ConfigurationRequest) (*models.ConfigureResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &SubmissionError{Err: err}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/strategies/configure", bytes.NewReader(body))
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SubmissionError{
			StatusCode: resp.StatusCode,
			Detail:     decodeDetail(resp.Body),
		}
	}

	var ack models.ConfigureResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, &SubmissionError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	log.Debug().
		Str("strategy", req.StrategyID).
		Int("params", len(req.Parameters)).
		Msg("Configuration accepted by engine")
	return &ack, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &FetchError{Endpoint: path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{Endpoint: path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail := decodeDetail(resp.Body)
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		return &FetchError{Endpoint: path, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, detail)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &FetchError{Endpoint: path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// decodeDetail extracts the engine's {"detail": "..."} error body.
func decodeDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil {
		return ""
	}
	return body.Detail
}
