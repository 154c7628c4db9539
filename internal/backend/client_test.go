package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythia-trading/pythia-console/internal/config"
	"github.com/pythia-trading/pythia-console/internal/models"
)

func newTestClient(baseURL string) *Client {
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.API.RPS = 100
	cfg.API.Burst = 100
	return New(cfg)
}

func TestFetchPerformance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/performance", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"summary": {"total_pnl": 12.34, "total_trades": 42, "win_rate": 58.3},
			"strategy_performance": [
				{"strategy_name": "statistical_pattern", "symbol": "BTCUSDT", "interval": "1h", "total_return": 0.0523, "win_rate": 0.583}
			],
			"recent_trades": [
				{"timestamp": "2025-01-15T10:30:00Z", "strategy": "statistical_pattern", "symbol": "BTCUSDT", "type": "LONG", "pnl": 1.2, "status": "CLOSED"}
			],
			"timestamp": "2025-01-15T10:30:05Z"
		}`))
	}))
	defer server.Close()

	snapshot, err := newTestClient(server.URL).FetchPerformance(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snapshot.Summary.TotalPnL)
	assert.Equal(t, 12.34, *snapshot.Summary.TotalPnL)
	require.Len(t, snapshot.StrategyPerformance, 1)
	assert.Equal(t, 0.0523, *snapshot.StrategyPerformance[0].TotalReturn)
	require.Len(t, snapshot.RecentTrades, 1)
	assert.Equal(t, models.TradeSideLong, snapshot.RecentTrades[0].Type)
	assert.Equal(t, "2025-01-15T10:30:05Z", snapshot.Timestamp)
}

func TestFetchPerformanceServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "monitor unavailable"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchPerformance(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "/api/performance", fetchErr.Endpoint)
	assert.Contains(t, fetchErr.Error(), "monitor unavailable")
}

func TestFetchPerformanceConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	_, err := newTestClient(server.URL).FetchPerformance(context.Background())
	require.Error(t, err)

	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

func TestFetchStrategiesFillsIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/strategies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"strategies": {
				"statistical_pattern": {
					"name": "Statistical Pattern",
					"description": "Regime-aware statistical strategy",
					"status": "active",
					"parameters": {
						"lookback_period": {"name": "Lookback Period", "type": "number", "default": 252, "min": 50, "max": 504}
					}
				}
			}
		}`))
	}))
	defer server.Close()

	strategies, err := newTestClient(server.URL).FetchStrategies(context.Background())
	require.NoError(t, err)

	def, ok := strategies["statistical_pattern"]
	require.True(t, ok)
	assert.Equal(t, "statistical_pattern", def.ID)
	assert.Equal(t, models.StrategyStatusActive, def.Status)
	assert.Equal(t, "252", def.Parameters["lookback_period"].DefaultString())
}

func TestSubmitConfiguration(t *testing.T) {
	var got models.ConfigurationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/strategies/configure", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "message": "Strategy statistical_pattern configured successfully"}`))
	}))
	defer server.Close()

	req := models.ConfigurationRequest{
		StrategyID: "statistical_pattern",
		Parameters: map[string]string{"lookback_period": "100"},
	}
	ack, err := newTestClient(server.URL).SubmitConfiguration(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "success", ack.Status)
	assert.Equal(t, req, got)
}

func TestSubmitConfigurationRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Parameter lookback_period must be >= 50"}`))
	}))
	defer server.Close()

	req := models.ConfigurationRequest{StrategyID: "statistical_pattern", Parameters: map[string]string{"lookback_period": "10"}}
	_, err := newTestClient(server.URL).SubmitConfiguration(context.Background(), req)
	require.Error(t, err)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusBadRequest, subErr.StatusCode)
	assert.Equal(t, "Parameter lookback_period must be >= 50", subErr.Detail)
}

func TestSubmitConfigurationIdempotentResubmit(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"status": "success", "message": "ok"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := models.ConfigurationRequest{StrategyID: "statistical_pattern", Parameters: map[string]string{"lookback_period": "100"}}

	first, err := client.SubmitConfiguration(context.Background(), req)
	require.NoError(t, err)
	second, err := client.SubmitConfiguration(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), hits.Load())
}

func TestConfigureBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "engine down"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	req := models.ConfigurationRequest{StrategyID: "statistical_pattern", Parameters: map[string]string{}}

	for i := 0; i < 5; i++ {
		_, err := client.SubmitConfiguration(context.Background(), req)
		require.Error(t, err)
	}
	require.Equal(t, int64(5), hits.Load())

	// Breaker is open now; the next attempt fails fast without a request.
	_, err := client.SubmitConfiguration(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int64(5), hits.Load())
}

func TestFetchPathHasNoBreaker(t *testing.T) {
	// Poll reads must keep retrying with no fail-fast behavior no matter
	// how many consecutive failures have occurred.
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for i := 0; i < 10; i++ {
		_, err := client.FetchPerformance(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, int64(10), hits.Load())
}
