// Command stub_server is a local stand-in for the Pythia trading engine.
// It serves the console's three contract endpoints with realistic fixture
// data so dashboards, the catalog and configuration submission can be
// exercised end to end without a live engine. Configure calls are validated
// against the declared parameter schema and applied in memory; performance
// numbers drift slightly between polls so live surfaces visibly refresh.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/models"
)

// engine holds the stub's mutable state: the fixture catalog plus whatever
// parameter values configure calls have applied so far. The catalog itself
// is immutable after construction.
type engine struct {
	mu         sync.Mutex
	strategies map[string]models.StrategyDefinition
	applied    map[string]map[string]string
	polls      int
}

func newEngine() *engine {
	return &engine{
		strategies: fixtureStrategies(),
		applied:    make(map[string]map[string]string),
	}
}

// fixtureStrategies mirrors the production catalog: the statistical pattern
// strategy with its five numeric parameters, plus a breakout strategy that
// exercises option and boolean parameter types. IDs are left empty; clients
// fill them from the map keys.
func fixtureStrategies() map[string]models.StrategyDefinition {
	return map[string]models.StrategyDefinition{
		"statistical_pattern": {
			Name:        "Statistical Pattern Strategy",
			Description: "Advanced quantitative strategy combining Hidden Markov Models for regime detection with statistical arbitrage",
			Status:      models.StrategyStatusActive,
			Parameters: map[string]models.ParameterSpec{
				"lookback_period": {
					Name:        "Lookback Period",
					Description: "Number of days to look back for pattern analysis (trading days)",
					Type:        models.ParameterTypeNumber,
					Default:     252,
					Min:         floatPtr(50),
					Max:         floatPtr(504),
				},
				"regime_threshold": {
					Name:        "Regime Threshold",
					Description: "Threshold for regime change detection (standard deviations)",
					Type:        models.ParameterTypeNumber,
					Default:     1.5,
					Min:         floatPtr(0.5),
					Max:         floatPtr(3.0),
				},
				"volatility_window": {
					Name:        "Volatility Window",
					Description: "Window size for volatility calculation (trading days)",
					Type:        models.ParameterTypeNumber,
					Default:     21,
					Min:         floatPtr(5),
					Max:         floatPtr(63),
				},
				"num_states": {
					Name:        "Number of States",
					Description: "Number of market regime states to identify",
					Type:        models.ParameterTypeNumber,
					Default:     3,
					Min:         floatPtr(2),
					Max:         floatPtr(5),
				},
				"confidence_level": {
					Name:        "Confidence Level",
					Description: "Statistical confidence level for signal generation",
					Type:        models.ParameterTypeNumber,
					Default:     0.95,
					Min:         floatPtr(0.8),
					Max:         floatPtr(0.99),
				},
			},
		},
		"momentum_breakout": {
			Name:        "Momentum Breakout Strategy",
			Description: "Channel breakout entries with volatility-scaled position sizing and optional trailing stops",
			Status:      models.StrategyStatusInactive,
			Parameters: map[string]models.ParameterSpec{
				"breakout_window": {
					Name:        "Breakout Window",
					Description: "Channel length for breakout detection (trading days)",
					Type:        models.ParameterTypeNumber,
					Default:     20,
					Min:         floatPtr(5),
					Max:         floatPtr(100),
				},
				"entry_signal": {
					Name:        "Entry Signal",
					Description: "Price event that triggers an entry",
					Type:        models.ParameterTypeString,
					Default:     "breakout",
					Options:     []string{"breakout", "pullback", "crossover"},
				},
				"trailing_stop": {
					Name:        "Trailing Stop",
					Description: "Trail the stop behind favorable price movement",
					Type:        models.ParameterTypeBoolean,
					Default:     true,
				},
				"risk_per_trade": {
					Name:        "Risk Per Trade",
					Description: "Fraction of equity risked on a single position",
					Type:        models.ParameterTypeNumber,
					Default:     0.01,
					Min:         floatPtr(0.001),
					Max:         floatPtr(0.05),
				},
			},
		},
	}
}

// snapshot builds a fresh performance report. Summary metrics are
// pre-scaled percentages, per-strategy rows carry raw fractions, and the
// totals drift a little from poll to poll so live surfaces visibly update.
// Sortino is deliberately omitted to exercise the missing-metric fallback.
func (e *engine) snapshot() models.PerformanceSnapshot {
	e.mu.Lock()
	e.polls++
	n := e.polls
	e.mu.Unlock()

	now := time.Now().UTC()
	drift := math.Sin(float64(n)/9) * 0.45

	return models.PerformanceSnapshot{
		Summary: models.Summary{
			TotalPnL:        floatPtr(12.34 + drift),
			TotalTrades:     intPtr(42 + n/5),
			WinRate:         floatPtr(58.3),
			CurrentDrawdown: floatPtr(-3.21),
			MaxDrawdown:     floatPtr(-8.75),
			SharpeRatio:     floatPtr(1.84),
			ProfitFactor:    floatPtr(1.62),
		},
		StrategyPerformance: []models.StrategyPerformanceRecord{
			{
				StrategyName: "statistical_pattern",
				Symbol:       "BTCUSDT",
				Interval:     "1h",
				TotalReturn:  floatPtr(0.1234 + drift/100),
				SharpeRatio:  floatPtr(1.84),
				MaxDrawdown:  floatPtr(0.087),
				WinRate:      floatPtr(0.583),
				ProfitFactor: floatPtr(1.62),
			},
			{
				StrategyName: "momentum_breakout",
				Symbol:       "ETHUSDT",
				Interval:     "4h",
				TotalReturn:  floatPtr(-0.021),
				SharpeRatio:  floatPtr(0.42),
				MaxDrawdown:  floatPtr(0.134),
				WinRate:      floatPtr(0.448),
				ProfitFactor: floatPtr(0.91),
			},
		},
		RecentTrades: []models.TradeRecord{
			{Timestamp: now.Add(-4 * time.Minute).Format(time.RFC3339), Strategy: "statistical_pattern", Symbol: "BTCUSDT", Type: models.TradeSideLong, Status: models.TradeStatusOpen},
			{Timestamp: now.Add(-38 * time.Minute).Format(time.RFC3339), Strategy: "statistical_pattern", Symbol: "BTCUSDT", Type: models.TradeSideShort, PnL: floatPtr(1.84), Status: models.TradeStatusClosed},
			{Timestamp: now.Add(-96 * time.Minute).Format(time.RFC3339), Strategy: "momentum_breakout", Symbol: "ETHUSDT", Type: models.TradeSideLong, PnL: floatPtr(-0.62), Status: models.TradeStatusClosed},
			{Timestamp: now.Add(-3 * time.Hour).Format(time.RFC3339), Strategy: "statistical_pattern", Symbol: "BTCUSDT", Type: models.TradeSideLong, PnL: floatPtr(2.31), Status: models.TradeStatusClosed},
			{Timestamp: now.Add(-5 * time.Hour).Format(time.RFC3339), Strategy: "momentum_breakout", Symbol: "ETHUSDT", Type: models.TradeSideShort, PnL: floatPtr(0.47), Status: models.TradeStatusClosed},
			{Timestamp: now.Add(-7 * time.Hour).Format(time.RFC3339), Strategy: "statistical_pattern", Symbol: "BTCUSDT", Type: models.TradeSideShort, PnL: floatPtr(-1.12), Status: models.TradeStatusClosed},
		},
		Timestamp: now.Format(time.RFC3339),
	}
}

// apply validates the request against the declared parameter schema and
// stores the raw values. A non-empty detail means rejection.
func (e *engine) apply(req models.ConfigurationRequest) (status int, detail string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	def, ok := e.strategies[req.StrategyID]
	if !ok {
		return http.StatusNotFound, "Strategy not found"
	}

	applied := make(map[string]string, len(req.Parameters))
	for name, raw := range req.Parameters {
		spec, ok := def.Parameters[name]
		if !ok {
			return http.StatusBadRequest, fmt.Sprintf("Invalid parameter: %s", name)
		}
		switch spec.Type {
		case models.ParameterTypeNumber:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return http.StatusBadRequest, fmt.Sprintf("Invalid number format for parameter: %s", name)
			}
			if spec.Min != nil && v < *spec.Min {
				return http.StatusBadRequest, fmt.Sprintf("Parameter %s below minimum value", name)
			}
			if spec.Max != nil && v > *spec.Max {
				return http.StatusBadRequest, fmt.Sprintf("Parameter %s above maximum value", name)
			}
		case models.ParameterTypeBoolean:
			if _, err := strconv.ParseBool(raw); err != nil {
				return http.StatusBadRequest, fmt.Sprintf("Invalid boolean format for parameter: %s", name)
			}
		case models.ParameterTypeString:
			if len(spec.Options) > 0 && !hasOption(spec.Options, raw) {
				return http.StatusBadRequest, fmt.Sprintf("Invalid option for parameter: %s", name)
			}
		}
		applied[name] = raw
	}

	e.applied[req.StrategyID] = applied
	return http.StatusOK, ""
}

func (e *engine) handlePerformance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, e.snapshot())
}

func (e *engine) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.StrategiesResponse{Strategies: e.strategies})
}

func (e *engine) handleConfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if status, detail := e.apply(req); detail != "" {
		log.Warn().Str("strategy", req.StrategyID).Str("detail", detail).Msg("Configuration rejected")
		writeDetail(w, status, detail)
		return
	}

	log.Info().Str("strategy", req.StrategyID).Int("params", len(req.Parameters)).Msg("Configuration applied")
	writeJSON(w, http.StatusOK, models.ConfigureResponse{
		Status:  "success",
		Message: fmt.Sprintf("Strategy %s configured successfully", req.StrategyID),
	})
}

// handleHealth is the stub's own liveness probe; the console never calls it.
func (e *engine) handleHealth(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	configured := len(e.applied)
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"service":    "stub_server",
		"configured": configured,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeDetail replies in the engine's error shape: {"detail": "..."}.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func hasOption(options []string, raw string) bool {
	for _, opt := range options {
		if raw == opt {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func main() {
	listen := flag.String("listen", "127.0.0.1:8000", "Listen address for the stub engine")
	flag.Parse()

	// Configure logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	eng := newEngine()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/performance", eng.handlePerformance)
	mux.HandleFunc("/api/strategies", eng.handleStrategies)
	mux.HandleFunc("/api/strategies/configure", eng.handleConfigure)
	mux.HandleFunc("/api/health", eng.handleHealth)

	server := &http.Server{
		Addr:         *listen,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("performance", fmt.Sprintf("http://%s/api/performance", *listen)).
			Str("strategies", fmt.Sprintf("http://%s/api/strategies", *listen)).
			Str("configure", fmt.Sprintf("http://%s/api/strategies/configure", *listen)).
			Str("health", fmt.Sprintf("http://%s/api/health", *listen)).
			Msg("Stub engine endpoints available")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server error")
		return
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
		return
	}

	log.Info().Msg("Stub engine shutdown complete")
}
