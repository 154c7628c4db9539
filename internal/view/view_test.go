package view

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythia-trading/pythia-console/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestSummaryPercentFormatting(t *testing.T) {
	snap := &models.PerformanceSnapshot{
		Summary: models.Summary{
			TotalPnL:        floatPtr(12.34),
			WinRate:         floatPtr(58.3),
			CurrentDrawdown: floatPtr(-3.21),
			TotalTrades:     intPtr(42),
		},
	}

	model := Build(snap)

	assert.Equal(t, "12.34%", model.Summary.TotalPnL.Value)
	assert.Equal(t, SignPositive, model.Summary.TotalPnL.Class)
	assert.Equal(t, "58.30%", model.Summary.WinRate.Value)
	assert.Equal(t, "-3.21%", model.Summary.CurrentDrawdown.Value)
	assert.Equal(t, SignNegative, model.Summary.CurrentDrawdown.Class)
	assert.Equal(t, "42", model.Summary.TotalTrades)
}

func TestRecordFractionsScaleByHundred(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		decimals int
		expected string
	}{
		{"spec example return", 0.0523, 2, "5.23%"},
		{"full fraction", 1.0, 2, "100.00%"},
		{"zero", 0.0, 2, "0.00%"},
		{"win rate one decimal", 0.583, 1, "58.3%"},
		{"small fraction", 0.0001, 2, "0.01%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FormatFraction(floatPtr(tt.fraction), tt.decimals)
			assert.Equal(t, tt.expected, m.Value)
		})
	}
}

func TestBuildStrategyRows(t *testing.T) {
	snap := &models.PerformanceSnapshot{
		StrategyPerformance: []models.StrategyPerformanceRecord{
			{
				StrategyName: "statistical_pattern",
				Symbol:       "BTCUSDT",
				Interval:     "1h",
				TotalReturn:  floatPtr(0.0523),
				SharpeRatio:  floatPtr(1.87),
				MaxDrawdown:  floatPtr(0.081),
			},
		},
	}

	model := Build(snap)
	require.Len(t, model.Strategies, 1)
	row := model.Strategies[0]
	assert.Equal(t, "5.23%", row.TotalReturn.Value)
	assert.Equal(t, "1.87", row.SharpeRatio.Value)
	assert.Equal(t, "8.10%", row.MaxDrawdown.Value)
}

func TestSummaryAndRecordConventionsAreIndependent(t *testing.T) {
	// The same numeric value means different things in the two places:
	// 0.58 in Summary is 0.58%, in a record it is 58%.
	same := 0.58
	snap := &models.PerformanceSnapshot{
		Summary: models.Summary{WinRate: floatPtr(same)},
		StrategyPerformance: []models.StrategyPerformanceRecord{
			{StrategyName: "s", WinRate: floatPtr(same)},
		},
	}

	model := Build(snap)
	assert.Equal(t, "0.58%", model.Summary.WinRate.Value)
	assert.Equal(t, "58.0%", model.Strategies[0].WinRate.Value)
}

func TestMissingFieldsFallBack(t *testing.T) {
	model := Build(&models.PerformanceSnapshot{})

	assert.Equal(t, EmptyMarker, model.Summary.TotalPnL.Value)
	assert.Equal(t, SignNeutral, model.Summary.TotalPnL.Class)
	assert.Equal(t, "0", model.Summary.TotalTrades)
	assert.Equal(t, EmptyMarker, model.Summary.SharpeRatio.Value)
	assert.NotNil(t, model.Strategies)
	assert.Empty(t, model.Strategies)
	assert.NotNil(t, model.Trades)
	assert.Empty(t, model.Trades)
	assert.Equal(t, EmptyMarker, model.LastUpdated)
}

func TestNilSnapshotBuilds(t *testing.T) {
	model := Build(nil)
	assert.Equal(t, EmptyMarker, model.Summary.TotalPnL.Value)
	assert.Empty(t, model.Strategies)
	assert.Empty(t, model.Trades)
}

func TestEverySubsetOfSummaryFieldsRenders(t *testing.T) {
	// Toggle each optional field independently; no combination may fail.
	fields := []func(*models.Summary){
		func(s *models.Summary) { s.TotalPnL = floatPtr(1) },
		func(s *models.Summary) { s.TotalTrades = intPtr(1) },
		func(s *models.Summary) { s.WinRate = floatPtr(1) },
		func(s *models.Summary) { s.CurrentDrawdown = floatPtr(1) },
		func(s *models.Summary) { s.MaxDrawdown = floatPtr(1) },
		func(s *models.Summary) { s.SharpeRatio = floatPtr(1) },
		func(s *models.Summary) { s.SortinoRatio = floatPtr(1) },
		func(s *models.Summary) { s.ProfitFactor = floatPtr(1) },
	}

	for mask := 0; mask < 1<<len(fields); mask++ {
		var summary models.Summary
		for i, set := range fields {
			if mask&(1<<i) != 0 {
				set(&summary)
			}
		}
		assert.NotPanics(t, func() {
			Build(&models.PerformanceSnapshot{Summary: summary})
		})
	}
}

func TestTradeRows(t *testing.T) {
	snap := &models.PerformanceSnapshot{
		RecentTrades: []models.TradeRecord{
			{
				Timestamp: "2025-01-15T10:30:00Z",
				Strategy:  "statistical_pattern",
				Symbol:    "BTCUSDT",
				Type:      models.TradeSideShort,
				PnL:       floatPtr(-0.42),
				Status:    models.TradeStatusOpen,
			},
			{}, // entirely empty trade must still render
		},
	}

	model := Build(snap)
	require.Len(t, model.Trades, 2)

	assert.Equal(t, "2025-01-15 10:30:00", model.Trades[0].Time)
	assert.Equal(t, "SHORT", model.Trades[0].Side)
	assert.Equal(t, "-0.42%", model.Trades[0].PnL.Value)
	assert.Equal(t, SignNegative, model.Trades[0].PnL.Class)

	assert.Equal(t, EmptyMarker, model.Trades[1].Time)
	assert.Equal(t, EmptyMarker, model.Trades[1].Strategy)
	assert.Equal(t, EmptyMarker, model.Trades[1].PnL.Value)
}

func TestZeroClassifiesPositive(t *testing.T) {
	m := FormatPercent(floatPtr(0), 2)
	assert.Equal(t, "0.00%", m.Value)
	assert.Equal(t, SignPositive, m.Class)
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"rfc3339", "2025-01-15T10:30:00Z", "2025-01-15 10:30:00"},
		{"with offset", "2025-01-15T12:30:00+02:00", "2025-01-15 10:30:00"},
		{"empty", "", EmptyMarker},
		{"unparseable passes through", "yesterday", "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTimestamp(tt.input))
		})
	}
}

func TestDisplayModelSerializesForBoard(t *testing.T) {
	model := Build(&models.PerformanceSnapshot{
		Summary:   models.Summary{TotalPnL: floatPtr(12.34)},
		Timestamp: "2025-01-15T10:30:00Z",
	})
	model.Stale = true

	data, err := json.Marshal(model)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"value":"12.34%"`)
	assert.Contains(t, string(data), `"stale":true`)
}
