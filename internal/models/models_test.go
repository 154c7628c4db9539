package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestParameterSpecDefaultString(t *testing.T) {
	tests := []struct {
		name     string
		spec     ParameterSpec
		expected string
	}{
		{"absent default", ParameterSpec{Type: ParameterTypeNumber}, ""},
		{"integral number", ParameterSpec{Type: ParameterTypeNumber, Default: float64(252)}, "252"},
		{"fractional number", ParameterSpec{Type: ParameterTypeNumber, Default: 0.95}, "0.95"},
		{"small fraction keeps precision", ParameterSpec{Type: ParameterTypeNumber, Default: 0.0523}, "0.0523"},
		{"string default", ParameterSpec{Type: ParameterTypeString, Default: "ema"}, "ema"},
		{"bool default", ParameterSpec{Type: ParameterTypeBoolean, Default: true}, "true"},
		{"native int default", ParameterSpec{Type: ParameterTypeNumber, Default: 20}, "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.spec.DefaultString())
		})
	}
}

func TestParameterSpecDefaultStringFromJSON(t *testing.T) {
	// Defaults decoded from engine JSON arrive as float64 even when the
	// schema author wrote an integer.
	var spec ParameterSpec
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Lookback Period","type":"number","default":20,"min":5,"max":500}`), &spec))

	assert.Equal(t, "20", spec.DefaultString())
	require.NotNil(t, spec.Min)
	assert.Equal(t, 5.0, *spec.Min)
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	snap := &PerformanceSnapshot{
		Summary: Summary{TotalPnL: floatPtr(12.34)},
		StrategyPerformance: []StrategyPerformanceRecord{
			{StrategyName: "statistical_pattern", Symbol: "BTCUSDT", TotalReturn: floatPtr(0.0523)},
		},
		RecentTrades: []TradeRecord{
			{Strategy: "statistical_pattern", Symbol: "BTCUSDT", Type: TradeSideLong, PnL: floatPtr(1.2), Status: TradeStatusClosed},
		},
		Timestamp: "2025-01-15T10:30:00Z",
	}

	clone := snap.Clone()
	require.NotNil(t, clone)

	*clone.Summary.TotalPnL = -1
	*clone.StrategyPerformance[0].TotalReturn = -1
	*clone.RecentTrades[0].PnL = -1
	clone.StrategyPerformance[0].Symbol = "ETHUSDT"

	assert.Equal(t, 12.34, *snap.Summary.TotalPnL)
	assert.Equal(t, 0.0523, *snap.StrategyPerformance[0].TotalReturn)
	assert.Equal(t, 1.2, *snap.RecentTrades[0].PnL)
	assert.Equal(t, "BTCUSDT", snap.StrategyPerformance[0].Symbol)
}

func TestSnapshotCloneNil(t *testing.T) {
	var snap *PerformanceSnapshot
	assert.Nil(t, snap.Clone())
}

func TestStrategyDefinitionCloneIsDeep(t *testing.T) {
	def := StrategyDefinition{
		ID:     "statistical_pattern",
		Name:   "Statistical Pattern",
		Status: StrategyStatusActive,
		Parameters: map[string]ParameterSpec{
			"lookback_period": {Name: "Lookback Period", Type: ParameterTypeNumber, Default: float64(252), Min: floatPtr(50), Max: floatPtr(504)},
		},
	}

	clone := def.Clone()
	clone.Parameters["lookback_period"] = ParameterSpec{Name: "mutated"}
	clone.Parameters["extra"] = ParameterSpec{}

	assert.Equal(t, "Lookback Period", def.Parameters["lookback_period"].Name)
	assert.Len(t, def.Parameters, 1)
}

func TestSummaryOptionalFieldsDecode(t *testing.T) {
	// A sparse summary decodes with nil pointers, not zero values.
	var snap PerformanceSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"summary":{"total_pnl":12.34},"timestamp":"2025-01-15T10:30:00Z"}`), &snap))

	require.NotNil(t, snap.Summary.TotalPnL)
	assert.Equal(t, 12.34, *snap.Summary.TotalPnL)
	assert.Nil(t, snap.Summary.WinRate)
	assert.Nil(t, snap.Summary.TotalTrades)
	assert.Nil(t, snap.StrategyPerformance)
	assert.Nil(t, snap.RecentTrades)
}
