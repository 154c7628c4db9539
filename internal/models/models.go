// Package models defines the wire-level data model shared by the engine
// client, the performance poller, and the configuration surfaces.
//
// Every numeric metric the engine may omit is a pointer; consumers must
// tolerate nil and fall back instead of failing. Summary metrics arrive
// already scaled to percentages, while StrategyPerformanceRecord carries raw
// fractions in [0,1] — the two conventions are a property of the engine and
// are preserved per field rather than normalized.
package models

import "strconv"

// TradeSide is the direction of an executed trade.
type TradeSide string

const (
	TradeSideLong  TradeSide = "LONG"
	TradeSideShort TradeSide = "SHORT"
)

// TradeStatus marks whether a trade is still open.
type TradeStatus string

const (
	TradeStatusOpen   TradeStatus = "OPEN"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// StrategyStatus is the engine-reported lifecycle state of a strategy.
type StrategyStatus string

const (
	StrategyStatusActive   StrategyStatus = "active"
	StrategyStatusInactive StrategyStatus = "inactive"
)

// ParameterType tags the declared type of a strategy parameter.
type ParameterType string

const (
	ParameterTypeNumber  ParameterType = "number"
	ParameterTypeString  ParameterType = "string"
	ParameterTypeBoolean ParameterType = "boolean"
)

// Summary aggregates portfolio-level metrics. Percentage fields (TotalPnL,
// WinRate, drawdowns) are pre-scaled by the engine; ratio fields are raw.
type Summary struct {
	TotalPnL        *float64 `json:"total_pnl,omitempty"`
	TotalTrades     *int     `json:"total_trades,omitempty"`
	WinRate         *float64 `json:"win_rate,omitempty"`
	CurrentDrawdown *float64 `json:"current_drawdown,omitempty"`
	MaxDrawdown     *float64 `json:"max_drawdown,omitempty"`
	SharpeRatio     *float64 `json:"sharpe_ratio,omitempty"`
	SortinoRatio    *float64 `json:"sortino_ratio,omitempty"`
	ProfitFactor    *float64 `json:"profit_factor,omitempty"`
}

// StrategyPerformanceRecord holds per strategy/symbol/interval metrics.
// TotalReturn, MaxDrawdown and WinRate are fractions in [0,1] and need a
// ×100 at display time, unlike their Summary counterparts.
type StrategyPerformanceRecord struct {
	StrategyName string   `json:"strategy_name"`
	Symbol       string   `json:"symbol"`
	Interval     string   `json:"interval"`
	TotalReturn  *float64 `json:"total_return,omitempty"`
	SharpeRatio  *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdown  *float64 `json:"max_drawdown,omitempty"`
	WinRate      *float64 `json:"win_rate,omitempty"`
	ProfitFactor *float64 `json:"profit_factor,omitempty"`
}

// TradeRecord is one row of the recent-trades feed. PnL is a percentage.
type TradeRecord struct {
	Timestamp string      `json:"timestamp"`
	Strategy  string      `json:"strategy"`
	Symbol    string      `json:"symbol"`
	Type      TradeSide   `json:"type"`
	PnL       *float64    `json:"pnl,omitempty"`
	Status    TradeStatus `json:"status"`
}

// PerformanceSnapshot is one full performance report. It is replaced
// wholesale on every successful poll and never merged with its predecessor.
type PerformanceSnapshot struct {
	Summary             Summary                     `json:"summary"`
	StrategyPerformance []StrategyPerformanceRecord `json:"strategy_performance"`
	RecentTrades        []TradeRecord               `json:"recent_trades"`
	Timestamp           string                      `json:"timestamp"`
}

// Clone returns a deep copy safe to hand out across goroutines.
func (s *PerformanceSnapshot) Clone() *PerformanceSnapshot {
	if s == nil {
		return nil
	}
	out := &PerformanceSnapshot{
		Summary:   s.Summary.clone(),
		Timestamp: s.Timestamp,
	}
	if s.StrategyPerformance != nil {
		out.StrategyPerformance = make([]StrategyPerformanceRecord, len(s.StrategyPerformance))
		for i, r := range s.StrategyPerformance {
			out.StrategyPerformance[i] = r.clone()
		}
	}
	if s.RecentTrades != nil {
		out.RecentTrades = make([]TradeRecord, len(s.RecentTrades))
		for i, t := range s.RecentTrades {
			out.RecentTrades[i] = t.clone()
		}
	}
	return out
}

func (s Summary) clone() Summary {
	return Summary{
		TotalPnL:        copyFloat(s.TotalPnL),
		TotalTrades:     copyInt(s.TotalTrades),
		WinRate:         copyFloat(s.WinRate),
		CurrentDrawdown: copyFloat(s.CurrentDrawdown),
		MaxDrawdown:     copyFloat(s.MaxDrawdown),
		SharpeRatio:     copyFloat(s.SharpeRatio),
		SortinoRatio:    copyFloat(s.SortinoRatio),
		ProfitFactor:    copyFloat(s.ProfitFactor),
	}
}

func (r StrategyPerformanceRecord) clone() StrategyPerformanceRecord {
	out := r
	out.TotalReturn = copyFloat(r.TotalReturn)
	out.SharpeRatio = copyFloat(r.SharpeRatio)
	out.MaxDrawdown = copyFloat(r.MaxDrawdown)
	out.WinRate = copyFloat(r.WinRate)
	out.ProfitFactor = copyFloat(r.ProfitFactor)
	return out
}

func (t TradeRecord) clone() TradeRecord {
	out := t
	out.PnL = copyFloat(t.PnL)
	return out
}

// ParameterSpec declares one configurable strategy parameter. Name is the
// human label; the wire name is the key of StrategyDefinition.Parameters.
// Min/Max apply only to number parameters, Options only to string ones.
// Default is the raw JSON value (number, string or bool) when declared.
type ParameterSpec struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Type        ParameterType `json:"type"`
	Default     interface{}   `json:"default,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
	Options     []string      `json:"options,omitempty"`
}

// DefaultString renders the declared default as the string a fresh form
// field is prefilled with. Integral numbers render without a decimal point
// (252 → "252"); an absent default renders as "".
func (p ParameterSpec) DefaultString() string {
	switch v := p.Default.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// clone copies the spec including its Options slice and bound pointers.
func (p ParameterSpec) clone() ParameterSpec {
	out := p
	out.Min = copyFloat(p.Min)
	out.Max = copyFloat(p.Max)
	if p.Options != nil {
		out.Options = append([]string(nil), p.Options...)
	}
	return out
}

// StrategyDefinition is one entry of the engine's strategy catalog. ID
// mirrors the catalog map key; the engine omits it from the object body.
type StrategyDefinition struct {
	ID          string                   `json:"id,omitempty"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Status      StrategyStatus           `json:"status"`
	Parameters  map[string]ParameterSpec `json:"parameters"`
}

// Clone returns a deep copy including the parameter map.
func (d StrategyDefinition) Clone() StrategyDefinition {
	out := d
	if d.Parameters != nil {
		out.Parameters = make(map[string]ParameterSpec, len(d.Parameters))
		for k, v := range d.Parameters {
			out.Parameters[k] = v.clone()
		}
	}
	return out
}

// StrategiesResponse is the body of GET /api/strategies.
type StrategiesResponse struct {
	Strategies map[string]StrategyDefinition `json:"strategies"`
}

// ConfigurationRequest is the body of POST /api/strategies/configure. All
// parameter values travel string-encoded regardless of declared type; final
// coercion authority stays with the engine.
type ConfigurationRequest struct {
	StrategyID string            `json:"strategy_id"`
	Parameters map[string]string `json:"parameters"`
}

// ConfigureResponse is the engine's acknowledgement of a configure call.
type ConfigureResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
