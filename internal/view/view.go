// Package view turns raw performance snapshots into display-ready values.
// It is pure: no network access, no side effects, and it never fails on
// absent optional fields.
//
// Two scaling conventions coexist in the engine's data and are preserved
// here exactly as declared per field: Summary metrics arrive pre-scaled to
// percentages, while strategy records carry fractions in [0,1] that are
// multiplied by 100 at display time.
package view

import (
	"fmt"
	"time"

	"github.com/pythia-trading/pythia-console/internal/models"
)

// EmptyMarker renders in place of any absent metric.
const EmptyMarker = "--"

// SignClass classifies a metric for styling.
type SignClass string

const (
	SignPositive SignClass = "positive"
	SignNegative SignClass = "negative"
	SignNeutral  SignClass = "neutral"
)

// Metric is one formatted value with its sign class.
type Metric struct {
	Value string    `json:"value"`
	Class SignClass `json:"class"`
}

// SummaryView is the formatted portfolio summary.
type SummaryView struct {
	TotalPnL        Metric `json:"total_pnl"`
	TotalTrades     string `json:"total_trades"`
	WinRate         Metric `json:"win_rate"`
	CurrentDrawdown Metric `json:"current_drawdown"`
	MaxDrawdown     Metric `json:"max_drawdown"`
	SharpeRatio     Metric `json:"sharpe_ratio"`
	SortinoRatio    Metric `json:"sortino_ratio"`
	ProfitFactor    Metric `json:"profit_factor"`
}

// StrategyRow is one formatted strategy performance record.
type StrategyRow struct {
	Strategy     string `json:"strategy"`
	Symbol       string `json:"symbol"`
	Interval     string `json:"interval"`
	TotalReturn  Metric `json:"total_return"`
	SharpeRatio  Metric `json:"sharpe_ratio"`
	MaxDrawdown  Metric `json:"max_drawdown"`
	WinRate      Metric `json:"win_rate"`
	ProfitFactor Metric `json:"profit_factor"`
}

// TradeRow is one formatted recent trade.
type TradeRow struct {
	Time     string `json:"time"`
	Strategy string `json:"strategy"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	PnL      Metric `json:"pnl"`
	Status   string `json:"status"`
}

// DisplayModel is the complete display state for one snapshot. Build fills
// the snapshot-derived fields; Stale and Error are presentation state set
// by the owner (poller state, warm-start store) after the fact.
type DisplayModel struct {
	Summary     SummaryView   `json:"summary"`
	Strategies  []StrategyRow `json:"strategies"`
	Trades      []TradeRow    `json:"trades"`
	LastUpdated string        `json:"last_updated"`
	Stale       bool          `json:"stale"`
	Error       string        `json:"error,omitempty"`
}

// Build renders a snapshot. A nil snapshot yields the all-fallback model;
// absent fields fall back per field, absent arrays become empty slices.
func Build(snapshot *models.PerformanceSnapshot) DisplayModel {
	model := DisplayModel{
		Strategies:  []StrategyRow{},
		Trades:      []TradeRow{},
		LastUpdated: EmptyMarker,
	}
	if snapshot == nil {
		model.Summary = buildSummary(models.Summary{})
		return model
	}

	model.Summary = buildSummary(snapshot.Summary)
	model.LastUpdated = FormatTimestamp(snapshot.Timestamp)

	for _, rec := range snapshot.StrategyPerformance {
		model.Strategies = append(model.Strategies, StrategyRow{
			Strategy:     fallbackString(rec.StrategyName),
			Symbol:       fallbackString(rec.Symbol),
			Interval:     fallbackString(rec.Interval),
			TotalReturn:  FormatFraction(rec.TotalReturn, 2),
			SharpeRatio:  FormatRatio(rec.SharpeRatio),
			MaxDrawdown:  FormatFraction(rec.MaxDrawdown, 2),
			WinRate:      FormatFraction(rec.WinRate, 1),
			ProfitFactor: FormatRatio(rec.ProfitFactor),
		})
	}

	for _, trade := range snapshot.RecentTrades {
		model.Trades = append(model.Trades, TradeRow{
			Time:     FormatTimestamp(trade.Timestamp),
			Strategy: fallbackString(trade.Strategy),
			Symbol:   fallbackString(trade.Symbol),
			Side:     fallbackString(string(trade.Type)),
			PnL:      FormatPercent(trade.PnL, 2),
			Status:   fallbackString(string(trade.Status)),
		})
	}

	return model
}

func buildSummary(s models.Summary) SummaryView {
	return SummaryView{
		TotalPnL:        FormatPercent(s.TotalPnL, 2),
		TotalTrades:     FormatCount(s.TotalTrades),
		WinRate:         FormatPercent(s.WinRate, 2),
		CurrentDrawdown: FormatPercent(s.CurrentDrawdown, 2),
		MaxDrawdown:     FormatPercent(s.MaxDrawdown, 2),
		SharpeRatio:     FormatRatio(s.SharpeRatio),
		SortinoRatio:    FormatRatio(s.SortinoRatio),
		ProfitFactor:    FormatRatio(s.ProfitFactor),
	}
}

// FormatPercent renders an already-scaled percentage value. Absent values
// render as the empty marker with a neutral class.
func FormatPercent(v *float64, decimals int) Metric {
	if v == nil {
		return Metric{Value: EmptyMarker, Class: SignNeutral}
	}
	return Metric{
		Value: fmt.Sprintf("%.*f%%", decimals, *v),
		Class: classify(*v),
	}
}

// FormatFraction renders a fraction in [0,1] as a percentage, scaling by
// 100 before formatting.
func FormatFraction(v *float64, decimals int) Metric {
	if v == nil {
		return Metric{Value: EmptyMarker, Class: SignNeutral}
	}
	scaled := *v * 100
	return Metric{
		Value: fmt.Sprintf("%.*f%%", decimals, scaled),
		Class: classify(scaled),
	}
}

// FormatRatio renders an unscaled ratio (Sharpe, Sortino, profit factor).
func FormatRatio(v *float64) Metric {
	if v == nil {
		return Metric{Value: EmptyMarker, Class: SignNeutral}
	}
	return Metric{
		Value: fmt.Sprintf("%.2f", *v),
		Class: classify(*v),
	}
}

// FormatCount renders an integer counter, absent as 0.
func FormatCount(v *int) string {
	if v == nil {
		return "0"
	}
	return fmt.Sprintf("%d", *v)
}

// FormatTimestamp renders an RFC 3339 timestamp as a fixed UTC form. An
// empty input renders as the empty marker; an unparseable one passes
// through unchanged rather than failing.
func FormatTimestamp(ts string) string {
	if ts == "" {
		return EmptyMarker
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return parsed.UTC().Format("2006-01-02 15:04:05")
}

func classify(v float64) SignClass {
	if v < 0 {
		return SignNegative
	}
	return SignPositive
}

func fallbackString(s string) string {
	if s == "" {
		return EmptyMarker
	}
	return s
}
