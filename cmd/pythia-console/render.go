package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pythia-trading/pythia-console/internal/journal"
	"github.com/pythia-trading/pythia-console/internal/models"
	"github.com/pythia-trading/pythia-console/internal/view"
)

// renderDashboard prints the display model as fixed-width terminal tables.
func renderDashboard(model view.DisplayModel) {
	fmt.Printf("\n═══ PORTFOLIO SUMMARY ═══  (updated %s)\n", model.LastUpdated)
	if model.Stale {
		fmt.Println("⚠️  Showing stale data from the last successful refresh")
	}
	if model.Error != "" {
		fmt.Printf("❌ %s\n", model.Error)
	}

	s := model.Summary
	fmt.Printf("\n")
	fmt.Printf("  Total PnL:     %12s    Win Rate:       %12s\n", s.TotalPnL.Value, s.WinRate.Value)
	fmt.Printf("  Total Trades:  %12s    Drawdown:       %12s\n", s.TotalTrades, s.CurrentDrawdown.Value)
	fmt.Printf("  Max Drawdown:  %12s    Sharpe Ratio:   %12s\n", s.MaxDrawdown.Value, s.SharpeRatio.Value)
	fmt.Printf("  Sortino Ratio: %12s    Profit Factor:  %12s\n", s.SortinoRatio.Value, s.ProfitFactor.Value)

	fmt.Printf("\n═══ STRATEGY PERFORMANCE ═══\n\n")
	if len(model.Strategies) == 0 {
		fmt.Println("  (no strategy records)")
	} else {
		fmt.Printf("  %-24s %-10s %-8s %10s %8s %10s %9s %7s\n",
			"STRATEGY", "SYMBOL", "INTERVAL", "RETURN", "SHARPE", "MAX DD", "WIN RATE", "PF")
		for _, row := range model.Strategies {
			fmt.Printf("  %-24s %-10s %-8s %10s %8s %10s %9s %7s\n",
				row.Strategy, row.Symbol, row.Interval,
				row.TotalReturn.Value, row.SharpeRatio.Value, row.MaxDrawdown.Value,
				row.WinRate.Value, row.ProfitFactor.Value)
		}
	}

	fmt.Printf("\n═══ RECENT TRADES ═══\n\n")
	if len(model.Trades) == 0 {
		fmt.Println("  (no recent trades)")
	} else {
		fmt.Printf("  %-20s %-24s %-10s %-6s %10s %-10s\n",
			"TIME", "STRATEGY", "SYMBOL", "SIDE", "PNL", "STATUS")
		for _, row := range model.Trades {
			fmt.Printf("  %-20s %-24s %-10s %-6s %10s %-10s\n",
				row.Time, row.Strategy, row.Symbol, row.Side, row.PnL.Value, row.Status)
		}
	}
	fmt.Println()
}

// printStrategy prints one strategy's parameter schema.
func printStrategy(def models.StrategyDefinition) {
	fmt.Printf("\n%s (%s)\n", def.Name, def.ID)
	if def.Description != "" {
		fmt.Printf("  %s\n", def.Description)
	}
	fmt.Printf("  Status: %s\n\n", def.Status)

	names := make([]string, 0, len(def.Parameters))
	for name := range def.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("  (no configurable parameters)")
		return
	}

	for _, name := range names {
		spec := def.Parameters[name]
		fmt.Printf("  %-20s %-8s default=%-10s%s\n", name, spec.Type, defaultLabel(spec), constraintLabel(spec))
		if spec.Description != "" {
			fmt.Printf("  %-20s %s\n", "", spec.Description)
		}
	}
}

// printHistory prints journal entries, newest first.
func printHistory(entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Println("No recorded submissions")
		return
	}
	fmt.Printf("%-20s %-24s %-9s %s\n", "SUBMITTED", "STRATEGY", "OUTCOME", "MESSAGE")
	for _, e := range entries {
		fmt.Printf("%-20s %-24s %-9s %s\n",
			e.SubmittedAt.Format("2006-01-02 15:04:05"),
			e.StrategyID, e.Outcome, truncate(e.Message, 48))
	}
}

func defaultLabel(spec models.ParameterSpec) string {
	if s := spec.DefaultString(); s != "" {
		return s
	}
	return `""`
}

func constraintLabel(spec models.ParameterSpec) string {
	switch {
	case spec.Min != nil && spec.Max != nil:
		return fmt.Sprintf("  range=[%s, %s]", trimFloat(*spec.Min), trimFloat(*spec.Max))
	case len(spec.Options) > 0:
		return fmt.Sprintf("  options=%s", strings.Join(spec.Options, "|"))
	}
	return ""
}

func ackMessage(ack *models.ConfigureResponse) string {
	if ack != nil && ack.Message != "" {
		return ack.Message
	}
	return "Configuration applied"
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
