package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pythia-trading/pythia-console/internal/form"
)

// runConfigure validates and submits one strategy configuration from flags.
func runConfigure(cmd *cobra.Command, args []string) error {
	strategyID, _ := cmd.Flags().GetString("strategy")
	params, _ := cmd.Flags().GetStringArray("param")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := a.requestCtx()
	defer cancel()
	if err := a.catalog.Load(ctx); err != nil {
		return fmt.Errorf("failed to load strategy catalog: %w", err)
	}

	def, ok := a.catalog.Get(strategyID)
	if !ok {
		return fmt.Errorf("unknown strategy %q; try 'pythia-console strategies list'", strategyID)
	}

	// Selecting prefills every field from the schema defaults; --param
	// overrides individual fields on top.
	engine := form.NewEngine()
	engine.Select(def)

	for _, p := range params {
		name, value, found := strings.Cut(p, "=")
		if !found {
			return fmt.Errorf("invalid --param %q, expected name=value", p)
		}
		if err := engine.SetValue(name, value); err != nil {
			return err
		}
	}

	req, err := engine.BuildRequest()
	if err != nil {
		var vErr *form.ValidationError
		if errors.As(err, &vErr) {
			printValidationErrors(vErr)
			return fmt.Errorf("validation failed for %d field(s)", len(vErr.Fields))
		}
		return err
	}

	if dryRun {
		fmt.Printf("Would submit to %s:\n", a.cfg.API.BaseURL)
		fmt.Printf("  strategy: %s\n", req.StrategyID)
		for _, name := range engine.FieldNames() {
			fmt.Printf("  %s = %s\n", name, req.Parameters[name])
		}
		return nil
	}

	subCtx, subCancel := a.requestCtx()
	defer subCancel()

	ack, err := a.submitter.Submit(subCtx, req)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s\n", ackMessage(ack))
	return nil
}

func printValidationErrors(vErr *form.ValidationError) {
	names := make([]string, 0, len(vErr.Fields))
	for name := range vErr.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("❌ Validation failed:")
	for _, name := range names {
		fmt.Printf("   %s: %s\n", name, vErr.Fields[name])
	}
}
