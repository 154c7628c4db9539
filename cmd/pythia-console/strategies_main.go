package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runStrategiesList prints the strategy catalog as a table.
func runStrategiesList(cmd *cobra.Command, args []string) error {
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

	defs := a.catalog.List()
	if len(defs) == 0 {
		fmt.Println("No strategies available")
		return nil
	}

	fmt.Printf("%-24s %-28s %-10s %s\n", "ID", "NAME", "STATUS", "PARAMETERS")
	for _, def := range defs {
		fmt.Printf("%-24s %-28s %-10s %d\n", def.ID, def.Name, def.Status, len(def.Parameters))
	}
	return nil
}

// runStrategiesShow prints one strategy's parameter schema.
func runStrategiesShow(cmd *cobra.Command, args []string) error {
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

	def, ok := a.catalog.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown strategy %q; try 'pythia-console strategies list'", args[0])
	}

	printStrategy(def)
	return nil
}
