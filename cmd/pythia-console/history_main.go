package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// runHistory prints recent configuration submissions from the journal.
func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := a.journal.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	printHistory(entries)
	return nil
}
