package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pythia-trading/pythia-console/internal/board"
	"github.com/pythia-trading/pythia-console/internal/poller"
)

// runDashboard renders the dashboard once, or continuously with --watch.
func runDashboard(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if watch {
		return watchDashboard(a)
	}
	return renderOnce(a)
}

// renderOnce fetches the current report and renders it. When the fetch
// fails but the store holds a previous snapshot, that snapshot renders
// flagged stale alongside the error.
func renderOnce(a *app) error {
	ctx, cancel := a.requestCtx()
	defer cancel()

	snapshot, err := a.client.FetchPerformance(ctx)
	if err != nil {
		stored, ok, loadErr := a.store.Load(context.Background())
		if loadErr != nil || !ok {
			return err
		}
		renderDashboard(board.Display(poller.Status{
			Snapshot:    stored,
			Stale:       true,
			FetchFailed: true,
			LastError:   err.Error(),
		}))
		return nil
	}

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer saveCancel()
	if err := a.store.Save(saveCtx, snapshot); err != nil {
		log.Debug().Err(err).Msg("Failed to persist snapshot")
	}

	renderDashboard(board.Display(poller.Status{Snapshot: snapshot}))
	return nil
}

// watchDashboard runs the poll loop and repaints on every completed fetch
// until interrupted.
func watchDashboard(a *app) error {
	a.warmStart(context.Background())

	repaint := func(st poller.Status) {
		fmt.Print("\033[2J\033[H")
		renderDashboard(board.Display(st))
		fmt.Println("Watching... Ctrl+C to exit")
	}
	a.poller.OnUpdate(fanout(a.persistSnapshots(), repaint))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.poller.Start(ctx)
	defer a.poller.Stop()

	// First paint from the warm-start seed; the immediate fetch replaces it.
	if st := a.poller.Status(); st.Snapshot != nil {
		repaint(st)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Dashboard watch stopped")
	return nil
}
