package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pythia-trading/pythia-console/internal/board"
)

// runBoard serves the web board with the live poll loop behind it.
func runBoard(cmd *cobra.Command, args []string) error {
	listen, _ := cmd.Flags().GetString("listen")

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if listen == "" {
		listen = a.cfg.Board.Listen
	}

	server := board.NewServer(listen, a.poller, a.metrics)

	a.warmStart(context.Background())
	a.poller.OnUpdate(fanout(a.persistSnapshots(), server.Publish))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.poller.Start(ctx)
	defer a.poller.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("Shutdown signal received")
		cancel()
		return <-serverErr
	case err := <-serverErr:
		return err
	}
}
