package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/backend"
	"github.com/pythia-trading/pythia-console/internal/catalog"
	"github.com/pythia-trading/pythia-console/internal/config"
	"github.com/pythia-trading/pythia-console/internal/journal"
	"github.com/pythia-trading/pythia-console/internal/metrics"
	"github.com/pythia-trading/pythia-console/internal/poller"
	"github.com/pythia-trading/pythia-console/internal/store"
	"github.com/pythia-trading/pythia-console/internal/submit"
)

// app wires the console components from one loaded configuration. Every
// subcommand builds one and closes it on exit.
type app struct {
	cfg       *config.Config
	client    *backend.Client
	metrics   *metrics.Registry
	store     store.SnapshotStore
	journal   journal.Journal
	poller    *poller.Poller
	catalog   *catalog.Catalog
	submitter *submit.Submitter
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	jnl, err := journal.FromConfig(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	client := backend.New(cfg)
	reg := metrics.NewRegistry()

	return &app{
		cfg:       cfg,
		client:    client,
		metrics:   reg,
		store:     store.FromConfig(cfg.Store),
		journal:   jnl,
		poller:    poller.New(client, cfg.GetPollInterval(), reg),
		catalog:   catalog.New(client, reg),
		submitter: submit.New(client, jnl, reg),
	}, nil
}

// warmStart seeds the poller with the stored last-known-good snapshot so
// there is something to show before the first poll completes.
func (a *app) warmStart(ctx context.Context) {
	snapshot, ok, err := a.store.Load(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("No stored snapshot for warm start")
		return
	}
	if ok {
		a.poller.Seed(snapshot)
		log.Info().Msg("Recovered last snapshot from store, stale until first poll")
	}
}

// persistSnapshots returns a poll listener that saves every fresh snapshot
// back to the store.
func (a *app) persistSnapshots() poller.Listener {
	return func(st poller.Status) {
		if st.FetchFailed || st.Stale || st.Snapshot == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.store.Save(ctx, st.Snapshot); err != nil {
			log.Debug().Err(err).Msg("Failed to persist snapshot")
		}
	}
}

// requestCtx returns a context bounded by the configured request timeout.
func (a *app) requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.GetRequestTimeout())
}

func (a *app) Close() {
	if err := a.journal.Close(); err != nil {
		log.Debug().Err(err).Msg("Journal close failed")
	}
}

// fanout composes poll listeners into one.
func fanout(listeners ...poller.Listener) poller.Listener {
	return func(st poller.Status) {
		for _, l := range listeners {
			if l != nil {
				l(st)
			}
		}
	}
}
