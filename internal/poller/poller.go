// Package poller drives the periodic performance refresh: an immediate
// fetch on start, then one fetch per interval tick with at-most-one-in-flight
// discipline. A tick that lands while a fetch is still pending is skipped
// outright, never queued, so snapshots always apply in request-issue order.
//
// Failures follow a stale-but-available policy: the error flag is raised and
// the previous snapshot stays visible, and the loop keeps retrying on every
// tick with no backoff. After Stop, the result of an outstanding fetch is
// discarded rather than applied.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/metrics"
	"github.com/pythia-trading/pythia-console/internal/models"
)

// DefaultInterval is the poll cadence used when none is configured.
const DefaultInterval = 30 * time.Second

// Fetcher retrieves one performance snapshot.
type Fetcher interface {
	FetchPerformance(ctx context.Context) (*models.PerformanceSnapshot, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context) (*models.PerformanceSnapshot, error)

// FetchPerformance implements Fetcher.
func (f FetchFunc) FetchPerformance(ctx context.Context) (*models.PerformanceSnapshot, error) {
	return f(ctx)
}

// Status is a point-in-time copy of the poller's display state. Snapshot is
// the last-known-good report (nil before the first success), retained across
// failures; FetchFailed and LastError describe the most recent failure.
type Status struct {
	Snapshot    *models.PerformanceSnapshot
	FetchFailed bool
	LastError   string
	LastSuccess time.Time
	Stale       bool
	Polls       uint64
}

// Listener is notified with a fresh Status copy after every completed fetch.
type Listener func(Status)

// Poller owns one refresh loop and its snapshot state.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	metrics  *metrics.Registry
	onUpdate Listener

	mu       sync.RWMutex
	running  bool
	stopped  bool
	fetching bool
	session  uint64
	cancel   context.CancelFunc
	done     chan struct{}

	snapshot    *models.PerformanceSnapshot
	stale       bool
	failed      bool
	lastError   string
	lastSuccess time.Time
	polls       uint64
}

// New builds a poller. A non-positive interval falls back to DefaultInterval.
func New(fetcher Fetcher, interval time.Duration, reg *metrics.Registry) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		metrics:  reg,
	}
}

// OnUpdate registers the update listener. Must be called before Start.
func (p *Poller) OnUpdate(fn Listener) {
	p.onUpdate = fn
}

// Seed installs a snapshot recovered from the warm-start store, marked
// stale. It is ignored once any live snapshot has been applied.
func (p *Poller) Seed(snapshot *models.PerformanceSnapshot) {
	if snapshot == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot != nil {
		return
	}
	p.snapshot = snapshot.Clone()
	p.stale = true
}

// Start launches the refresh loop: one immediate fetch, then one per tick.
// Starting an already-running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.stopped = false
	p.session++
	session := p.session
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	log.Info().
		Dur("interval", p.interval).
		Msg("Performance poller started")

	go p.run(runCtx, done, session)
}

// Stop cancels the loop and marks any outstanding fetch abandoned; its
// eventual result will not touch state. Stop returns once the loop has
// exited and is safe to call repeatedly.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done

	log.Info().Msg("Performance poller stopped")
}

// Status returns a copy of the current display state.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.statusLocked()
}

func (p *Poller) statusLocked() Status {
	return Status{
		Snapshot:    p.snapshot.Clone(),
		FetchFailed: p.failed,
		LastError:   p.lastError,
		LastSuccess: p.lastSuccess,
		Stale:       p.stale,
		Polls:       p.polls,
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}, session uint64) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.beginFetch(ctx, session)

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.session == session {
				p.running = false
				p.stopped = true
			}
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.beginFetch(ctx, session)
		}
	}
}

// beginFetch launches one fetch unless one is already in flight, in which
// case the tick is dropped.
func (p *Poller) beginFetch(ctx context.Context, session uint64) {
	p.mu.Lock()
	if p.fetching {
		p.mu.Unlock()
		p.metrics.RecordSkippedTick()
		log.Debug().Msg("Poll tick skipped, fetch still in flight")
		return
	}
	p.fetching = true
	p.mu.Unlock()

	go func() {
		start := time.Now()
		snapshot, err := p.fetcher.FetchPerformance(ctx)
		p.complete(session, snapshot, err, time.Since(start))
	}()
}

func (p *Poller) complete(session uint64, snapshot *models.PerformanceSnapshot, err error, elapsed time.Duration) {
	p.mu.Lock()
	p.fetching = false

	// Results from a stopped or superseded session are abandoned.
	if p.stopped || session != p.session {
		p.mu.Unlock()
		log.Debug().Msg("Discarding fetch result after stop")
		return
	}

	p.polls++
	if err != nil {
		p.failed = true
		p.lastError = err.Error()
	} else {
		p.snapshot = snapshot
		p.stale = false
		p.failed = false
		p.lastError = ""
		p.lastSuccess = time.Now()
	}
	status := p.statusLocked()
	listener := p.onUpdate
	p.mu.Unlock()

	if err != nil {
		p.metrics.RecordPoll(metrics.ResultError, elapsed)
		log.Warn().
			Err(err).
			Dur("elapsed", elapsed).
			Msg("Performance fetch failed, keeping previous snapshot")
	} else {
		p.metrics.RecordPoll(metrics.ResultSuccess, elapsed)
		log.Debug().
			Dur("elapsed", elapsed).
			Msg("Performance snapshot refreshed")
	}

	if listener != nil {
		listener(status)
	}
}
