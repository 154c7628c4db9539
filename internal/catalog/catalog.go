// Package catalog holds the strategy schema map for one console session.
// The map is fetched once, never polled, and never mutated after the first
// successful load. A failed load leaves it empty with an error state; the
// caller may retry by calling Load again.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pythia-trading/pythia-console/internal/metrics"
	"github.com/pythia-trading/pythia-console/internal/models"
)

// Fetcher retrieves the strategy schema map.
type Fetcher interface {
	FetchStrategies(ctx context.Context) (map[string]models.StrategyDefinition, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context) (map[string]models.StrategyDefinition, error)

// FetchStrategies implements Fetcher.
func (f FetchFunc) FetchStrategies(ctx context.Context) (map[string]models.StrategyDefinition, error) {
	return f(ctx)
}

// Catalog is the session-scoped strategy lookup.
type Catalog struct {
	fetcher Fetcher
	metrics *metrics.Registry

	mu      sync.RWMutex
	loaded  bool
	loadErr string
	byID    map[string]models.StrategyDefinition
}

// New builds an empty catalog.
func New(fetcher Fetcher, reg *metrics.Registry) *Catalog {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Catalog{
		fetcher: fetcher,
		metrics: reg,
		byID:    map[string]models.StrategyDefinition{},
	}
}

// Load fetches the schema map. Once a load has succeeded, further calls are
// no-ops; after a failure the catalog stays empty and Load may be called
// again as a manual reload.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	if c.loaded {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	strategies, err := c.fetcher.FetchStrategies(ctx)

	c.mu.Lock()
	if c.loaded {
		// Another Load won the race; its result stands.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.loadErr = err.Error()
		c.mu.Unlock()

		c.metrics.RecordCatalogLoad(metrics.ResultError)
		log.Warn().Err(err).Msg("Strategy catalog load failed")
		return err
	}

	c.byID = make(map[string]models.StrategyDefinition, len(strategies))
	for id, def := range strategies {
		c.byID[id] = def.Clone()
	}
	c.loaded = true
	c.loadErr = ""
	count := len(c.byID)
	c.mu.Unlock()

	c.metrics.RecordCatalogLoad(metrics.ResultSuccess)
	log.Info().Int("strategies", count).Msg("Strategy catalog loaded")
	return nil
}

// Loaded reports whether a load has succeeded this session.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// LoadError returns the most recent load failure, empty after a success.
func (c *Catalog) LoadError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Get looks up one strategy by identifier, returning a copy.
func (c *Catalog) Get(id string) (models.StrategyDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byID[id]
	if !ok {
		return models.StrategyDefinition{}, false
	}
	return def.Clone(), true
}

// List returns all strategies as copies, ordered by identifier.
func (c *Catalog) List() []models.StrategyDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.StrategyDefinition, 0, len(c.byID))
	for _, def := range c.byID {
		out = append(out, def.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded strategies.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}
