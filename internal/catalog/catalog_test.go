package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pythia-trading/pythia-console/internal/models"
)

func fixtureStrategies() map[string]models.StrategyDefinition {
	return map[string]models.StrategyDefinition{
		"statistical_pattern": {
			ID:     "statistical_pattern",
			Name:   "Statistical Pattern",
			Status: models.StrategyStatusActive,
			Parameters: map[string]models.ParameterSpec{
				"lookback_period": {Name: "Lookback Period", Type: models.ParameterTypeNumber, Default: float64(252)},
			},
		},
		"momentum_breakout": {
			ID:     "momentum_breakout",
			Name:   "Momentum Breakout",
			Status: models.StrategyStatusInactive,
		},
	}
}

func TestLoadFetchesExactlyOnce(t *testing.T) {
	var calls atomic.Int64
	c := New(FetchFunc(func(ctx context.Context) (map[string]models.StrategyDefinition, error) {
		calls.Add(1)
		return fixtureStrategies(), nil
	}), nil)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, int64(1), calls.Load())
	assert.True(t, c.Loaded())
	assert.Equal(t, 2, c.Len())

	def, ok := c.Get("statistical_pattern")
	require.True(t, ok)
	assert.Equal(t, "Statistical Pattern", def.Name)
}

func TestLoadErrorLeavesCatalogEmpty(t *testing.T) {
	c := New(FetchFunc(func(ctx context.Context) (map[string]models.StrategyDefinition, error) {
		return nil, errors.New("engine unreachable")
	}), nil)

	err := c.Load(context.Background())
	require.Error(t, err)

	assert.False(t, c.Loaded())
	assert.Equal(t, "engine unreachable", c.LoadError())
	assert.Zero(t, c.Len())
	assert.Empty(t, c.List())

	_, ok := c.Get("statistical_pattern")
	assert.False(t, ok)
}

func TestManualReloadAfterFailure(t *testing.T) {
	var calls atomic.Int64
	c := New(FetchFunc(func(ctx context.Context) (map[string]models.StrategyDefinition, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("engine unreachable")
		}
		return fixtureStrategies(), nil
	}), nil)

	require.Error(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))

	assert.True(t, c.Loaded())
	assert.Empty(t, c.LoadError())
	assert.Equal(t, int64(2), calls.Load())
}

func TestCatalogImmutableAfterSuccess(t *testing.T) {
	var calls atomic.Int64
	c := New(FetchFunc(func(ctx context.Context) (map[string]models.StrategyDefinition, error) {
		calls.Add(1)
		return fixtureStrategies(), nil
	}), nil)

	require.NoError(t, c.Load(context.Background()))

	// Mutating a returned copy never reaches the catalog.
	def, ok := c.Get("statistical_pattern")
	require.True(t, ok)
	def.Parameters["lookback_period"] = models.ParameterSpec{Name: "mutated"}
	def.Parameters["injected"] = models.ParameterSpec{}

	fresh, _ := c.Get("statistical_pattern")
	assert.Equal(t, "Lookback Period", fresh.Parameters["lookback_period"].Name)
	assert.Len(t, fresh.Parameters, 1)

	// And repeated loads never refetch.
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, int64(1), calls.Load())
}

func TestListIsSortedByID(t *testing.T) {
	c := New(FetchFunc(func(ctx context.Context) (map[string]models.StrategyDefinition, error) {
		return fixtureStrategies(), nil
	}), nil)
	require.NoError(t, c.Load(context.Background()))

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "momentum_breakout", list[0].ID)
	assert.Equal(t, "statistical_pattern", list[1].ID)
}
