package main

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgzlucario/mempool"
)

func TestScenarios(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			assert.NoError(t, s.run())
		})
	}
}

func TestRunStress(t *testing.T) {
	assert := assert.New(t)

	m, err := mempool.New(mempool.Options{Capacity: 16 * 1024})
	require.NoError(t, err)

	res, err := runStress(context.Background(), m, stressConfig{
		workers: 4,
		ops:     5000,
		maxSize: 512,
		seed:    7,
	})
	assert.NoError(err)
	assert.Equal(4*5000, res.ops)
	assert.Equal(0, res.stats.Blocks)
	assert.Equal(0, res.stats.InUse)
	assert.Greater(res.stats.Allocs, uint64(0))
	assert.Equal(4*5000, res.latency.Len())
}

func TestRunStressCanceled(t *testing.T) {
	m, err := mempool.New(mempool.Options{Capacity: 1024})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runStress(ctx, m, stressConfig{workers: 2, ops: 10, maxSize: 16})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Stats().Blocks)
}

func TestRunStressInvalid(t *testing.T) {
	m, err := mempool.New(mempool.Options{Capacity: 1024})
	require.NoError(t, err)

	_, err = runStress(context.Background(), m, stressConfig{workers: 0, ops: 10, maxSize: 16})
	assert.Error(t, err)
}

func TestPopulate(t *testing.T) {
	assert := assert.New(t)

	m, err := mempool.New(mempool.Options{Capacity: 4096})
	require.NoError(t, err)

	populate(m, gofakeit.New(3), 64, 50)
	assert.NoError(m.Check())

	stats := m.Stats()
	assert.Greater(stats.Blocks, 0)
	assert.Less(stats.Blocks, 64)
	assert.Equal(stats.InUse+stats.Free, stats.Capacity)
}
