package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/metrics"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/redis"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func setup(t *testing.T) (*Cache, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := redis.DefaultConfig()
	cfg.Addrs = []string{mr.Addr()}
	rdb, err := redis.New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	m := metrics.New()
	return New(rdb, time.Minute, m, logger.NewNop()), mr, m
}

func TestFetch(t *testing.T) {
	c, _, m := setup(t)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) (*item, error) {
		loads++
		return &item{ID: 1, Name: "first"}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := Fetch(ctx, c, "content", "app:content:detail:1", load)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Name)
	}
	assert.Equal(t, 1, loads)

	reg := m.Registry()
	assert.Equal(t, 2, testutil.CollectAndCount(reg, "perspectize_cache_lookups_total"))
}

func TestFetch_ErrorNotCached(t *testing.T) {
	c, mr, _ := setup(t)
	boom := errors.New("boom")

	_, err := Fetch(context.Background(), c, "content", "k", func(ctx context.Context) (*item, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestInvalidate(t *testing.T) {
	c, mr, _ := setup(t)
	ctx := context.Background()

	c.Set(ctx, "app:content:list:a", []int{1})
	c.Set(ctx, "app:content:list:b", []int{2})
	c.Set(ctx, "app:content:detail:1", item{ID: 1})

	c.Invalidate(ctx, "app:content:list")

	assert.False(t, mr.Exists("app:content:list:a"))
	assert.False(t, mr.Exists("app:content:list:b"))
	assert.True(t, mr.Exists("app:content:detail:1"))
}

func TestCorruptEntryIsMiss(t *testing.T) {
	c, mr, _ := setup(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	var dst item
	assert.False(t, c.Get(context.Background(), "content", "bad", &dst))
}

func TestNilCache(t *testing.T) {
	var c *Cache
	assert.Nil(t, New(nil, time.Minute, nil, nil))

	got, err := Fetch(context.Background(), c, "content", "k", func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	assert.NotPanics(t, func() {
		c.Set(context.Background(), "k", 1)
		c.Invalidate(context.Background(), "k")
	})
}
