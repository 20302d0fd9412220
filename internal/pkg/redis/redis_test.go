package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lk2023060901/perspectize-backend/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T, prefix string) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addrs = []string{mr.Addr()}
	cfg.KeyPrefix = prefix

	client, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default", config: DefaultConfig()},
		{name: "no address", config: &Config{}, wantErr: true},
		{name: "empty address", config: &Config{Addrs: []string{""}}, wantErr: true},
		{name: "cluster with db", config: &Config{Addrs: []string{"a:1", "b:1"}, DB: 2}, wantErr: true},
		{name: "sentinel with db", config: &Config{Addrs: []string{"a:1", "b:1"}, MasterName: "m", DB: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addrs = []string{"127.0.0.1:1"}
	cfg.DialTimeout = 100 * time.Millisecond
	cfg.MaxRetries = 0

	_, err := New(cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestSetGetDel(t *testing.T) {
	client, mr := setupTestClient(t, "test")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	assert.True(t, mr.Exists("test:k"))

	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	n, err := client.Del(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = client.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestDeleteByPrefix(t *testing.T) {
	client, mr := setupTestClient(t, "")
	ctx := context.Background()

	for _, k := range []string{"app:content:list:a", "app:content:list:b", "app:content:detail:1"} {
		require.NoError(t, client.Set(ctx, k, "x", 0))
	}

	n, err := client.DeleteByPrefix(ctx, "app:content:list")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("app:content:detail:1"))
	assert.False(t, mr.Exists("app:content:list:a"))
}

func TestEval(t *testing.T) {
	client, _ := setupTestClient(t, "p")
	ctx := context.Background()

	result, err := client.Eval(ctx, `return redis.call('INCRBY', KEYS[1], ARGV[1])`, []string{"counter"}, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result)

	got, err := client.Get(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "5", string(got))
}
