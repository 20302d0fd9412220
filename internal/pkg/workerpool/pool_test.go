package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	_, err := New(&Config{Workers: 0}, zap.NewNop())
	assert.Error(t, err)

	p, err := New(nil, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, 4, p.Size())
}

func TestForEach_WritesByIndex(t *testing.T) {
	p, err := New(&Config{Workers: 3}, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	out := make([]int, 20)
	err = p.ForEach(context.Background(), len(out), func(ctx context.Context, i int) {
		// later indexes finish first
		time.Sleep(time.Duration(len(out)-i) * time.Millisecond)
		out[i] = i * i
	})
	require.NoError(t, err)

	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestForEach_Cancelled(t *testing.T) {
	p, err := New(&Config{Workers: 1}, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32

	err = p.ForEach(ctx, 10, func(ctx context.Context, i int) {
		ran.Add(1)
		if i == 1 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, int(ran.Load()), 10)
}

func TestForEach_PanicDoesNotHang(t *testing.T) {
	p, err := New(&Config{Workers: 2}, zap.NewNop())
	require.NoError(t, err)
	defer p.Close()

	var done atomic.Int32
	err = p.ForEach(context.Background(), 4, func(ctx context.Context, i int) {
		if i == 0 {
			panic("boom")
		}
		done.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), done.Load())
}

func TestForEach_ClosedPool(t *testing.T) {
	p, err := New(&Config{Workers: 1}, zap.NewNop())
	require.NoError(t, err)
	p.Close()

	err = p.ForEach(context.Background(), 1, func(ctx context.Context, i int) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}
