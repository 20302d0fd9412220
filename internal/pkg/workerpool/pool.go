package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config worker pool configuration
type Config struct {
	Workers int // concurrent goroutines
}

// DefaultConfig returns a small pool suitable for I/O bound work
func DefaultConfig() *Config {
	return &Config{Workers: 4}
}

// Pool is a bounded goroutine pool backed by ants
type Pool struct {
	pool   *ants.Pool
	logger *zap.Logger
}

// New creates a pool with cfg.Workers goroutines
func New(cfg *Config, logger *zap.Logger) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be > 0, got %d", cfg.Workers)
	}

	p, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(v interface{}) {
		logger.Error("worker panic recovered", zap.Any("panic", v))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create ants pool: %w", err)
	}

	return &Pool{pool: p, logger: logger}, nil
}

// Size returns the pool capacity
func (p *Pool) Size() int {
	return p.pool.Cap()
}

// ForEach runs fn(ctx, i) for i in [0, n) and waits for all started tasks.
// Tasks not yet submitted when ctx is cancelled are skipped; the returned
// error is then ctx.Err(). Results are expected to be written by index,
// so ordering is the caller's slice order regardless of completion order.
func (p *Pool) ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}

		i := i
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			fn(ctx, i)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			if errors.Is(err, ants.ErrPoolClosed) {
				return ErrPoolClosed
			}
			return fmt.Errorf("submit task %d: %w", i, err)
		}
	}

	wg.Wait()
	return ctx.Err()
}

// Close releases the pool
func (p *Pool) Close() {
	p.pool.Release()
}
