// Package workpool provides a bounded fork-join executor for independent
// validation branches. The caller blocks until every branch has returned;
// one branch failing (or panicking) never prevents the others from being
// collected.
package workpool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Config configures the fork-join pool.
type Config struct {
	MaxConcurrent int // Maximum branches running at once (default: 4)
}

// DefaultConfig returns defaults sized for the validator fan-out.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 4}
}

// Pool runs independent branches with bounded parallelism.
type Pool struct {
	config Config
	logger *zap.Logger
}

// New creates a fork-join pool.
func New(config Config, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 4
	}
	return &Pool{
		config: config,
		logger: logger.Named("workpool"),
	}
}

// Branch is one unit of independent work, identified by name.
type Branch[T any] struct {
	Name    string
	Execute func(ctx context.Context) (T, error)
}

// Result is the captured outcome of a branch. A panic inside a branch is
// recovered and recorded as Err.
type Result[T any] struct {
	Name   string
	Value  T
	Err    error
}

// Join runs all branches and blocks until every one has completed or the
// context is cancelled. Results are returned keyed by branch name, in the
// submission order of branches, regardless of completion order, so
// downstream assembly is deterministic. There is no cancellation of
// in-flight branches: once started, a branch runs to completion.
func Join[T any](ctx context.Context, p *Pool, branches []Branch[T]) []Result[T] {
	if len(branches) == 0 {
		return nil
	}

	results := make([]Result[T], len(branches))
	sem := make(chan struct{}, p.config.MaxConcurrent)

	var wg sync.WaitGroup
	for i, b := range branches {
		wg.Add(1)
		go func(i int, b Branch[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = Result[T]{Name: b.Name, Err: ctx.Err()}
				return
			}

			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("branch panicked",
						zap.String("branch", b.Name),
						zap.Any("panic", r))
					results[i] = Result[T]{Name: b.Name, Err: fmt.Errorf("branch %s panicked: %v", b.Name, r)}
				}
			}()

			value, err := b.Execute(ctx)
			results[i] = Result[T]{Name: b.Name, Value: value, Err: err}
		}(i, b)
	}
	wg.Wait()

	return results
}
