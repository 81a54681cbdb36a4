package privacy

import (
	"context"
	"sync"
)

// promise bridges a callback into a value that can be awaited. Only the
// first resolve counts.
type promise[T any] struct {
	once sync.Once
	ch   chan T
}

func newPromise[T any]() *promise[T] {
	return &promise[T]{ch: make(chan T, 1)}
}

func (p *promise[T]) resolve(v T) {
	p.once.Do(func() { p.ch <- v })
}

func (p *promise[T]) await(ctx context.Context) (T, error) {
	select {
	case v := <-p.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
