package store

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// loaded wraps a cached value. A nil value records that the artifact was
// absent when it was loaded.
type loaded[T any] struct {
	value *T
}

// lazy holds one process-wide cached artifact. Concurrent first callers
// share a single load; failed loads are not cached.
type lazy[T any] struct {
	state atomic.Pointer[loaded[T]]
	gen   atomic.Uint64
	group singleflight.Group
}

// get returns the cached value, loading it on first use. The shared load runs
// detached from any one caller's cancellation; each caller only stops waiting
// when its own ctx is done.
func (l *lazy[T]) get(ctx context.Context, load func(context.Context) (*T, error)) (*T, error) {
	if st := l.state.Load(); st != nil {
		return st.value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("load", func() (interface{}, error) {
		if st := l.state.Load(); st != nil {
			return st.value, nil
		}
		gen := l.gen.Load()
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		// A reset that raced with this load wins; the next caller reloads.
		if l.gen.Load() == gen {
			l.state.Store(&loaded[T]{value: value})
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*T), nil
	}
}

func (l *lazy[T]) reset() {
	l.gen.Add(1)
	l.state.Store(nil)
}
