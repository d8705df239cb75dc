package scanning

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// sweep runs unit for every index in [0,total) on a fixed set of workers
// pulling from a shared cursor. No unit starts after ctx is canceled; units
// already started run to completion with a context that ignores the cancel.
func sweep(ctx context.Context, total uint64, workers int, unit func(ctx context.Context, i uint64)) {
	if total == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	if uint64(workers) > total {
		workers = int(total)
	}

	probeCtx := context.WithoutCancel(ctx)
	var cursor atomic.Uint64

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				if ctx.Err() != nil {
					return nil
				}
				i := cursor.Add(1) - 1
				if i >= total {
					return nil
				}
				unit(probeCtx, i)
			}
		})
	}
	_ = g.Wait()
}

// percent is floor(done*100/total), bounded to 100.
func percent(done, total uint64) uint32 {
	if total == 0 {
		return 100
	}
	p := done * 100 / total
	if p > 100 {
		p = 100
	}
	return uint32(p)
}

// seenSet records identities already emitted in a run.
type seenSet[K comparable] struct {
	mu sync.Mutex
	m  map[K]struct{}
}

func newSeenSet[K comparable]() *seenSet[K] {
	return &seenSet[K]{m: make(map[K]struct{})}
}

// add returns true the first time key is added.
func (s *seenSet[K]) add(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = struct{}{}
	return true
}

func (s *seenSet[K]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
