package ownership

import (
	"context"
	"sync"
)

type memoKey struct{}

// memo caches owners for the lifetime of one request. Only hits are stored.
type memo struct {
	mu     sync.Mutex
	owners map[int64]int64
}

// WithMemo attaches a request-scoped ownership cache to ctx.
func WithMemo(ctx context.Context) context.Context {
	if memoFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, memoKey{}, &memo{owners: map[int64]int64{}})
}

func memoFrom(ctx context.Context) *memo {
	m, _ := ctx.Value(memoKey{}).(*memo)
	return m
}

func (m *memo) lookup(ids []int64, into map[int64]int64) []int64 {
	if m == nil {
		return ids
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	missing := ids[:0:0]
	for _, id := range ids {
		if owner, ok := m.owners[id]; ok {
			into[id] = owner
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

func (m *memo) store(found map[int64]int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, owner := range found {
		m.owners[id] = owner
	}
}
