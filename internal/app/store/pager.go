package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ikkim/shopsphere-storefront/pkg/logger"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
	"golang.org/x/sync/singleflight"
)

// shared runs fn once for all concurrent callers of key. fn gets a context
// that outlives any single caller, so one caller going away does not fail
// the others; each caller still stops waiting when its own ctx ends.
func shared(ctx context.Context, group *singleflight.Group, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	detached := context.WithoutCancel(ctx)
	ch := group.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type pageFunc[T any] func(ctx context.Context, filter, cursor string) (*shopapi.Page[T], error)

// pagedList is a cursor-paginated list shared by the product and review
// stores. Pages are appended or replaced under mu; the network call runs
// outside it.
type pagedList[T any] struct {
	name string

	mu         sync.RWMutex
	items      []T
	filter     string
	listFilter string
	cursor     string
	generation uint64
	err        error

	inflight atomic.Int32
	group    singleflight.Group
}

// fetch loads the first page when reset is set, otherwise the page after the
// stored cursor. A non-reset call with no cursor does nothing. A filter that
// differs from the current one always starts over.
func (p *pagedList[T]) fetch(ctx context.Context, filter string, reset bool, load pageFunc[T]) error {
	p.mu.Lock()
	if filter != p.filter {
		reset = true
	}
	if !reset && p.cursor == "" {
		p.mu.Unlock()
		return nil
	}

	cursor := p.cursor
	restore := ""
	if reset {
		if p.filter == filter {
			restore = p.cursor
		}
		p.generation++
		p.filter = filter
		p.cursor = ""
		cursor = ""
	}
	gen := p.generation
	p.mu.Unlock()

	p.inflight.Add(1)
	defer p.inflight.Add(-1)

	key := fmt.Sprintf("%d|%s|%s", gen, filter, cursor)
	_, err := shared(ctx, &p.group, key, func(ctx context.Context) (interface{}, error) {
		page, err := load(ctx, filter, cursor)
		p.apply(gen, filter, cursor, restore, reset, page, err)
		return nil, err
	})
	return err
}

// apply records the outcome of a page load. restore is the cursor to put
// back when a reset of the list already shown fails.
func (p *pagedList[T]) apply(gen uint64, filter, cursor, restore string, reset bool, page *shopapi.Page[T], err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A page from an older reset, or one whose cursor was already consumed
	// by an earlier call, would duplicate or mix items.
	if gen != p.generation || (!reset && cursor != p.cursor) {
		logger.Debug("Discarding stale page", map[string]interface{}{
			"list":       p.name,
			"generation": gen,
			"current":    p.generation,
			"cursor":     cursor,
		})
		return
	}

	if err != nil {
		logger.Error("Failed to fetch page", err, map[string]interface{}{
			"list":   p.name,
			"filter": filter,
		})
		p.err = err
		if reset {
			if p.listFilter != filter {
				p.items = nil
				p.listFilter = filter
			} else {
				p.cursor = restore
			}
		}
		return
	}

	if reset {
		p.items = append([]T(nil), page.Items...)
	} else {
		p.items = append(p.items, page.Items...)
	}
	p.listFilter = filter
	p.cursor = page.NextCursor
	p.err = nil
}

func (p *pagedList[T]) snapshot() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]T{}, p.items...)
}

func (p *pagedList[T]) hasMore() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cursor != ""
}

func (p *pagedList[T]) lastErr() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

func (p *pagedList[T]) currentFilter() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

func (p *pagedList[T]) loading() bool {
	return p.inflight.Load() > 0
}

// mutate runs fn over the items under the write lock.
func (p *pagedList[T]) mutate(fn func(items []T) []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = fn(p.items)
}

// mutateIf is mutate restricted to a list whose shown filter passes match.
func (p *pagedList[T]) mutateIf(match func(filter string) bool, fn func(items []T) []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if match(p.listFilter) {
		p.items = fn(p.items)
	}
}

// entitySlot holds the single entity shown on a detail page.
type entitySlot[T any] struct {
	name string

	mu     sync.RWMutex
	value  *T
	wantID string
	err    error

	inflight atomic.Int32
	group    singleflight.Group
}

// fetch replaces the slot with the entity for id. Concurrent calls for the
// same id share one request; a response for an id that is no longer wanted
// is dropped.
func (s *entitySlot[T]) fetch(ctx context.Context, id string, load func(ctx context.Context, id string) (*T, error)) (*T, error) {
	s.mu.Lock()
	s.wantID = id
	s.mu.Unlock()

	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	v, err := shared(ctx, &s.group, id, func(ctx context.Context) (interface{}, error) {
		value, err := load(ctx, id)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.wantID != id {
			return value, err
		}
		if err != nil {
			logger.Error("Failed to fetch entity", err, map[string]interface{}{
				"entity": s.name,
				"id":     id,
			})
			s.err = err
			s.value = nil
			return nil, err
		}
		s.value = value
		s.err = nil
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	value, ok := v.(*T)
	if !ok || value == nil {
		return nil, nil
	}

	out := *value
	return &out, nil
}

func (s *entitySlot[T]) get() (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == nil {
		return nil, s.err
	}
	out := *s.value
	return &out, s.err
}

func (s *entitySlot[T]) update(fn func(v *T) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != nil && !fn(s.value) {
		s.value = nil
	}
}

func (s *entitySlot[T]) loading() bool {
	return s.inflight.Load() > 0
}
