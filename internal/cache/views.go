package cache

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Views caches derived views keyed by request parameters. Concurrent
// misses on the same key share one computation, and a computation that
// overlaps a purge is returned to its callers but not stored.
type Views[T any] struct {
	lru   *LRUCache[T]
	group singleflight.Group
}

func NewViews[T any](maxSize int, ttl time.Duration) *Views[T] {
	return &Views[T]{lru: NewLRUCache[T](maxSize, ttl)}
}

// GetOrLoad returns the cached view for key or computes it with load.
// The second result reports a cache hit.
func (v *Views[T]) GetOrLoad(key string, load func() (T, error)) (T, bool, error) {
	if data, ok := v.lru.Get(key); ok {
		return data, true, nil
	}
	gen := v.lru.Generation()
	res, err, _ := v.group.Do(fmt.Sprintf("%d/%s", gen, key), func() (any, error) {
		data, err := load()
		if err != nil {
			return nil, err
		}
		v.lru.SetIfGeneration(key, data, gen)
		return data, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

func (v *Views[T]) Purge() int { return v.lru.Purge() }

func (v *Views[T]) CleanExpired() int { return v.lru.CleanExpired() }

func (v *Views[T]) Size() int { return v.lru.Size() }
