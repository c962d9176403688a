package repo

import (
	"strconv"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// entry is an "entry or compute" cell: at most one goroutine computes
// the value for a given key; concurrent callers for the same key block
// on the computing goroutine's result rather than recomputing it.
type entry[V any] struct {
	once  sync.Once
	value V
	err   error
}

func (e *entry[V]) get(compute func() (V, error)) (V, error) {
	e.once.Do(func() {
		e.value, e.err = compute()
	})
	return e.value, e.err
}

// typedCache is a concurrent map from string key to a lazily computed
// value, safe against duplicate concurrent computation of the same key.
type typedCache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
}

func newTypedCache[V any]() *typedCache[V] {
	return &typedCache[V]{entries: make(map[string]*entry[V])}
}

// Get returns the cached value for key, computing it at most once.
func (c *typedCache[V]) Get(key string, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	c.mu.Unlock()
	return e.get(compute)
}

// Peek returns the cached value for key without computing it.
func (c *typedCache[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return *new(V), false
	}
	return e.value, e.err == nil
}

// Set seeds the cache for key, e.g. after a batch query populated many
// keys at once (BatchAheadBehind).
func (c *typedCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &entry[V]{value: value}
	e.once.Do(func() {})
	c.entries[key] = e
}

// mergeBaseKey normalizes a pair of refs into a single cache key.
// merge-base is symmetric, so (a,b) and (b,a) must hash identically:
// the pair is sorted before hashing.
func mergeBaseKey(a, b string) string {
	pair := [2]string{a, b}
	if pair[0] > pair[1] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	h, err := hashstructure.Hash(pair, hashstructure.FormatV2, nil)
	if err != nil {
		// hashstructure only fails on unhashable types; [2]string never does.
		return pair[0] + "\x00" + pair[1]
	}
	return strconv.FormatUint(h, 16)
}

// Cache is the repository-wide, process-lifetime cache for expensive
// invariants: merge-base, ahead/behind, default branch, primary remote.
type Cache struct {
	mergeBase     *typedCache[string]
	aheadBehind   *typedCache[AheadBehind]
	defaultBranch *typedCache[string]
	remote        *typedCache[string]
	host          *typedCache[Host]
}

// NewCache creates an empty, per-process Cache.
func NewCache() *Cache {
	return &Cache{
		mergeBase:     newTypedCache[string](),
		aheadBehind:   newTypedCache[AheadBehind](),
		defaultBranch: newTypedCache[string](),
		remote:        newTypedCache[string](),
		host:          newTypedCache[Host](),
	}
}
