// Package cache provides the TTL cache backing plan reuse.
package cache

import (
	"context"
	"sync"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
)

// InMemoryCache is a thread-safe TTL cache with lazy expiry on read and a
// background sweep for abandoned keys.
type InMemoryCache struct {
	store  map[string]cacheItem
	mutex  sync.RWMutex
	ttl    time.Duration
	logger zerolog.Logger
	done   chan struct{}
	once   sync.Once
}

type cacheItem struct {
	value      interface{}
	expiration int64
}

// CacheOption configures an InMemoryCache.
type CacheOption func(*InMemoryCache)

// WithLogger sets the cache's logger.
func WithLogger(logger zerolog.Logger) CacheOption {
	return func(c *InMemoryCache) {
		c.logger = logger
	}
}

// NewInMemoryCache creates an in-memory cache with the given TTL and starts
// its cleanup loop. Call Stop when done with it.
func NewInMemoryCache(defaultTTL time.Duration, options ...CacheOption) *InMemoryCache {
	c := &InMemoryCache{
		store:  make(map[string]cacheItem),
		ttl:    defaultTTL,
		logger: zerolog.Nop(),
		done:   make(chan struct{}),
	}
	for _, option := range options {
		option(c)
	}
	go c.cleanupLoop(10 * time.Minute)
	return c
}

// Get retrieves an item from the cache.
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.store[key]
	if !found {
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item not found", nil))
	}

	if time.Now().UnixNano() > item.expiration {
		// Expired entries are swept later; reads just miss.
		return nil, errbuilder.NotFoundErr(errbuilder.GenericErr("cache item expired", nil))
	}

	return item.value, nil
}

// Set adds or updates an item in the cache.
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.store[key] = cacheItem{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	}
	c.logger.Debug().Str("key", key).Msg("cache item set")
	return nil
}

// Len returns the number of stored items, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.store)
}

// Stop ends the cleanup loop.
func (c *InMemoryCache) Stop() {
	c.once.Do(func() {
		close(c.done)
	})
}

// cleanupLoop periodically removes expired items.
func (c *InMemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now().UnixNano()
			for key, item := range c.store {
				if now > item.expiration {
					delete(c.store, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
