package segment

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes phrase segmentations. It is safe for concurrent use and is
// shared by all pipeline workers.
type Cache struct {
	lru *lru.Cache[string, []string]
}

// NewCache creates a cache holding at most size phrases.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c}, nil
}

// Get returns a copy of the cached terms for key.
func (c *Cache) Get(key string) ([]string, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]string{}, v...), true
}

// Add stores a copy of terms under key.
func (c *Cache) Add(key string, terms []string) {
	if c == nil {
		return
	}
	c.lru.Add(key, append([]string{}, terms...))
}

// Len returns the number of cached phrases.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
