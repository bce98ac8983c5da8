package cache

import (
	"strconv"
	"time"
)

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Blocker keeps a source from being fetched again for a while after a failure.
// The block lives in the cache so that every worker process sees it.
type Blocker struct {
	svc      CacheService
	key      string
	duration time.Duration
}

// NewBlocker creates a blocker storing its flag under key. A nil service
// yields a blocker that never blocks.
func NewBlocker(svc CacheService, key string, duration time.Duration) *Blocker {
	return &Blocker{svc: svc, key: key, duration: duration}
}

// Blocked reports whether the block flag is currently set
func (b *Blocker) Blocked() bool {
	if b == nil || b.svc == nil || b.key == "" {
		return false
	}
	_, err := b.svc.Get(b.key)
	return err == nil
}

// Block sets the block flag for the configured duration
func (b *Blocker) Block() error {
	if b == nil || b.svc == nil || b.key == "" || b.duration <= 0 {
		return nil
	}
	seconds := strconv.Itoa(int(b.duration / time.Second))
	return b.svc.Set(b.key, []byte(seconds), b.duration)
}

// Release clears the block flag
func (b *Blocker) Release() error {
	if b == nil || b.svc == nil || b.key == "" {
		return nil
	}
	return b.svc.Delete(b.key)
}

// Duration returns how long a block lasts
func (b *Blocker) Duration() time.Duration {
	if b == nil {
		return 0
	}
	return b.duration
}
