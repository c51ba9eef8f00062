// Package memory implements the store.KV interface with an in-process map.
// It backs tests and serves as the fallback when Redis is unavailable. The
// observable semantics match the redis driver: lazy expiry on access, TTLs
// armed on first increment, atomic fetch-and-delete.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/keyfold/keyfold/internal/auth/store"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// KV is a mutex-guarded map satisfying store.KV.
type KV struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is swappable so tests can control window expiry.
	now func() time.Time
}

var _ store.KV = (*KV)(nil)

// New returns an empty in-process KV.
func New() *KV {
	return &KV{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (kv *KV) SetClock(now func() time.Time) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.now = now
}

func (kv *KV) Get(_ context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	e, ok := kv.entries[key]
	if !ok {
		return "", store.ErrNotFound
	}
	if e.expired(kv.now()) {
		delete(kv.entries, key)
		return "", store.ErrNotFound
	}
	return e.value, nil
}

func (kv *KV) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = kv.now().Add(ttl)
	}
	kv.entries[key] = e
	kv.purgeSomeLocked()
	return nil
}

func (kv *KV) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	now := kv.now()
	e, ok := kv.entries[key]
	if ok && e.expired(now) {
		delete(kv.entries, key)
		ok = false
	}

	var count int64
	if ok {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, err
		}
		count = parsed + 1
		// TTL stays as armed by the first increment.
		e.value = strconv.FormatInt(count, 10)
		kv.entries[key] = e
		return count, nil
	}

	count = 1
	e = entry{value: "1"}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	kv.entries[key] = e
	return count, nil
}

func (kv *KV) GetDel(_ context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	e, ok := kv.entries[key]
	if !ok {
		return "", store.ErrNotFound
	}
	delete(kv.entries, key)
	if e.expired(kv.now()) {
		return "", store.ErrNotFound
	}
	return e.value, nil
}

func (kv *KV) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.entries, key)
	return nil
}

func (kv *KV) Ping(_ context.Context) error { return nil }

func (kv *KV) Close() error { return nil }

// Len reports the number of live entries. Tests only.
func (kv *KV) Len() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	n := 0
	now := kv.now()
	for _, e := range kv.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// purgeSomeLocked drops a bounded number of expired entries so the map does
// not grow without bound between reads. Caller holds kv.mu.
func (kv *KV) purgeSomeLocked() {
	const maxScan = 32
	now := kv.now()
	scanned := 0
	for key, e := range kv.entries {
		if e.expired(now) {
			delete(kv.entries, key)
		}
		scanned++
		if scanned >= maxScan {
			return
		}
	}
}
