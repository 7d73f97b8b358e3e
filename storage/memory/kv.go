// Package memorystore provides the in-process TTL key-value store
// backing the state store in single-process deployments.
package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type kvItem struct {
	value   []byte
	expires time.Time
}

// KV is a mutex-guarded map with TTL support. Take is an atomic
// check-and-remove, which is what makes single-use state tokens
// race-free. Only safe for single-process deployments.
type KV struct {
	mu    sync.Mutex
	items map[string]kvItem

	reaper *cron.Cron
}

func NewKV() *KV {
	return &KV{items: make(map[string]kvItem)}
}

func (k *KV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	k.mu.Lock()
	defer k.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	k.items[key] = kvItem{value: append([]byte(nil), value...), expires: exp}
	return nil
}

// Take removes and returns the value under key. Exactly one of any
// number of concurrent callers observes ok=true.
func (k *KV) Take(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	k.mu.Lock()
	defer k.mu.Unlock()
	it, ok := k.items[key]
	if !ok {
		return nil, false, nil
	}
	delete(k.items, key)
	if !it.expires.IsZero() && time.Now().After(it.expires) {
		return nil, false, nil
	}
	return it.value, true, nil
}

func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	k.mu.Lock()
	defer k.mu.Unlock()
	it, ok := k.items[key]
	if !ok {
		return nil, false, nil
	}
	if !it.expires.IsZero() && time.Now().After(it.expires) {
		delete(k.items, key)
		return nil, false, nil
	}
	return it.value, true, nil
}

func (k *KV) Del(ctx context.Context, key string) error {
	_ = ctx
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.items, key)
	return nil
}

// Len reports live (unexpired) entries.
func (k *KV) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	now := time.Now()
	for _, it := range k.items {
		if it.expires.IsZero() || now.Before(it.expires) {
			n++
		}
	}
	return n
}

// StartReaper sweeps expired entries on the given interval so memory
// stays bounded even when tokens are never consumed. Call Stop on
// shutdown. Expiry remains enforced on access either way; the sweep is
// purely about memory.
func (k *KV) StartReaper(every time.Duration) error {
	if every <= 0 {
		every = time.Minute
	}
	c := cron.New()
	if _, err := c.AddFunc("@every "+every.String(), k.sweep); err != nil {
		return err
	}
	c.Start()
	k.mu.Lock()
	k.reaper = c
	k.mu.Unlock()
	return nil
}

// Stop halts the background reaper, if running.
func (k *KV) Stop() {
	k.mu.Lock()
	c := k.reaper
	k.reaper = nil
	k.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

func (k *KV) sweep() {
	now := time.Now()
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, it := range k.items {
		if !it.expires.IsZero() && now.After(it.expires) {
			delete(k.items, key)
		}
	}
}
