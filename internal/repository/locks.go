// internal/repository/locks.go
package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedLocker serializes work per entity key. Entries are dropped once no
// goroutine holds or waits on them.
type KeyedLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{entries: make(map[string]*lockEntry)}
}

// Lock blocks until the key is free or ctx is done. The returned func releases
// the key and is safe to call more than once.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(key, entry)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, entry *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

// Size reports how many keys are currently held or awaited.
func (l *KeyedLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func BeatKey(id uuid.UUID) string {
	return "beat:" + id.String()
}

func ProducerKey(id uuid.UUID) string {
	return "producer:" + id.String()
}
