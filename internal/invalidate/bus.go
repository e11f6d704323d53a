// Package invalidate marks client-side views stale so they refresh ahead of
// their next scheduled poll.
package invalidate

import (
	"sync"

	"go.uber.org/zap"
)

const (
	KeyConversations = "conversations"
	KeyAllMessages   = "messages"
	KeyUnread        = "unread"
)

// Messages is the key of one conversation's message list.
func Messages(conversationID string) string { return "messages:" + conversationID }

// Unread is the key of one conversation's unread badge.
func Unread(conversationID string) string { return "unread:" + conversationID }

// Invalidator marks views stale.
type Invalidator interface {
	Invalidate(keys ...string)
}

type subscriber struct {
	id int
	fn func(key string)
}

// Bus is an in-process Invalidator. Each key carries a version that increments on
// every invalidation; subscribers are called synchronously and must not block.
type Bus struct {
	mu       sync.Mutex
	versions map[string]uint64
	subs     map[string][]subscriber
	nextID   int
	log      *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		versions: make(map[string]uint64),
		subs:     make(map[string][]subscriber),
		log:      log,
	}
}

func (b *Bus) Invalidate(keys ...string) {
	var fire []func()

	b.mu.Lock()
	for _, key := range keys {
		b.versions[key]++
		for _, s := range b.subs[key] {
			fn, k := s.fn, key
			fire = append(fire, func() { fn(k) })
		}
	}
	b.mu.Unlock()

	b.log.Debug("views invalidated", zap.Strings("keys", keys))
	for _, f := range fire {
		f()
	}
}

// Version returns how many times key has been invalidated.
func (b *Bus) Version(key string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.versions[key]
}

// Subscribe registers fn for key and returns a function that removes it.
func (b *Bus) Subscribe(key string, fn func(key string)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[key] = append(b.subs[key], subscriber{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[key]
		for i, s := range subs {
			if s.id == id {
				b.subs[key] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subs[key]) == 0 {
			delete(b.subs, key)
		}
	}
}

// Nop discards invalidations.
type Nop struct{}

func (Nop) Invalidate(...string) {}
