// Package store implements the client-side caches of server-owned collections:
// wishlist membership and cart contents. Each cache is a single shared
// instance observed by any number of UI surfaces through a subscription API.
// Mutations go through the cache entry points only; observers never splice the
// underlying collections.
package store

import "sync"

// Store is a reactive value container. Every mutation is published to all
// current subscribers, and a subscriber attaching after a mutation receives
// the current value immediately rather than a snapshot captured at creation
// time.
//
// Each subscriber owns a coalescing channel of capacity one: when a new value
// is published before the previous one was consumed, the stale value is
// dropped and replaced. A slow observer therefore never blocks publishers or
// other observers; it simply skips intermediate states and always lands on
// the latest one.
type Store[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]chan T
	nextID int
}

// NewStore creates a store holding the given initial value.
func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe registers an observer. The returned channel immediately carries
// the current value, then every subsequent published value (coalesced to the
// latest). The cancel function detaches the observer and closes the channel.
func (s *Store[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan T, 1)
	ch <- s.value
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// set replaces the value and publishes it to all subscribers. Only the owning
// cache calls set; there is no exported mutation path.
func (s *Store[T]) set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = v
	for _, ch := range s.subs {
		// Coalesce: drop the unconsumed previous value, keep the latest.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// update applies fn to the current value under the lock and publishes the
// result. fn must not block.
func (s *Store[T]) update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.value = fn(s.value)
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.value
	}
	return s.value
}
