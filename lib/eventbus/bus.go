// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultMailboxSize is the per-subscription buffer used when New is
// given a non-positive size.
const DefaultMailboxSize = 256

// Bus fans events of type T out to subscriptions.
type Bus[T any] struct {
	mailboxSize int

	mu          sync.Mutex
	subscribers []*Subscription[T]
}

// Subscription is one consumer's handle. Receive from C until it is
// closed; release with Close.
type Subscription[T any] struct {
	bus        *Bus[T]
	channel    chan T
	done       <-chan struct{}
	overflowed atomic.Bool

	// removed is guarded by bus.mu.
	removed bool
}

// New creates a bus whose subscriptions buffer mailboxSize events.
func New[T any](mailboxSize int) *Bus[T] {
	if mailboxSize <= 0 {
		mailboxSize = DefaultMailboxSize
	}
	return &Bus[T]{mailboxSize: mailboxSize}
}

// Subscribe registers a new subscription. If done is non-nil, closing it
// marks the subscription dead and it is removed at the next Publish.
func (b *Bus[T]) Subscribe(done <-chan struct{}) *Subscription[T] {
	subscription := &Subscription[T]{
		bus:     b,
		channel: make(chan T, b.mailboxSize),
		done:    done,
	}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, subscription)
	b.mu.Unlock()
	return subscription
}

// Unsubscribe removes subscription and closes its channel. Calling it
// more than once, or after the bus already removed the subscription, is
// a no-op.
func (b *Bus[T]) Unsubscribe(subscription *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subscription.removed {
		return
	}
	for i, candidate := range b.subscribers {
		if candidate == subscription {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			break
		}
	}
	b.removeLocked(subscription)
}

// Publish enqueues event for every live subscription and returns how
// many received it.
func (b *Bus[T]) Publish(event T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	live := b.subscribers[:0]
	for _, subscription := range b.subscribers {
		if !trySend(subscription, event) {
			b.removeLocked(subscription)
			continue
		}
		live = append(live, subscription)
		delivered++
	}
	clear(b.subscribers[len(live):])
	b.subscribers = live
	return delivered
}

// Len reports the number of subscriptions that have not been removed.
// A subscription whose done channel closed still counts until the next
// Publish.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

func (b *Bus[T]) removeLocked(subscription *Subscription[T]) {
	subscription.removed = true
	close(subscription.channel)
}

// trySend reports false when the subscription must be dropped: its done
// channel is closed or its mailbox is full.
func trySend[T any](subscription *Subscription[T], event T) bool {
	select {
	case <-subscription.done:
		return false
	default:
	}

	select {
	case subscription.channel <- event:
		return true
	default:
		subscription.overflowed.Store(true)
		return false
	}
}

// C returns the delivery channel. It is closed when the subscription is
// removed for any reason.
func (s *Subscription[T]) C() <-chan T {
	return s.channel
}

// Overflowed reports whether the bus dropped this subscription because
// its mailbox was full.
func (s *Subscription[T]) Overflowed() bool {
	return s.overflowed.Load()
}

// Close unsubscribes. Idempotent.
func (s *Subscription[T]) Close() {
	s.bus.Unsubscribe(s)
}
