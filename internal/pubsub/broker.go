// Package pubsub implements the topic-to-subscribers fabric that decouples
// transport from game logic: the session publishes updates by topic, the
// player endpoint subscribes to receive them. The registry is lock-protected
// but dispatch happens outside the lock, with each callback isolated from
// the others' panics.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Callback receives a published payload. A callback that panics is
// recovered and logged; it never blocks other callbacks' delivery.
type Callback func(payload []byte)

// Subscription identifies a single subscribe call so it can be undone.
type Subscription struct {
	id    uint64
	topic string
}

// Broker is the pub/sub fabric contract. Local is the default in-process
// implementation; RedisBroker backs the same contract across processes.
type Broker interface {
	Subscribe(topic string, cb Callback) Subscription
	Unsubscribe(sub Subscription)
	Publish(topic string, payload []byte)
	Close() error
}

type entry struct {
	id uint64
	cb Callback
}

// Local is an in-process Broker: a concurrent map of topic -> subscriber
// set. Callbacks are invoked outside the registry lock so a slow or
// reentrant subscriber cannot deadlock publish or other subscribers.
type Local struct {
	mu      sync.RWMutex
	topics  map[string][]entry
	nextID  uint64
}

// NewLocal builds an empty in-process broker.
func NewLocal() *Local {
	return &Local{topics: make(map[string][]entry)}
}

// Subscribe registers cb to receive every payload published to topic.
func (l *Local) Subscribe(topic string, cb Callback) Subscription {
	id := atomic.AddUint64(&l.nextID, 1)
	l.mu.Lock()
	l.topics[topic] = append(l.topics[topic], entry{id: id, cb: cb})
	l.mu.Unlock()
	return Subscription{id: id, topic: topic}
}

// Unsubscribe removes the subscription. A no-op if already removed.
func (l *Local) Unsubscribe(sub Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.topics[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			l.topics[sub.topic] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(l.topics[sub.topic]) == 0 {
		delete(l.topics, sub.topic)
	}
}

// Publish invokes every current subscriber of topic with payload. Delivery
// order for concurrent publishes on the same topic is unspecified; for a
// single call, every subscriber present at call time is invoked.
func (l *Local) Publish(topic string, payload []byte) {
	l.mu.RLock()
	entries := make([]entry, len(l.topics[topic]))
	copy(entries, l.topics[topic])
	l.mu.RUnlock()

	for _, e := range entries {
		dispatch(topic, e.cb, payload)
	}
}

func dispatch(topic string, cb Callback, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("topic", topic).Interface("panic", r).Msg("pubsub callback panicked")
		}
	}()
	cb(payload)
}

// Close is a no-op for Local; it exists to satisfy Broker.
func (l *Local) Close() error {
	return nil
}

// SubscriberCount reports how many callbacks are registered on topic, for
// tests and diagnostics.
func (l *Local) SubscriberCount(topic string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.topics[topic])
}
