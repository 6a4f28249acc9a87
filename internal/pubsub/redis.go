package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBroker backs the Broker contract with Redis Pub/Sub so the lobby
// scheduler and game controllers can fan out across more than one process.
// Each topic gets its own redis.PubSub with a goroutine draining its
// channel into the embedded Local broker, so local and remote publishes
// take one uniform delivery path.
type RedisBroker struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[string]*topicSub
	ctx  context.Context
	stop context.CancelFunc
}

type topicSub struct {
	ps      *redis.PubSub
	local   *Local
	cancel  context.CancelFunc
}

// NewRedisBroker connects to redisURL and returns a ready-to-use broker.
func NewRedisBroker(redisURL string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("pubsub: parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("pubsub: redis ping: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBroker{rdb: rdb, subs: make(map[string]*topicSub), ctx: ctx, stop: cancel}, nil
}

// Subscribe registers cb for topic, establishing the underlying Redis
// subscription on first use.
func (r *RedisBroker) Subscribe(topic string, cb Callback) Subscription {
	r.mu.Lock()
	ts, ok := r.subs[topic]
	if !ok {
		ts = r.newTopicSub(topic)
		r.subs[topic] = ts
	}
	r.mu.Unlock()

	return ts.local.Subscribe(topic, cb)
}

func (r *RedisBroker) newTopicSub(topic string) *topicSub {
	ctx, cancel := context.WithCancel(r.ctx)
	ps := r.rdb.Subscribe(ctx, topic)
	ts := &topicSub{ps: ps, local: NewLocal(), cancel: cancel}

	ch := ps.Channel()
	go func() {
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ts.local.Publish(topic, []byte(msg.Payload))
			case <-ctx.Done():
				return
			}
		}
	}()
	return ts
}

// Unsubscribe removes sub's callback; when a topic's last local subscriber
// is removed, the Redis subscription is torn down.
func (r *RedisBroker) Unsubscribe(sub Subscription) {
	r.mu.Lock()
	ts, ok := r.subs[sub.topic]
	r.mu.Unlock()
	if !ok {
		return
	}
	ts.local.Unsubscribe(sub)

	r.mu.Lock()
	defer r.mu.Unlock()
	if ts.local.SubscriberCount(sub.topic) == 0 {
		ts.cancel()
		if err := ts.ps.Close(); err != nil {
			log.Error().Err(err).Str("topic", sub.topic).Msg("closing redis subscription")
		}
		delete(r.subs, sub.topic)
	}
}

// Publish forwards payload to the Redis channel for topic; delivery to
// local subscribers happens via the subscription goroutine, not directly,
// so a node's own publishes and remote nodes' publishes take one uniform
// path.
func (r *RedisBroker) Publish(topic string, payload []byte) {
	if err := r.rdb.Publish(r.ctx, topic, payload).Err(); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("redis publish failed")
	}
}

// Close tears down every topic subscription and closes the Redis client.
func (r *RedisBroker) Close() error {
	r.stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	for topic, ts := range r.subs {
		_ = ts.ps.Close()
		delete(r.subs, topic)
	}
	return r.rdb.Close()
}
