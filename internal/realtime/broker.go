package realtime

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/legalchicks/coopnet/internal/metrics"
)

// Topic addresses one collection-or-document stream, e.g. "public/marketPrices"
// or "users/<uid>/livestock".
type Topic string

// Public topics visible to every signed-in member.
const (
	TopicAlerts        Topic = "public/alerts"
	TopicAnnouncements Topic = "public/announcements"
	TopicMarketPrices  Topic = "public/marketPrices"
	TopicListings      Topic = "public/listings"
	TopicApplications  Topic = "admin/applications"
)

// UserTopic builds the per-user topic for one of a member's collections.
func UserTopic(uid, collection string) Topic {
	return Topic("users/" + uid + "/" + collection)
}

// PriceHistoryTopic addresses the audit trail of a single market price. It is
// deliberately independent from TopicMarketPrices: the two streams may
// transiently disagree and consumers must tolerate that.
func PriceHistoryTopic(priceID string) Topic {
	return Topic("public/marketPrices/" + priceID + "/history")
}

// Owner extracts the uid from a per-user topic, or "" for shared topics.
func (t Topic) Owner() string {
	parts := strings.Split(string(t), "/")
	if len(parts) >= 3 && parts[0] == "users" {
		return parts[1]
	}
	return ""
}

// AdminOnly reports whether the topic is restricted to admin subscribers.
func (t Topic) AdminOnly() bool {
	return strings.HasPrefix(string(t), "admin/")
}

// Class returns the topic's leading path segment ("public", "users", "admin"),
// used to group per-topic metrics without unbounded label cardinality.
func (t Topic) Class() string {
	if i := strings.IndexByte(string(t), '/'); i > 0 {
		return string(t)[:i]
	}
	return string(t)
}

// Snapshot is one delivered state of a topic. Seq increases monotonically per
// topic so a subscriber can detect (and ignore) anything stale.
type Snapshot struct {
	Topic Topic       `json:"topic"`
	Seq   uint64      `json:"seq"`
	Data  interface{} `json:"data"`
}

type topicState struct {
	seq    uint64
	latest Snapshot
	has    bool
	subs   map[*Subscription]struct{}
}

// Broker fans snapshots out to per-topic subscribers. Each subscription owns a
// capacity-one channel: when the subscriber lags, intermediate snapshots are
// coalesced away and only the latest survives, which preserves the
// monotonically-consistent view a snapshot listener promises.
type Broker struct {
	mu     sync.Mutex
	topics map[Topic]*topicState
	logger *zap.Logger
}

// NewBroker wires a new broker instance.
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		topics: make(map[Topic]*topicState),
		logger: logger,
	}
}

// Subscription is a live handle on one topic. Receive from C until it closes.
type Subscription struct {
	Topic Topic

	broker *Broker
	ch     chan Snapshot
	done   chan struct{} // closed exactly once by Close
	once   sync.Once
}

// C delivers snapshots, newest available first. It is closed on Close.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// Close cancels the subscription. Safe to call more than once; snapshots
// published after Close are silently dropped.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.mu.Lock()
		if st, ok := s.broker.topics[s.Topic]; ok {
			delete(st.subs, s)
			if len(st.subs) == 0 && !st.has {
				delete(s.broker.topics, s.Topic)
			}
		}
		close(s.done)
		close(s.ch)
		s.broker.mu.Unlock()
	})
}

// Subscribe opens a subscription scoped to ctx: the subscription is released
// when ctx is cancelled or Close is called, whichever comes first. If the
// topic already has a snapshot, it is delivered immediately.
func (b *Broker) Subscribe(ctx context.Context, topic Topic) *Subscription {
	sub := &Subscription{
		Topic:  topic,
		broker: b,
		ch:     make(chan Snapshot, 1),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	st := b.ensureTopicLocked(topic)
	st.subs[sub] = struct{}{}
	if st.has {
		sub.ch <- st.latest
	}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub
}

// Publish replaces the topic's snapshot and wakes every subscriber. Delivery
// never blocks the publisher: a slow subscriber's pending snapshot is replaced
// by the newer one.
func (b *Broker) Publish(topic Topic, data interface{}) {
	metrics.RecordSnapshotPublished(topic.Class())

	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.ensureTopicLocked(topic)
	st.seq++
	st.latest = Snapshot{Topic: topic, Seq: st.seq, Data: data}
	st.has = true

	for sub := range st.subs {
		select {
		case sub.ch <- st.latest:
		default:
			// Drop the stale pending snapshot, then queue the fresh one.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- st.latest
		}
	}
}

// SubscriberCount reports live subscriptions for a topic.
func (b *Broker) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if st, ok := b.topics[topic]; ok {
		return len(st.subs)
	}
	return 0
}

func (b *Broker) ensureTopicLocked(topic Topic) *topicState {
	st, ok := b.topics[topic]
	if !ok {
		st = &topicState{subs: make(map[*Subscription]struct{})}
		b.topics[topic] = st
	}
	return st
}
