package events

import (
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// TopicOrderHistoryUpdated carries the full order list after any history write.
	TopicOrderHistoryUpdated = "orderHistoryUpdated"
	// TopicAll receives every event after the topic's own handlers.
	TopicAll = "*"

	storagePrefix = "storage:"
)

// StorageTopic is the change topic of a persisted store key.
func StorageTopic(key string) string {
	return storagePrefix + key
}

// Event says "this namespace's state changed"; Payload is advisory, re-read the store.
type Event struct {
	Topic     string          `json:"topic"`
	Namespace string          `json:"namespace"`
	Key       string          `json:"key,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type Handler func(Event)

var publishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "beautybox",
		Name:      "bus_events_published_total",
		Help:      "Events dispatched on the notification bus.",
	},
	[]string{"topic"},
)

type subscription struct {
	id uint64
	h  Handler
}

// Bus is a synchronous in-process pub/sub. Handlers run on the publisher's
// goroutine in registration order; there is no queue.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers h for topic. The returned func removes it and is safe to call twice.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
}

// Publish runs the topic's handlers then the wildcard handlers and returns how many ran.
func (b *Bus) Publish(evt Event) int {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[evt.Topic])+len(b.subs[TopicAll]))
	for _, s := range b.subs[evt.Topic] {
		handlers = append(handlers, s.h)
	}
	if evt.Topic != TopicAll {
		for _, s := range b.subs[TopicAll] {
			handlers = append(handlers, s.h)
		}
	}
	b.mu.RUnlock()

	publishedTotal.WithLabelValues(evt.Topic).Inc()
	for _, h := range handlers {
		h(evt)
	}
	return len(handlers)
}

// PublishJSON marshals payload and publishes it; a marshal failure publishes without payload.
func (b *Bus) PublishJSON(topic, namespace, key string, payload any) int {
	evt := Event{Topic: topic, Namespace: namespace, Key: key}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			evt.Payload = raw
		}
	}
	return b.Publish(evt)
}
