package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsHandlersInRegistrationOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Subscribe("t", func(Event) { calls = append(calls, "first") })
	bus.Subscribe("t", func(Event) { calls = append(calls, "second") })
	bus.Subscribe(TopicAll, func(Event) { calls = append(calls, "wildcard") })
	bus.Subscribe("other", func(Event) { calls = append(calls, "other") })

	n := bus.Publish(Event{Topic: "t"})

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"first", "second", "wildcard"}, calls)
}

func TestPublishIsSynchronous(t *testing.T) {
	bus := NewBus()
	seen := false
	bus.Subscribe(StorageTopic("cartItems"), func(evt Event) {
		seen = true
		assert.Equal(t, "cartItems", evt.Key)
	})

	bus.Publish(Event{Topic: StorageTopic("cartItems"), Key: "cartItems"})
	assert.True(t, seen, "handler must have run before Publish returned")
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsub := bus.Subscribe("t", func(Event) { count++ })

	bus.Publish(Event{Topic: "t"})
	unsub()
	unsub()
	bus.Publish(Event{Topic: "t"})

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.Publish(Event{Topic: "t"}))
}

func TestUnsubscribeFromInsideHandler(t *testing.T) {
	bus := NewBus()
	count := 0
	var unsub func()
	unsub = bus.Subscribe("t", func(Event) {
		count++
		unsub()
	})

	bus.Publish(Event{Topic: "t"})
	bus.Publish(Event{Topic: "t"})
	assert.Equal(t, 1, count)
}

func TestPublishJSON(t *testing.T) {
	bus := NewBus()
	var got Event
	bus.Subscribe(TopicOrderHistoryUpdated, func(evt Event) { got = evt })

	bus.PublishJSON(TopicOrderHistoryUpdated, "ns1", "orderHistory", []string{"ORD-1"})

	assert.Equal(t, "ns1", got.Namespace)
	var ids []string
	require.NoError(t, json.Unmarshal(got.Payload, &ids))
	assert.Equal(t, []string{"ORD-1"}, ids)
}
