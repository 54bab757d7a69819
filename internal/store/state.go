package store

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/events"
)

// Persisted keys. Values are whole JSON documents; there is no schema version.
const (
	KeyCartItems         = "cartItems"
	KeyWishlistItems     = "wishlistItems"
	KeyOrderHistory      = "orderHistory"
	KeySubscription      = "subscription"
	KeyBoxPrice          = "boxPrice"
	KeyRetailPrice       = "retailPrice"
	KeyLastOrderDetails  = "lastOrderDetails"
	KeyDeliveryFrequency = "deliveryFrequency"
)

// KV is a namespaced text store; a namespace is one session's private key space.
type KV interface {
	GetRaw(namespace, key string) (string, bool, error)
	PutRaw(namespace, key, value string) error
	DeleteRaw(namespace, key string) error
	Keys(namespace string) ([]string, error)
	Close() error
}

// State is the one seam every reader and writer of persisted state goes through.
// Writes replace the whole value and announce the key on the bus; nothing is
// locked across the read-modify-write, so concurrent writers race and the last one wins.
type State struct {
	kv  KV
	bus *events.Bus
}

func NewState(kv KV, bus *events.Bus) *State {
	if bus == nil {
		bus = events.NewBus()
	}
	return &State{kv: kv, bus: bus}
}

func (s *State) Bus() *events.Bus { return s.bus }

// Subscribe registers h for changes of key in any namespace.
func (s *State) Subscribe(key string, h events.Handler) func() {
	return s.bus.Subscribe(events.StorageTopic(key), h)
}

// Get decodes key into a T. A missing key, a backend error, or malformed JSON
// all yield def; the last two are logged.
func Get[T any](s *State, namespace, key string, def T) T {
	raw, ok, err := s.kv.GetRaw(namespace, key)
	if err != nil {
		log.Error().Err(err).Str("namespace", namespace).Str("key", key).Msg("state read failed, using default")
		return def
	}
	if !ok || raw == "" {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Warn().Err(err).Str("namespace", namespace).Str("key", key).Msg("malformed persisted value, using default")
		return def
	}
	return v
}

// Put overwrites key with v and publishes the storage-change event. Writing the
// value already stored is a no-op and publishes nothing.
func Put[T any](s *State, namespace, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if current, ok, err := s.kv.GetRaw(namespace, key); err == nil && ok && current == string(raw) {
		return nil
	}
	if err := s.kv.PutRaw(namespace, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.bus.Publish(events.Event{
		Topic:     events.StorageTopic(key),
		Namespace: namespace,
		Key:       key,
		Payload:   raw,
	})
	return nil
}

// Delete removes key and publishes a change with no payload.
func (s *State) Delete(namespace, key string) error {
	if err := s.kv.DeleteRaw(namespace, key); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Topic: events.StorageTopic(key), Namespace: namespace, Key: key})
	return nil
}

func (s *State) Keys(namespace string) ([]string, error) {
	return s.kv.Keys(namespace)
}

// Raw returns the stored text of key, for diagnostics.
func (s *State) Raw(namespace, key string) (string, bool, error) {
	return s.kv.GetRaw(namespace, key)
}

// PutRaw writes text verbatim without validation, for diagnostics and tests.
func (s *State) PutRaw(namespace, key, value string) error {
	return s.kv.PutRaw(namespace, key, value)
}

func (s *State) Close() error {
	return s.kv.Close()
}
