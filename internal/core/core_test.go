package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/events"
	"gwi.com/beauty-box/internal/store"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

type services struct {
	state  *store.State
	bus    *events.Bus
	cat    *catalog.Catalog
	carts  *CartService
	orders *OrderService
	subs   *SubscriptionService
}

func newServices(t *testing.T) *services {
	t.Helper()
	bus := events.NewBus()
	st := store.NewState(store.NewMemoryStore(), bus)
	t.Cleanup(func() { st.Close() })

	cat := catalog.Default()
	carts := NewCartService(st, cat)
	orders := NewOrderService(st, carts)
	orders.now = func() time.Time { return testNow }
	subs := NewSubscriptionService(st, cat, orders)
	subs.now = func() time.Time { return testNow }
	return &services{state: st, bus: bus, cat: cat, carts: carts, orders: orders, subs: subs}
}

func (s *services) product(t *testing.T, id string) store.Product {
	t.Helper()
	p, ok := s.cat.FindByID(id)
	if !ok {
		t.Fatalf("catalog has no product %s", id)
	}
	return p
}

// stubGenerator is a TextGenerator with a fixed answer.
type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) GenerateReply(_ context.Context, _ string, _ *UserProfile) (string, error) {
	g.calls++
	return g.reply, g.err
}

var errGeneratorDown = errors.New("generator unavailable")
