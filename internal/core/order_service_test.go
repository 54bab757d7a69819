package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/beauty-box/internal/events"
	"gwi.com/beauty-box/internal/store"
)

var janeDoe = store.ShippingDetails{
	FullName: "Jane Doe",
	Email:    "jane@x.com",
	Address:  "1 Main St",
	City:     "Town",
	ZipCode:  "00000",
}

func TestCheckoutEmptyCartIsBlocked(t *testing.T) {
	s := newServices(t)
	ns := "session-1"

	published := 0
	s.bus.Subscribe(events.TopicOrderHistoryUpdated, func(events.Event) { published++ })

	order, err := s.orders.Checkout(ns, janeDoe)
	require.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, order)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"your cart is empty"}, verr.Problems)

	history, _ := s.orders.History(ns)
	assert.Empty(t, history)
	assert.Zero(t, published)
	_, ok := s.orders.LastOrderDetails(ns)
	assert.False(t, ok)
}

func TestCheckoutMissingFields(t *testing.T) {
	s := newServices(t)
	ns := "session-1"
	s.carts.AddToCart(ns, s.product(t, "sk-1"), 1)

	_, err := s.orders.Checkout(ns, store.ShippingDetails{FullName: "Jane Doe", Email: "not-an-email"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{
		"address is required",
		"city is required",
		"zipCode is required",
		"email is not a valid address",
	}, verr.Problems)
	assert.Len(t, s.carts.Cart(ns), 1, "cart untouched")
}

func TestCheckoutAppendsOneProcessingOrder(t *testing.T) {
	s := newServices(t)
	ns := "session-1"
	s.carts.AddToCart(ns, s.product(t, "sk-1"), 2)
	s.carts.AddToCart(ns, s.product(t, "w-1"), 1)

	var payloads []json.RawMessage
	s.bus.Subscribe(events.TopicOrderHistoryUpdated, func(evt events.Event) { payloads = append(payloads, evt.Payload) })

	order, err := s.orders.Checkout(ns, janeDoe)
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, order.ID)
	assert.Equal(t, store.OrderStatusProcessing, order.Status)
	assert.Equal(t, testNow, order.Date)
	assert.Equal(t, 34.0*2+89.0, order.Total)
	assert.Equal(t, []store.Category{store.CategorySkincare, store.CategoryWomen}, order.Categories)
	assert.Equal(t, map[store.Category]int{store.CategorySkincare: 2, store.CategoryWomen: 1}, order.CategoryBreakdown)
	assert.Equal(t, "Jane Doe, 1 Main St, Town 00000", order.ShippingAddress)

	history, _ := s.orders.History(ns)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
	assert.Empty(t, s.carts.Cart(ns))
	require.Len(t, payloads, 1)

	last, ok := s.orders.LastOrderDetails(ns)
	require.True(t, ok)
	assert.Equal(t, order.ID, last.OrderID)
	assert.Equal(t, janeDoe, last.Shipping)
}

func TestNewOrderCopiesItemsByValue(t *testing.T) {
	cart := []store.CartItem{{Product: store.Product{ID: "x", Name: "X", Price: 10, Category: store.CategoryOther}, Quantity: 1}}
	o := NewOrder("ORD-1", testNow, cart, "somewhere")
	cart[0].Name = "changed"
	assert.Equal(t, "X", o.Items[0].Name)
	assert.Equal(t, store.PlaceholderImage, o.Items[0].Image)
}

func TestAppendSkipsPresentID(t *testing.T) {
	s := newServices(t)
	ns := "session-1"
	o := NewOrder("ORD-AAAAAAAA", testNow, nil, "x")

	_, ok := s.orders.Append(ns, o)
	require.True(t, ok)
	orders, ok := s.orders.Append(ns, o)
	assert.False(t, ok)
	assert.Len(t, orders, 1)
}

func TestHistoryDedupsOnLoad(t *testing.T) {
	s := newServices(t)
	ns := "session-1"
	a := NewOrder("ORD-A", testNow, nil, "x")
	b := NewOrder("ORD-B", testNow.Add(-time.Hour), nil, "x")
	require.NoError(t, store.Put(s.state, ns, store.KeyOrderHistory, []store.Order{a, b, a, a}))

	orders, report := s.orders.History(ns)
	assert.Len(t, orders, 2)
	assert.Equal(t, 2, report.Removed)
	assert.Contains(t, report.Debug, "removed 2 duplicate")

	stored := store.Get(s.state, ns, store.KeyOrderHistory, []store.Order(nil))
	assert.Len(t, stored, 2)

	_, report = s.orders.History(ns)
	assert.Zero(t, report.Removed)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	s := newServices(t)
	ns := "session-1"
	s.orders.Append(ns, NewOrder("ORD-A", testNow, nil, "x"))

	_, err := s.orders.UpdateStatus(ns, "ORD-A", "teleported")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = s.orders.UpdateStatus(ns, "ORD-Z", "shipped")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.orders.UpdateStatus(ns, "ORD-A", "shipped")
	require.NoError(t, err)
	assert.Equal(t, store.OrderStatusShipped, updated.Status)
	assert.Regexp(t, `^TRK[0-9A-F]{12}$`, updated.TrackingNumber)

	again, err := s.orders.UpdateStatus(ns, "ORD-A", "Shipped")
	require.NoError(t, err)
	assert.Equal(t, updated.TrackingNumber, again.TrackingNumber)

	require.NoError(t, s.orders.Delete(ns, "ORD-A"))
	assert.ErrorIs(t, s.orders.Delete(ns, "ORD-A"), ErrNotFound)
	history, _ := s.orders.History(ns)
	assert.Empty(t, history)
}

func TestChronological(t *testing.T) {
	newest := NewOrder("c", testNow, nil, "")
	same := NewOrder("b", testNow.Add(-time.Hour), nil, "")
	sameLater := NewOrder("b2", testNow.Add(-time.Hour), nil, "")
	oldest := NewOrder("a", testNow.Add(-2*time.Hour), nil, "")

	// stored newest first; b2 was appended after b
	got := Chronological([]store.Order{newest, sameLater, same, oldest})
	ids := make([]string, len(got))
	for i, o := range got {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"a", "b", "b2", "c"}, ids)
}
