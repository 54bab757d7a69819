package core

import (
	"fmt"
	"math"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/events"
	"gwi.com/beauty-box/internal/store"
)

// OrderService owns the order history. Every append goes through Append, which
// skips an order whose id is already in the history.
type OrderService struct {
	state *store.State
	carts *CartService
	now   func() time.Time
}

func NewOrderService(state *store.State, carts *CartService) *OrderService {
	return &OrderService{state: state, carts: carts, now: time.Now}
}

// DedupReport describes what History cleaned up on load.
type DedupReport struct {
	Removed int    `json:"removed"`
	Debug   string `json:"debug,omitempty"`
}

// DedupOrders keeps the first occurrence of each id.
func DedupOrders(orders []store.Order) ([]store.Order, int) {
	seen := make(map[string]struct{}, len(orders))
	out := make([]store.Order, 0, len(orders))
	for _, o := range orders {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	return out, len(orders) - len(out)
}

// History loads the order list, newest first, dropping duplicate ids and
// persisting the cleaned list when any were found.
func (s *OrderService) History(ns string) ([]store.Order, DedupReport) {
	orders := store.Get(s.state, ns, store.KeyOrderHistory, []store.Order{})
	cleaned, removed := DedupOrders(orders)
	report := DedupReport{Removed: removed}
	if removed > 0 {
		report.Debug = fmt.Sprintf("removed %d duplicate order(s), %d remain", removed, len(cleaned))
		log.Debug().Str("namespace", ns).Int("removed", removed).Msg("deduplicated order history")
		s.save(ns, cleaned)
	}
	return cleaned, report
}

// Append puts o at the front of the history unless its id is already present.
func (s *OrderService) Append(ns string, o store.Order) ([]store.Order, bool) {
	orders, _ := s.History(ns)
	for _, existing := range orders {
		if existing.ID == o.ID {
			log.Warn().Str("namespace", ns).Str("order_id", o.ID).Msg("order id already in history, not appending")
			return orders, false
		}
	}
	orders = append([]store.Order{o}, orders...)
	s.save(ns, orders)
	ordersCreatedTotal.WithLabelValues(orderKind(o)).Inc()
	return orders, true
}

func (s *OrderService) save(ns string, orders []store.Order) {
	persist(s.state, ns, store.KeyOrderHistory, orders)
	s.state.Bus().PublishJSON(events.TopicOrderHistoryUpdated, ns, store.KeyOrderHistory, orders)
}

func orderKind(o store.Order) string {
	switch {
	case o.IsFileUpload:
		return "upload"
	case o.IsCustom:
		return "custom"
	case o.IsRemoval:
		return "removal"
	case o.IsAddition:
		return "addition"
	default:
		return "checkout"
	}
}

func validateShipping(d store.ShippingDetails) []string {
	var problems []string
	required := []struct{ field, value string }{
		{"fullName", d.FullName},
		{"email", d.Email},
		{"address", d.Address},
		{"city", d.City},
		{"zipCode", d.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.field+" is required")
		}
	}
	if strings.TrimSpace(d.Email) != "" {
		if _, err := mail.ParseAddress(d.Email); err != nil {
			problems = append(problems, "email is not a valid address")
		}
	}
	return problems
}

func formatAddress(d store.ShippingDetails) string {
	return fmt.Sprintf("%s, %s, %s %s", strings.TrimSpace(d.FullName), strings.TrimSpace(d.Address), strings.TrimSpace(d.City), strings.TrimSpace(d.ZipCode))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// NewOrder builds a Processing order from cart lines, copying product fields by value.
func NewOrder(id string, at time.Time, items []store.CartItem, shippingAddress string) store.Order {
	o := store.Order{
		ID:                id,
		Date:              at.UTC(),
		Status:            store.OrderStatusProcessing,
		ShippingAddress:   shippingAddress,
		CategoryBreakdown: make(map[store.Category]int),
	}
	var total float64
	for _, it := range items {
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		o.Items = append(o.Items, store.OrderItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Image:    it.DisplayImage(),
			Quantity: qty,
			Category: it.Category,
		})
		total += it.Price * float64(qty)
		if _, seen := o.CategoryBreakdown[it.Category]; !seen {
			o.Categories = append(o.Categories, it.Category)
		}
		o.CategoryBreakdown[it.Category] += qty
	}
	o.Total = roundCents(total)
	return o
}

// Checkout turns the cart into an order. Validation failures leave every key untouched.
func (s *OrderService) Checkout(ns string, details store.ShippingDetails) (*store.Order, error) {
	cart := s.carts.Cart(ns)

	var problems []string
	if len(cart) == 0 {
		problems = append(problems, "your cart is empty")
	}
	problems = append(problems, validateShipping(details)...)
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	order := NewOrder(newID(orderIDPrefix), s.now(), cart, formatAddress(details))
	if _, ok := s.Append(ns, order); !ok {
		return nil, fmt.Errorf("order %s: %w", order.ID, ErrConflict)
	}

	s.carts.ClearCart(ns)
	persist(s.state, ns, store.KeyLastOrderDetails, store.LastOrderDetails{
		OrderID:  order.ID,
		Shipping: details,
		Total:    order.Total,
		Date:     order.Date,
	})

	log.Info().Str("namespace", ns).Str("order_id", order.ID).Float64("total", order.Total).Msg("checkout completed")
	return &order, nil
}

func (s *OrderService) LastOrderDetails(ns string) (store.LastOrderDetails, bool) {
	d := store.Get(s.state, ns, store.KeyLastOrderDetails, store.LastOrderDetails{})
	return d, d.OrderID != ""
}

// UpdateStatus moves an order to a new status; Shipped gets a tracking number if it has none.
func (s *OrderService) UpdateStatus(ns, orderID, status string) (*store.Order, error) {
	st, ok := store.ParseOrderStatus(status)
	if !ok {
		return nil, invalid(fmt.Sprintf("unknown order status %q", status))
	}
	orders, _ := s.History(ns)
	for i := range orders {
		if orders[i].ID != orderID {
			continue
		}
		orders[i].Status = st
		if st == store.OrderStatusShipped && orders[i].TrackingNumber == "" {
			orders[i].TrackingNumber = newTrackingNumber()
		}
		s.save(ns, orders)
		updated := orders[i]
		return &updated, nil
	}
	return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
}

func (s *OrderService) Delete(ns, orderID string) error {
	orders, _ := s.History(ns)
	for i, o := range orders {
		if o.ID == orderID {
			orders = append(orders[:i:i], orders[i+1:]...)
			s.save(ns, orders)
			return nil
		}
	}
	return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
}

// Chronological returns a copy of orders, oldest first. History is stored
// newest first, so equal timestamps keep their insertion order.
func Chronological(orders []store.Order) []store.Order {
	out := make([]store.Order, len(orders))
	for i, o := range orders {
		out[len(orders)-1-i] = o
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
