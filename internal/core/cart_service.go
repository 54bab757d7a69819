package core

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/store"
)

// CartService owns the cart and wishlist keys. A product id appears at most
// once in either list; quantity lives on the cart item.
type CartService struct {
	state   *store.State
	catalog *catalog.Catalog
}

func NewCartService(state *store.State, c *catalog.Catalog) *CartService {
	return &CartService{state: state, catalog: c}
}

// AddItem returns items with p appended, or items unchanged when p.ID is already there.
func AddItem(items []store.CartItem, p store.Product, qty int) ([]store.CartItem, bool) {
	for _, it := range items {
		if it.ID == p.ID {
			return items, false
		}
	}
	if qty < 1 {
		qty = 1
	}
	out := make([]store.CartItem, 0, len(items)+1)
	out = append(out, items...)
	return append(out, store.CartItem{Product: p, Quantity: qty}), true
}

// RemoveItem returns items without id, or items unchanged when id is absent.
func RemoveItem(items []store.CartItem, id string) ([]store.CartItem, bool) {
	for i, it := range items {
		if it.ID == id {
			out := make([]store.CartItem, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}
	return items, false
}

func (s *CartService) Cart(ns string) []store.CartItem {
	return store.Get(s.state, ns, store.KeyCartItems, []store.CartItem{})
}

func (s *CartService) AddToCart(ns string, p store.Product, qty int) ([]store.CartItem, bool) {
	items, added := AddItem(s.Cart(ns), p, qty)
	if added {
		persist(s.state, ns, store.KeyCartItems, items)
	}
	return items, added
}

// AddProducts merges several products in one write; present ids are skipped.
func (s *CartService) AddProducts(ns string, products []store.Product) []store.CartItem {
	items := s.Cart(ns)
	changed := false
	for _, p := range products {
		var added bool
		items, added = AddItem(items, p, 1)
		changed = changed || added
	}
	if changed {
		persist(s.state, ns, store.KeyCartItems, items)
	}
	return items
}

// AddProductByID adds a catalog product.
func (s *CartService) AddProductByID(ns, productID string, qty int) ([]store.CartItem, bool, error) {
	p, ok := s.catalog.FindByID(productID)
	if !ok {
		return nil, false, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	items, added := s.AddToCart(ns, p, qty)
	return items, added, nil
}

func (s *CartService) RemoveFromCart(ns, productID string) ([]store.CartItem, bool) {
	items, removed := RemoveItem(s.Cart(ns), productID)
	if removed {
		persist(s.state, ns, store.KeyCartItems, items)
	}
	return items, removed
}

// SetQuantity updates one line; zero removes it.
func (s *CartService) SetQuantity(ns, productID string, qty int) ([]store.CartItem, error) {
	if qty < 0 {
		return nil, invalid("quantity cannot be negative")
	}
	items := s.Cart(ns)
	idx := -1
	for i, it := range items {
		if it.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("cart item %s: %w", productID, ErrNotFound)
	}
	if qty == 0 {
		items, _ = RemoveItem(items, productID)
	} else {
		items[idx].Quantity = qty
	}
	persist(s.state, ns, store.KeyCartItems, items)
	return items, nil
}

func (s *CartService) ClearCart(ns string) {
	persist(s.state, ns, store.KeyCartItems, []store.CartItem{})
}

func (s *CartService) Wishlist(ns string) []store.Product {
	return store.Get(s.state, ns, store.KeyWishlistItems, []store.Product{})
}

func (s *CartService) AddToWishlist(ns, productID string) ([]store.Product, bool, error) {
	p, ok := s.catalog.FindByID(productID)
	if !ok {
		return nil, false, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	list := s.Wishlist(ns)
	for _, w := range list {
		if w.ID == p.ID {
			return list, false, nil
		}
	}
	list = append(list, p)
	persist(s.state, ns, store.KeyWishlistItems, list)
	return list, true, nil
}

func (s *CartService) RemoveFromWishlist(ns, productID string) ([]store.Product, bool) {
	list := s.Wishlist(ns)
	for i, w := range list {
		if w.ID == productID {
			list = append(list[:i:i], list[i+1:]...)
			persist(s.state, ns, store.KeyWishlistItems, list)
			return list, true
		}
	}
	return list, false
}

// MoveToCart takes a wishlist entry out of the wishlist and into the cart.
func (s *CartService) MoveToCart(ns, productID string) ([]store.CartItem, error) {
	var product *store.Product
	for _, w := range s.Wishlist(ns) {
		if w.ID == productID {
			product = &w
			break
		}
	}
	if product == nil {
		return nil, fmt.Errorf("wishlist item %s: %w", productID, ErrNotFound)
	}
	items, _ := s.AddToCart(ns, *product, 1)
	s.RemoveFromWishlist(ns, productID)
	return items, nil
}

// persist writes best-effort: a failed write is logged and the caller carries
// on with the in-memory value.
func persist[T any](state *store.State, ns, key string, v T) {
	if err := store.Put(state, ns, key, v); err != nil {
		log.Error().Err(err).Str("namespace", ns).Str("key", key).Msg("state write failed")
	}
}
