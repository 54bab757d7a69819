package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/store"
)

// ChatService runs the assistant for a session: it keeps the session profile,
// asks the dispatcher for a reply and applies the cart changes the reply implies.
type ChatService struct {
	dispatcher *Dispatcher
	carts      *CartService
	profiles   *ProfileTracker
}

func NewChatService(d *Dispatcher, carts *CartService, profiles *ProfileTracker) *ChatService {
	return &ChatService{
		dispatcher: d,
		carts:      carts,
		profiles:   profiles,
	}
}

// ChatResult is a dispatcher reply plus the state it left behind.
type ChatResult struct {
	Reply
	Cart    []store.CartItem
	Profile *UserProfile
}

// Recommend answers one message from session ns. clientProfile, when given, is
// merged into what the session has already learned.
func (s *ChatService) Recommend(ctx context.Context, ns, message string, clientProfile *UserProfile) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, invalid("message is required")
	}

	lower := strings.ToLower(message)
	profile := s.profiles.Update(ns, func(p *UserProfile) {
		p.Merge(clientProfile)
		p.Observe(lower)
	})

	cart := s.carts.Cart(ns)
	reply := s.dispatcher.Dispatch(ctx, Query{Message: message, Cart: cart, Profile: profile})

	switch {
	case reply.AddToCart && len(reply.Products) > 0:
		cart = s.carts.AddProducts(ns, reply.Products)
	case reply.Action == ActionRemoveFromCart && len(reply.Products) > 0:
		cart, _ = s.carts.RemoveFromCart(ns, reply.Products[0].ID)
	}

	if reply.Category != "" {
		profile = s.profiles.Update(ns, func(p *UserProfile) { p.Visit(reply.Category) })
	}

	log.Debug().Str("namespace", ns).Str("intent", string(reply.Intent)).Int("products", len(reply.Products)).Msg("chat message dispatched")
	return &ChatResult{Reply: reply, Cart: cart, Profile: profile}, nil
}

// Profile returns what the session has told the assistant so far.
func (s *ChatService) Profile(ns string) *UserProfile {
	return s.profiles.Get(ns)
}

// ResetProfile forgets the session profile.
func (s *ChatService) ResetProfile(ns string) {
	s.profiles.Reset(ns)
}
