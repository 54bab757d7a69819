package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/store"
)

func newTestDispatcher(gen TextGenerator) *Dispatcher {
	d := NewDispatcher(catalog.Default(), gen, 0)
	d.pick = func(int) int { return 0 }
	return d
}

func productIDs(products []store.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func TestRuleOrder(t *testing.T) {
	d := newTestDispatcher(nil)
	assert.Equal(t, []Intent{
		IntentGreeting,
		IntentAddToCart,
		IntentRemoveFromCart,
		IntentAlternatives,
		IntentCheckout,
		IntentOrderHistory,
		IntentManageSubscription,
		IntentBrowse,
		IntentFallback,
	}, d.Rules())
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		text string
		want store.Category
	}{
		{"I want a laptop dress", store.CategoryWomen},
		{"show me women dresses and laptop bags", store.CategoryWomen},
		{"Women's summer collection", store.CategoryWomen},
		{"a macbook for my son", store.CategoryLaptops},
		{"gifts for men", store.CategoryMen},
		{"something for the children", store.CategoryKids},
		{"serum for dry skin", store.CategorySkincare},
		{"I need to manage my account", ""},
		{"what's new?", ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, InferCategory(tt.text))
		})
	}
}

func TestDispatchCategoryPrecedence(t *testing.T) {
	d := newTestDispatcher(nil)

	reply := d.Dispatch(context.Background(), Query{Message: "I want a laptop dress"})
	assert.Equal(t, IntentBrowse, reply.Intent)
	assert.Equal(t, store.CategoryWomen, reply.Category)
	assert.Equal(t, productIDs(catalog.Default().ByCategory(store.CategoryWomen)), productIDs(reply.Products))
}

func TestDispatchGreeting(t *testing.T) {
	d := newTestDispatcher(nil)

	for _, msg := range []string{"Hello!", "hi there", "Hey, how are you?"} {
		reply := d.Dispatch(context.Background(), Query{Message: msg})
		assert.Equal(t, IntentGreeting, reply.Intent, msg)
		assert.Empty(t, reply.Products, msg)
		assert.NotEmpty(t, reply.Text, msg)
	}

	reply := d.Dispatch(context.Background(), Query{Message: "clothes for children"})
	assert.Equal(t, IntentBrowse, reply.Intent, "hi inside a word is not a greeting")
	assert.Equal(t, store.CategoryKids, reply.Category)
}

func TestDispatchAddToCart(t *testing.T) {
	d := newTestDispatcher(nil)

	tests := []struct {
		name      string
		msg       string
		wantIDs   []string
		addToCart bool
		category  store.Category
	}{
		{
			name:      "exact name",
			msg:       "Please add the Hydrating Hyaluronic Serum to my cart",
			wantIDs:   []string{"sk-1"},
			addToCart: true,
			category:  store.CategorySkincare,
		},
		{
			name:      "partial name",
			msg:       "add the retinol cream to my basket",
			wantIDs:   []string{"sk-6"},
			addToCart: true,
			category:  store.CategorySkincare,
		},
		{
			name:     "category suggestion",
			msg:      "add something for kids to my box",
			wantIDs:  []string{"k-1", "k-2", "k-3"},
			category: store.CategoryKids,
		},
		{
			name:    "clarify",
			msg:     "add it to my cart",
			wantIDs: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := d.Dispatch(context.Background(), Query{Message: tt.msg})
			assert.Equal(t, IntentAddToCart, reply.Intent)
			assert.Equal(t, tt.wantIDs, productIDs(reply.Products))
			assert.Equal(t, tt.addToCart, reply.AddToCart)
			assert.Equal(t, tt.category, reply.Category)
			if tt.addToCart {
				assert.Equal(t, ActionAddToCart, reply.Action)
			} else {
				assert.Empty(t, reply.Action)
			}
		})
	}
}

func TestDispatchAddTiedPartialMatches(t *testing.T) {
	d := newTestDispatcher(nil)

	reply := d.Dispatch(context.Background(), Query{Message: "add serum to my cart"})
	assert.True(t, reply.AddToCart)
	assert.Equal(t, []string{"sk-1", "sk-3"}, productIDs(reply.Products))
	assert.Equal(t, "I think you mean Hydrating Hyaluronic Serum and Vitamin C Brightening Serum. I've added them to your cart.", reply.Text)

	reply = d.Dispatch(context.Background(), Query{Message: "add the retinol cream to my basket"})
	assert.Equal(t, "I think you mean Retinol Night Cream. I've added it to your cart.", reply.Text)
}

func TestDispatchRemoveFromCart(t *testing.T) {
	d := newTestDispatcher(nil)
	serum, _ := catalog.Default().FindByID("sk-1")
	cart := []store.CartItem{{Product: serum, Quantity: 1}}

	reply := d.Dispatch(context.Background(), Query{Message: "remove the hydrating hyaluronic serum from my cart", Cart: cart})
	assert.Equal(t, ActionRemoveFromCart, reply.Action)
	assert.Equal(t, []string{"sk-1"}, productIDs(reply.Products))

	reply = d.Dispatch(context.Background(), Query{Message: "remove the laptop from my cart", Cart: cart})
	assert.Equal(t, IntentRemoveFromCart, reply.Intent)
	assert.Empty(t, reply.Action)
	assert.Empty(t, reply.Products)
}

func TestDispatchAlternativesUsesLastCategory(t *testing.T) {
	d := newTestDispatcher(nil)
	serum, _ := catalog.Default().FindByID("sk-1")
	profile := &UserProfile{Categories: []store.Category{store.CategorySkincare}}

	reply := d.Dispatch(context.Background(), Query{
		Message: "show me something similar",
		Cart:    []store.CartItem{{Product: serum, Quantity: 1}},
		Profile: profile,
	})
	assert.Equal(t, IntentAlternatives, reply.Intent)
	assert.Equal(t, store.CategorySkincare, reply.Category)
	assert.Equal(t, []string{"sk-2", "sk-3", "sk-4"}, productIDs(reply.Products))
}

func TestDispatchNavigationActions(t *testing.T) {
	d := newTestDispatcher(nil)

	tests := []struct {
		msg    string
		action Action
	}{
		{"I'm ready to buy", ActionCheckout},
		{"take me to checkout", ActionCheckout},
		{"show my order history", ActionOrderHistory},
		{"I want to change my subscription", ActionManageSubscription},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			reply := d.Dispatch(context.Background(), Query{Message: tt.msg})
			assert.Equal(t, tt.action, reply.Action)
			assert.Empty(t, reply.Products)
		})
	}
}

func TestDispatchFallback(t *testing.T) {
	canned := CannedFallbacks()

	t.Run("no generator", func(t *testing.T) {
		reply := newTestDispatcher(nil).Dispatch(context.Background(), Query{Message: "what is the meaning of life"})
		assert.Equal(t, IntentFallback, reply.Intent)
		assert.Contains(t, canned, reply.Text)
	})

	t.Run("generator fails", func(t *testing.T) {
		gen := &stubGenerator{err: errGeneratorDown}
		reply := newTestDispatcher(gen).Dispatch(context.Background(), Query{Message: "what is the meaning of life"})
		require.Equal(t, 1, gen.calls)
		assert.Contains(t, canned, reply.Text)
		assert.NotContains(t, reply.Text, errGeneratorDown.Error())
	})

	t.Run("generator answers blank", func(t *testing.T) {
		gen := &stubGenerator{reply: "   "}
		reply := newTestDispatcher(gen).Dispatch(context.Background(), Query{Message: "tell me a joke"})
		assert.Contains(t, canned, reply.Text)
	})

	t.Run("generator answers", func(t *testing.T) {
		gen := &stubGenerator{reply: "Try a gentle exfoliant twice a week."}
		reply := newTestDispatcher(gen).Dispatch(context.Background(), Query{Message: "how often should I exfoliate"})
		assert.Equal(t, "Try a gentle exfoliant twice a week.", reply.Text)
	})

	t.Run("random canned line", func(t *testing.T) {
		d := newTestDispatcher(nil)
		d.pick = func(n int) int { return n - 1 }
		reply := d.Dispatch(context.Background(), Query{Message: "what is the meaning of life"})
		assert.Equal(t, canned[len(canned)-1], reply.Text)
	})
}

func TestDispatchRepliesUsePlaceholderImage(t *testing.T) {
	reply := newTestDispatcher(nil).Dispatch(context.Background(), Query{Message: "add the mineral sunscreen spf 50 to my cart"})
	require.Equal(t, []string{"sk-5"}, productIDs(reply.Products))
	assert.Equal(t, store.PlaceholderImage, reply.Products[0].Image)
}
