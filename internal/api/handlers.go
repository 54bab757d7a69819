package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/auth"
	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/core"
	"gwi.com/beauty-box/internal/events"
	"gwi.com/beauty-box/internal/store"
)

// Services are the collaborators the handlers call.
type Services struct {
	Catalog       *catalog.Catalog
	Carts         *core.CartService
	Orders        *core.OrderService
	Subscriptions *core.SubscriptionService
	Chat          *core.ChatService
	Hub           *events.Hub
}

type APIHandler struct {
	catalog *catalog.Catalog
	carts   *core.CartService
	orders  *core.OrderService
	subs    *core.SubscriptionService
	chat    *core.ChatService
	hub     *events.Hub
}

func NewAPIHandler(s Services) *APIHandler {
	return &APIHandler{
		catalog: s.Catalog,
		carts:   s.Carts,
		orders:  s.Orders,
		subs:    s.Subscriptions,
		chat:    s.Chat,
		hub:     s.Hub,
	}
}

type sessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
}

// CreateSessionHandler issues a token for a fresh, empty session.
func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	token, err := auth.GenerateSessionToken(id)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign session token")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, SessionID: id})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("category"))
	if raw == "" {
		writeJSON(w, http.StatusOK, withImages(h.catalog.All()))
		return
	}
	cat := store.ParseCategory(raw)
	if cat == store.CategoryOther {
		badRequest(w, fmt.Sprintf("unknown category %q", raw))
		return
	}
	writeJSON(w, http.StatusOK, withImages(h.catalog.ByCategory(cat)))
}

func (h *APIHandler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	p, ok := h.catalog.FindByID(id)
	if !ok {
		writeError(w, r, fmt.Errorf("product %s: %w", id, core.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, p.WithDisplayImage())
}

func withImages(products []store.Product) []store.Product {
	out := make([]store.Product, len(products))
	for i, p := range products {
		out[i] = p.WithDisplayImage()
	}
	return out
}

type cartResponse struct {
	Items []store.CartItem `json:"items"`
	Added bool             `json:"added"`
}

func (h *APIHandler) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartResponse{Items: h.carts.Cart(sessionID(r))})
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *APIHandler) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		badRequest(w, "productId is required")
		return
	}
	items, added, err := h.carts.AddProductByID(sessionID(r), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, cartResponse{Items: items, Added: added})
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *APIHandler) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		badRequest(w, "quantity is required")
		return
	}
	items, err := h.carts.SetQuantity(sessionID(r), chi.URLParam(r, "productID"), *req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items})
}

// RemoveFromCartHandler answers with the cart; removing an absent item is not an error.
func (h *APIHandler) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	items, _ := h.carts.RemoveFromCart(sessionID(r), chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, cartResponse{Items: items})
}

type wishlistResponse struct {
	Items []store.Product `json:"items"`
	Added bool            `json:"added"`
}

func (h *APIHandler) GetWishlistHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wishlistResponse{Items: h.carts.Wishlist(sessionID(r))})
}

type productRequest struct {
	ProductID string `json:"productId"`
}

func (h *APIHandler) AddToWishlistHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	items, added, err := h.carts.AddToWishlist(sessionID(r), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items, Added: added})
}

func (h *APIHandler) RemoveFromWishlistHandler(w http.ResponseWriter, r *http.Request) {
	items, _ := h.carts.RemoveFromWishlist(sessionID(r), chi.URLParam(r, "productID"))
	writeJSON(w, http.StatusOK, wishlistResponse{Items: items})
}

func (h *APIHandler) MoveToCartHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.MoveToCart(sessionID(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: items, Added: true})
}

// EventsHandler upgrades to a websocket that receives every store change of the session.
func (h *APIHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, sessionID(r))
}

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.Profile(sessionID(r)))
}

func (h *APIHandler) ResetProfileHandler(w http.ResponseWriter, r *http.Request) {
	h.chat.ResetProfile(sessionID(r))
	w.WriteHeader(http.StatusNoContent)
}
