package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/core"
	"gwi.com/beauty-box/internal/store"
)

const recommendationApology = "I'm sorry, I'm having trouble right now. Please try again in a moment."

type recommendationRequest struct {
	Message     string            `json:"message"`
	UserProfile *core.UserProfile `json:"userProfile,omitempty"`
}

type recommendationResponse struct {
	Response            string            `json:"response"`
	RecommendedProducts []store.Product   `json:"recommendedProducts"`
	Category            string            `json:"category,omitempty"`
	AddToCart           bool              `json:"addToCart"`
	Action              string            `json:"action,omitempty"`
	Intent              string            `json:"intent,omitempty"`
	Cart                []store.CartItem  `json:"cart,omitempty"`
	UserProfile         *core.UserProfile `json:"userProfile,omitempty"`
}

type recommendationError struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// RecommendationsHandler runs the shopping assistant. Any failure past request
// validation answers 500 with an apology the client can show as-is.
func (h *APIHandler) RecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("recommendation handler panicked")
			writeJSON(w, http.StatusInternalServerError, recommendationError{
				Response: recommendationApology,
				Error:    fmt.Sprint(rec),
			})
		}
	}()

	var req recommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.chat.Recommend(r.Context(), sessionID(r), req.Message, req.UserProfile)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, recommendationError{Response: "Please type a message first.", Error: err.Error()})
			return
		}
		log.Error().Err(err).Msg("recommendation failed")
		writeJSON(w, http.StatusInternalServerError, recommendationError{Response: recommendationApology, Error: err.Error()})
		return
	}

	resp := recommendationResponse{
		Response:    res.Text,
		Category:    string(res.Category),
		AddToCart:   res.AddToCart,
		Action:      string(res.Action),
		Intent:      string(res.Intent),
		Cart:        res.Cart,
		UserProfile: res.Profile,
	}
	if len(res.Products) > 0 {
		resp.RecommendedProducts = res.Products
	}
	writeJSON(w, http.StatusOK, resp)
}
