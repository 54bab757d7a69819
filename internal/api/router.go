package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(middleware.StripSlashes)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", apiHandler.HealthHandler)
		r.Post("/session", apiHandler.CreateSessionHandler)
		r.Get("/products", apiHandler.ListProductsHandler)
		r.Get("/products/{productID}", apiHandler.GetProductHandler)

		// Session routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.SessionMiddleware)

			r.Get("/events", apiHandler.EventsHandler)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", apiHandler.GetCartHandler)
				r.Post("/", apiHandler.AddToCartHandler)
				r.Patch("/{productID}", apiHandler.UpdateCartItemHandler)
				r.Delete("/{productID}", apiHandler.RemoveFromCartHandler)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", apiHandler.GetWishlistHandler)
				r.Post("/", apiHandler.AddToWishlistHandler)
				r.Delete("/{productID}", apiHandler.RemoveFromWishlistHandler)
				r.Post("/{productID}/move-to-cart", apiHandler.MoveToCartHandler)
			})

			r.Post("/checkout", apiHandler.CheckoutHandler)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", apiHandler.ListOrdersHandler)
				r.Get("/export", apiHandler.ExportOrdersHandler)
				r.Patch("/{orderID}/status", apiHandler.UpdateOrderStatusHandler)
				r.Delete("/{orderID}", apiHandler.DeleteOrderHandler)
			})

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", apiHandler.GetSubscriptionHandler)
				r.Patch("/", apiHandler.UpdateSubscriptionHandler)
				r.Post("/products", apiHandler.AddSubscriptionProductHandler)
				r.Delete("/products/{productID}", apiHandler.RemoveSubscriptionProductHandler)
				r.Post("/custom-products", apiHandler.AddCustomProductHandler)
				r.Post("/upload", apiHandler.UploadProductsHandler)
			})

			r.Get("/prices", apiHandler.PricesHandler)
			r.Post("/recommendations", apiHandler.RecommendationsHandler)

			r.Get("/profile", apiHandler.GetProfileHandler)
			r.Delete("/profile", apiHandler.ResetProfileHandler)
		})
	})

	return r
}
