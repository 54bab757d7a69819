package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/core"
	"gwi.com/beauty-box/internal/store"
)

const maxUploadBytes = 5 << 20

func (h *APIHandler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var details store.ShippingDetails
	if !decodeJSON(w, r, &details) {
		return
	}
	order, err := h.orders.Checkout(sessionID(r), details)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

type ordersResponse struct {
	Orders    []store.Order           `json:"orders"`
	Dedup     core.DedupReport        `json:"dedup"`
	LastOrder *store.LastOrderDetails `json:"lastOrder,omitempty"`
}

func (h *APIHandler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ns := sessionID(r)
	orders, report := h.orders.History(ns)
	resp := ordersResponse{Orders: orders, Dedup: report}
	if last, ok := h.orders.LastOrderDetails(ns); ok {
		resp.LastOrder = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) ExportOrdersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := h.orders.ExportXLSX(sessionID(r), w); err != nil {
		log.Error().Err(err).Msg("failed to export orders")
		http.Error(w, "Failed to write Excel file", http.StatusInternalServerError)
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *APIHandler) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(sessionID(r), chi.URLParam(r, "orderID"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *APIHandler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(sessionID(r), chi.URLParam(r, "orderID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type subscriptionResponse struct {
	Subscription store.Subscription `json:"subscription"`
	Prices       core.Prices        `json:"prices"`
	Order        *store.Order       `json:"order,omitempty"`
}

func (h *APIHandler) subscriptionView(sub store.Subscription, order *store.Order) subscriptionResponse {
	return subscriptionResponse{
		Subscription: sub,
		Prices:       core.ComputePrices(sub.Products, sub.Plan),
		Order:        order,
	}
}

func (h *APIHandler) GetSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.subscriptionView(h.subs.Load(sessionID(r)), nil))
}

func (h *APIHandler) UpdateSubscriptionHandler(w http.ResponseWriter, r *http.Request) {
	var req core.SubscriptionUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.subs.Update(sessionID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.subscriptionView(sub, nil))
}

func (h *APIHandler) AddSubscriptionProductHandler(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, order, err := h.subs.AddProduct(sessionID(r), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.subscriptionView(sub, order))
}

func (h *APIHandler) AddCustomProductHandler(w http.ResponseWriter, r *http.Request) {
	var req core.CustomProductInput
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, order, err := h.subs.AddCustomProduct(sessionID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.subscriptionView(sub, order))
}

func (h *APIHandler) RemoveSubscriptionProductHandler(w http.ResponseWriter, r *http.Request) {
	sub, order, err := h.subs.RemoveProduct(sessionID(r), chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.subscriptionView(sub, order))
}

// UploadProductsHandler imports the multipart "file" field into the subscription.
func (h *APIHandler) UploadProductsHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file is too large"})
			return
		}
		badRequest(w, "a product file is required in the \"file\" field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "could not read uploaded file")
		return
	}

	res, err := h.subs.Import(sessionID(r), filepath.Base(header.Filename), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandler) PricesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.subs.Prices(sessionID(r)))
}
