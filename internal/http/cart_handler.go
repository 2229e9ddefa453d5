package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_crafts/internal/catalog"
	"github.com/fjod/go_crafts/internal/domain"
)

type CartMutator interface {
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// CartHandler answers every cart call with the enriched cart view.
type CartHandler struct {
	carts   CartMutator
	catalog Catalog
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewCartHandler(carts CartMutator, c Catalog, timeout time.Duration, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{carts: carts, catalog: c, timeout: timeout, log: log}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	h.respondCart(ctx, w, r, http.StatusOK)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if _, err := h.carts.AddItem(ctx, getUserIDFromContext(ctx), req.ProductID, req.Quantity); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if _, err := h.carts.UpdateQuantity(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.carts.RemoveItem(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.Clear(ctx, getUserIDFromContext(ctx)); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.respondCart(ctx, w, r, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, status int) {
	view, err := h.catalog.CartView(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if view.Items == nil {
		view.Items = []catalog.CartLine{}
	}
	respondJSON(w, status, view)
}
