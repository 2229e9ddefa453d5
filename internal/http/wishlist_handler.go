package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

type WishlistToggler interface {
	Toggle(ctx context.Context, userID, productID string) (bool, error)
}

type WishlistHandler struct {
	wishlist WishlistToggler
	catalog  Catalog
	timeout  time.Duration
	log      logrus.FieldLogger
}

func NewWishlistHandler(wishlist WishlistToggler, c Catalog, timeout time.Duration, log logrus.FieldLogger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, catalog: c, timeout: timeout, log: log}
}

type ToggleResponse struct {
	ProductID  string `json:"product_id"`
	InWishlist bool   `json:"in_wishlist"`
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.WishlistView(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: nonNil(products)})
}

func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	in, err := h.wishlist.Toggle(ctx, getUserIDFromContext(ctx), productID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ToggleResponse{ProductID: productID, InWishlist: in})
}
