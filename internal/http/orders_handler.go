package http

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_crafts/internal/catalog"
	"github.com/fjod/go_crafts/internal/domain"
)

type Checkouter interface {
	Checkout(ctx context.Context, userID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  Checkouter
	catalog Catalog
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewOrdersHandler(orders Checkouter, c Catalog, timeout time.Duration, log logrus.FieldLogger) *OrdersHandler {
	return &OrdersHandler{orders: orders, catalog: c, timeout: timeout, log: log}
}

type OrdersResponse struct {
	Orders []catalog.EnrichedOrder `json:"orders"`
}

func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.Checkout(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.catalog.BuyerOrders(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &OrdersResponse{Orders: nonNil(orders)})
}
