package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/fjod/go_crafts/internal/domain"
	"github.com/fjod/go_crafts/internal/service"
)

type Seller interface {
	Register(ctx context.Context, userID string, req service.RegisterArtisanRequest) (*domain.Artisan, error)
	CurrentArtisan(ctx context.Context, userID string) (*domain.Artisan, error)
	UpdateProfile(ctx context.Context, userID string, patch domain.ArtisanPatch) (*domain.Artisan, error)
	CreateProduct(ctx context.Context, userID string, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, userID, productID string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, userID, productID string) error
}

type StatusAdvancer interface {
	AdvanceStatus(ctx context.Context, userID, orderID string, next domain.OrderStatus) (*domain.Order, error)
}

// SellerHandler serves the dashboard of the artisan owned by the calling user.
type SellerHandler struct {
	seller  Seller
	orders  StatusAdvancer
	catalog Catalog
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewSellerHandler(seller Seller, orders StatusAdvancer, c Catalog, timeout time.Duration, log logrus.FieldLogger) *SellerHandler {
	return &SellerHandler{seller: seller, orders: orders, catalog: c, timeout: timeout, log: log}
}

type CreateProductRequestDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Stock       int      `json:"stock"`
	Materials   []string `json:"materials"`
	Dimensions  string   `json:"dimensions"`
	Weight      string   `json:"weight"`
	Images      []string `json:"images"`
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status"`
}

type SellerProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

func (h *SellerHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.RegisterArtisanRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	artisan, err := h.seller.Register(ctx, getUserIDFromContext(ctx), req)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, artisan)
}

func (h *SellerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	artisan, err := h.seller.CurrentArtisan(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, artisan)
}

func (h *SellerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var patch domain.ArtisanPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	artisan, err := h.seller.UpdateProfile(ctx, getUserIDFromContext(ctx), patch)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, artisan)
}

func (h *SellerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	artisan, err := h.seller.CurrentArtisan(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	products, err := h.catalog.ListByArtisan(ctx, artisan.ID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &SellerProductsResponse{Products: nonNil(products)})
}

func (h *SellerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	product, err := h.seller.CreateProduct(ctx, getUserIDFromContext(ctx), domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Materials:   req.Materials,
		Dimensions:  req.Dimensions,
		Weight:      req.Weight,
		Images:      req.Images,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *SellerHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var patch domain.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	product, err := h.seller.UpdateProduct(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id"), patch)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *SellerHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.seller.DeleteProduct(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SellerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	artisan, err := h.seller.CurrentArtisan(ctx, getUserIDFromContext(ctx))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	orders, err := h.catalog.ArtisanOrderView(ctx, artisan.ID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &OrdersResponse{Orders: nonNil(orders)})
}

func (h *SellerHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	order, err := h.orders.AdvanceStatus(ctx, getUserIDFromContext(ctx), chi.URLParam(r, "order_id"), req.Status)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
