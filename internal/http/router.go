package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	JWTSecret          []byte
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

type Handlers struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Orders   *OrdersHandler
	Seller   *SellerHandler
	Health   Pinger
}

func NewRouter(cfg RouterConfig, h Handlers, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Health.Ping(ctx); err != nil {
			log.WithError(err).Warn("health check failed")
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/trending", h.Catalog.Trending)
		r.Get("/products/search", h.Catalog.Search)
		r.Get("/products/{product_id}", h.Catalog.GetProduct)
		r.Get("/artisans/featured", h.Catalog.FeaturedArtisans)
		r.Get("/artisans/{slug}", h.Catalog.ArtisanPage)

		r.Group(func(r chi.Router) {
			r.Use(RequireUser)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})

			r.Get("/wishlist", h.Wishlist.Get)
			r.Post("/wishlist/{product_id}/toggle", h.Wishlist.Toggle)

			r.Post("/checkout", h.Orders.Checkout)
			r.Get("/orders", h.Orders.List)

			r.Route("/seller", func(r chi.Router) {
				r.Post("/register", h.Seller.Register)
				r.Get("/profile", h.Seller.Profile)
				r.Patch("/profile", h.Seller.UpdateProfile)
				r.Get("/products", h.Seller.ListProducts)
				r.Post("/products", h.Seller.CreateProduct)
				r.Patch("/products/{product_id}", h.Seller.UpdateProduct)
				r.Delete("/products/{product_id}", h.Seller.DeleteProduct)
				r.Get("/orders", h.Seller.Orders)
				r.Patch("/orders/{order_id}/status", h.Seller.UpdateOrderStatus)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
