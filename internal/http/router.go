package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	AdminKey       string
	CORSOrigins    []string
	// RateLimit is requests per RateWindow per client IP; 0 disables it
	RateLimit  int
	RateWindow time.Duration
}

type Handlers struct {
	Cart          *CartHandler
	Products      *ProductHandler
	Orders        *OrdersHandler
	Admin         *AdminHandler
	AdminProducts *AdminProductHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(cfg.RateLimit, window))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{product_id}", h.Products.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Get("/items/{product_id}", h.Cart.GetItem)
				r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", h.Cart.RemoveItem)
			})
			r.Post("/orders", h.Orders.PlaceOrder)
		})
		r.Get("/orders/{order_number}", h.Orders.GetOrder)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminAuth(cfg.AdminKey))
			r.Get("/orders", h.Admin.ListOrders)
			r.Patch("/orders/{order_id}/status", h.Admin.UpdateStatus)
			r.Patch("/orders/{order_id}/notes", h.Admin.UpdateNotes)
			r.Post("/products", h.AdminProducts.Create)
			r.Delete("/products/{product_id}", h.AdminProducts.Delete)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
