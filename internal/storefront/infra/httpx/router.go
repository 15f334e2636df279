package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/health", handler.Health)
	r.Get("/config", handler.Config)

	r.Get("/products", handler.ListProducts)
	r.Get("/products/{id}", handler.GetProduct)

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/", handler.CreateCheckout)
		r.Get("/success", handler.Success)
		r.Get("/cancel", handler.Cancel)
		r.Get("/{checkoutID}/redirect", handler.Redirect)
		r.Get("/{checkoutID}/status", handler.Status)
		r.Get("/{checkoutID}/history", handler.History)
	})

	for prefix, h := range handler.opts.Mounts {
		r.Mount(prefix, h)
	}
	return r
}
