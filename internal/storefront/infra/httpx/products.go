package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront/internal/coordinator"
	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/storefront/internal/storefront/core/ports"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list products failed", "error", err)
		writeError(w, http.StatusInternalServerError, string(coordinator.KindInternal), "")
		return
	}

	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = h.mapProduct(p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.catalog.GetProduct(r.Context(), id)
	if errors.Is(err, ports.ErrProductNotFound) {
		writeError(w, http.StatusNotFound, string(coordinator.KindProductNotFound), "")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "get product failed", "product_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, string(coordinator.KindInternal), "")
		return
	}

	writeJSON(w, http.StatusOK, h.mapProduct(*p))
}

func (h *Handler) mapProduct(p entity.Product) ProductResponse {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.UnitPrice,
		Currency:    strings.ToLower(h.opts.Currency.String()),
		Image:       p.ImageRef,
		Description: p.Description,
		Features:    features,
		Rating:      p.Rating,
		Category:    p.Category,
	}
}
