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
	"github.com/jcmexdev/storefront/internal/storefront/core/pricing"
)

// Redirect sends the buyer to the gateway-hosted page for a created session.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "checkoutID")

	target, err := h.checkout.Redirect(r.Context(), checkoutID)
	if err != nil {
		h.writeOutcomeError(w, r, checkoutID, err)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Success records a buyer returning through the success URL. It does not
// verify payment.
func (h *Handler) Success(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, entity.StatusCompleted)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, entity.StatusCancelled)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, outcome entity.Status) {
	checkoutID := strings.TrimSpace(r.URL.Query().Get(coordinator.CheckoutIDParam))
	if checkoutID == "" {
		writeError(w, http.StatusBadRequest, "checkout_id_required", "")
		return
	}

	session, err := h.checkout.Resolve(r.Context(), checkoutID, outcome)
	if err != nil {
		h.writeOutcomeError(w, r, checkoutID, err)
		return
	}

	writeJSON(w, http.StatusOK, OutcomeResponse{CheckoutID: session.CheckoutID, Status: session.Status.String()})
}

// Status returns the latest recorded state so a UI can poll while the
// session is being created.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "checkoutID")

	session, err := h.checkout.Session(r.Context(), checkoutID)
	if err != nil {
		h.writeOutcomeError(w, r, checkoutID, err)
		return
	}

	total := session.Total()
	writeJSON(w, http.StatusOK, StatusResponse{
		CheckoutID: session.CheckoutID,
		Status:     session.Status.String(),
		Processing: session.Status.IsProcessing(),
		SessionID:  session.SessionID,
		Total:      total,
		Amount:     pricing.FromMinorUnits(total, h.opts.Currency),
		Currency:   strings.ToLower(h.opts.Currency.String()),
	})
}

// History lists every recorded transition of a checkout, oldest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "checkoutID")

	entries, err := h.checkout.History(r.Context(), checkoutID)
	if err != nil {
		h.writeOutcomeError(w, r, checkoutID, err)
		return
	}

	resp := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		resp[i] = HistoryEntry{Status: e.Status.String(), ErrorKind: e.ErrorKind, TraceID: e.TraceID, At: e.At}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeOutcomeError(w http.ResponseWriter, r *http.Request, checkoutID string, err error) {
	switch {
	case errors.Is(err, ports.ErrCheckoutNotFound):
		writeError(w, http.StatusNotFound, "checkout_not_found", "")
	case errors.Is(err, coordinator.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "illegal_transition", err.Error())
	default:
		slog.ErrorContext(r.Context(), "checkout outcome failed", "checkout_id", checkoutID, "error", err)
		writeError(w, http.StatusInternalServerError, string(coordinator.KindInternal), "")
	}
}
