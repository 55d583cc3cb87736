package inventory

import (
	"log/slog"
	"net/http"

	"github.com/oakmart/storefront/internal/api"
)

type Handler struct {
	ledger *Ledger
	logger *slog.Logger
}

func NewHandler(ledger *Ledger, logger *slog.Logger) *Handler {
	return &Handler{
		ledger: ledger,
		logger: logger,
	}
}

func (h *Handler) HandleListStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.ledger.Levels(r.Context())
	if err != nil {
		h.logger.Error("failed to list stock", "error", err)
		api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
		return
	}

	api.WriteData(w, http.StatusOK, levels)
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing product id")
		return
	}

	level, err := h.ledger.Level(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to get stock", "error", err, "product_id", productID)
		api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
		return
	}

	if level == nil {
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, "product not found")
		return
	}

	api.WriteData(w, http.StatusOK, level)
}
