package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oakmart/storefront/internal/api"
	"github.com/oakmart/storefront/internal/auth"
	"github.com/oakmart/storefront/internal/inventory"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type checkoutRequest struct {
	ShippingAddress json.RawMessage `json:"shipping_address"`
	BillingAddress  json.RawMessage `json:"billing_address"`
	PaymentMethod   string          `json:"payment_method"`
	Notes           string          `json:"notes"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "invalid request body")
		return
	}
	if len(req.ShippingAddress) == 0 {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing shipping address")
		return
	}
	if req.PaymentMethod == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing payment method")
		return
	}

	order, err := h.service.Checkout(r.Context(), Request{
		AccountID:       accountID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			api.WriteError(w, http.StatusBadRequest, api.KindEmptyCart, err.Error())
		case errors.Is(err, ErrProductUnavailable):
			api.WriteError(w, http.StatusBadRequest, api.KindProductUnavailable, err.Error())
		case errors.Is(err, inventory.ErrInsufficientStock):
			api.WriteError(w, http.StatusBadRequest, api.KindInsufficientStock, err.Error())
		case errors.Is(err, ErrStockConflict), errors.Is(err, ErrOrderNumberConflict):
			api.WriteError(w, http.StatusConflict, api.KindConflict, err.Error())
		default:
			h.logger.Error("checkout failed", "error", err, "account_id", accountID)
			api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
		}
		return
	}

	api.WriteMessage(w, http.StatusCreated, "order placed", order)
}
