package cart

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

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	cart, err := h.service.GetOrCreate(r.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to get cart", "error", err, "account_id", accountID)
		api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
		return
	}

	api.WriteData(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "invalid request body")
		return
	}
	if req.ProductID == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing product id")
		return
	}

	cart, err := h.service.AddItem(r.Context(), accountID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err, accountID)
		return
	}

	api.WriteData(w, http.StatusOK, cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing product id")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "invalid request body")
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), accountID, productID, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err, accountID)
		return
	}

	api.WriteData(w, http.StatusOK, cart)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	productID := r.PathValue("productId")
	if productID == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing product id")
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), accountID, productID)
	if err != nil {
		h.writeServiceError(w, err, accountID)
		return
	}

	api.WriteData(w, http.StatusOK, cart)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	cart, err := h.service.Clear(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, err, accountID)
		return
	}

	api.WriteData(w, http.StatusOK, cart)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, accountID string) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, err.Error())
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrItemNotFound):
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, err.Error())
	case errors.Is(err, ErrProductInactive):
		api.WriteError(w, http.StatusBadRequest, api.KindProductUnavailable, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		api.WriteError(w, http.StatusBadRequest, api.KindInsufficientStock, err.Error())
	default:
		h.logger.Error("cart operation failed", "error", err, "account_id", accountID)
		api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
	}
}
