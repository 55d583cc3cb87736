package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/oakmart/storefront/internal/api"
	"github.com/oakmart/storefront/internal/auth"
	"github.com/oakmart/storefront/internal/domain"
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

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := domain.ParseOrderStatus(raw)
		if !ok {
			api.WriteError(w, http.StatusBadRequest, api.KindInvalidStatus, "unrecognized order status")
			return
		}
		status = &parsed
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := h.service.List(r.Context(), accountID, status, page, pageSize)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "account_id", accountID)
		api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
		return
	}

	api.WriteData(w, http.StatusOK, result)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing order id")
		return
	}

	order, err := h.service.Get(r.Context(), id, accountID)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}

	api.WriteData(w, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountFromContext(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, api.KindUnauthorized, "missing account identity")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing order id")
		return
	}

	order, err := h.service.Cancel(r.Context(), id, accountID)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}

	api.WriteMessage(w, http.StatusOK, "order cancelled", order)
}

type advanceRequest struct {
	Status            string `json:"status"`
	TrackingNumber    string `json:"tracking_number"`
	EstimatedDelivery string `json:"estimated_delivery"`
}

// HandleAdvance is the admin transition endpoint. Role enforcement happens in
// the upstream auth layer.
func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "missing order id")
		return
	}

	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.KindValidation, "invalid request body")
		return
	}

	status, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.KindInvalidStatus, "unrecognized order status")
		return
	}

	var estimatedDelivery *time.Time
	if req.EstimatedDelivery != "" {
		parsed, err := time.Parse(time.RFC3339, req.EstimatedDelivery)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, api.KindValidation, "estimated_delivery must be RFC3339")
			return
		}
		estimatedDelivery = &parsed
	}

	order, err := h.service.Advance(r.Context(), id, status, req.TrackingNumber, estimatedDelivery)
	if err != nil {
		h.writeServiceError(w, err, id)
		return
	}

	api.WriteData(w, http.StatusOK, order)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, orderID string) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.KindNotFound, "order not found")
	case errors.Is(err, ErrNotCancellable):
		api.WriteError(w, http.StatusBadRequest, api.KindNotCancellable, err.Error())
	case errors.Is(err, ErrInvalidStatus):
		api.WriteError(w, http.StatusBadRequest, api.KindInvalidStatus, err.Error())
	default:
		h.logger.Error("order operation failed", "error", err, "order_id", orderID)
		api.WriteError(w, http.StatusInternalServerError, api.KindInternal, "internal server error")
	}
}
