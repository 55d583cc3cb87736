// Package worker reacts to order events. Notifications are deliberately
// outside the checkout transaction: a failed email never blocks or rolls back
// an order, the consumer just retries the event.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/oakmart/storefront/internal/domain"
)

type NotificationHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewNotificationHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order event: %w", err)
	}

	h.logger.Info("processing order event", "type", event.Type, "order_id", event.OrderID, "account_id", event.AccountID)

	switch event.Type {
	case domain.OrderEventCreated:
		return h.sendConfirmationEmail(ctx, event)
	case domain.OrderEventCancelled:
		return h.sendCancellationEmail(ctx, event)
	default:
		// Unknown event types are skipped, not retried forever.
		h.logger.Warn("unknown order event type", "type", event.Type, "order_id", event.OrderID)
		return nil
	}
}

func (h *NotificationHandler) sendConfirmationEmail(ctx context.Context, event domain.OrderEvent) error {
	units := 0
	for _, line := range event.Lines {
		units += line.Quantity
	}

	body := map[string]string{
		"to":      event.AccountID + "@example.com",
		"subject": "Order Confirmation: " + event.OrderNumber,
		"body":    fmt.Sprintf("Your order %s with %d items has been received.", event.OrderNumber, units),
	}

	return h.sendEmail(ctx, body)
}

func (h *NotificationHandler) sendCancellationEmail(ctx context.Context, event domain.OrderEvent) error {
	body := map[string]string{
		"to":      event.AccountID + "@example.com",
		"subject": "Order Cancelled: " + event.OrderNumber,
		"body":    fmt.Sprintf("Your order %s has been cancelled and your payment refunded.", event.OrderNumber),
	}

	return h.sendEmail(ctx, body)
}

func (h *NotificationHandler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
