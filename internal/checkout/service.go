// Package checkout converts a cart into an order. The whole pipeline
// (re-validation, order and line inserts, inventory decrements, cart clear)
// runs in one database transaction: either all of it is visible afterwards or
// none of it is.
package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/oakmart/storefront/internal/cart"
	"github.com/oakmart/storefront/internal/catalog"
	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/inventory"
	"github.com/oakmart/storefront/internal/orders"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrProductUnavailable  = errors.New("product is not available")
	ErrStockConflict       = errors.New("stock changed during checkout")
	ErrOrderNumberConflict = errors.New("order number collision, retry checkout")
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	db             *sql.DB
	pricer         Pricer
	producer       Publisher
	logger         *slog.Logger
	ordersPlaced   metric.Int64Counter
	stockConflicts metric.Int64Counter
}

func NewService(db *sql.DB, pricer Pricer, producer Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("checkout")
	ordersPlaced, err := meter.Int64Counter("orders_placed_total",
		metric.WithDescription("Orders created through checkout"))
	if err != nil {
		logger.Warn("failed to create orders placed counter", "error", err)
	}
	stockConflicts, err := meter.Int64Counter("checkout_stock_conflicts_total",
		metric.WithDescription("Checkouts that lost a stock race at decrement time"))
	if err != nil {
		logger.Warn("failed to create stock conflict counter", "error", err)
	}

	return &Service{
		db:             db,
		pricer:         pricer,
		producer:       producer,
		logger:         logger,
		ordersPlaced:   ordersPlaced,
		stockConflicts: stockConflicts,
	}
}

type Request struct {
	AccountID       string
	ShippingAddress json.RawMessage
	BillingAddress  json.RawMessage
	PaymentMethod   string
	Notes           string
}

// Checkout turns the account's cart into a pending order.
//
// The validation pass rejects doomed checkouts without writing anything; the
// per-line conditional decrement afterwards is still the authority, because
// stock can change between the two. A decrement that loses that race aborts
// the transaction, which also rolls back the order rows, earlier decrements
// and the cart clear.
func (s *Service) Checkout(ctx context.Context, req Request) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	current, err := cart.GetByAccountTx(ctx, tx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.IsEmpty() {
		return nil, ErrEmptyCart
	}

	for _, line := range current.Lines {
		product, err := catalog.GetByIDTx(ctx, tx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, line.ProductName)
		}
		if product.Stock < line.Quantity {
			return nil, fmt.Errorf("%w: %s", inventory.ErrInsufficientStock, product.Name)
		}
	}

	quote, err := s.pricer.Quote(ctx, current)
	if err != nil {
		return nil, fmt.Errorf("price cart: %w", err)
	}

	order := buildOrder(current, quote, req)

	if err := orders.InsertTx(ctx, tx, order); err != nil {
		if orders.IsUniqueViolation(err) {
			return nil, ErrOrderNumberConflict
		}
		return nil, err
	}

	for _, line := range current.Lines {
		if err := inventory.DecrementTx(ctx, tx, line.ProductID, line.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) {
				if s.stockConflicts != nil {
					s.stockConflicts.Add(ctx, 1)
				}
				return nil, fmt.Errorf("%w: %s", ErrStockConflict, line.ProductName)
			}
			return nil, err
		}
	}

	if err := cart.ClearTx(ctx, tx, current.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if s.ordersPlaced != nil {
		s.ordersPlaced.Add(ctx, 1)
	}

	if s.producer != nil {
		event := domain.NewOrderEvent(domain.OrderEventCreated, order)
		if err := s.producer.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("order placed", "order_id", order.ID, "order_number", order.OrderNumber,
		"account_id", req.AccountID, "total", order.Total)
	return order, nil
}

// buildOrder snapshots the cart into an immutable order. Prices come from the
// cart lines, not the live catalog, and addresses are copied by value so
// later edits to stored records never alter the order.
func buildOrder(c *domain.Cart, quote Quote, req Request) *domain.Order {
	now := time.Now().UTC()

	order := &domain.Order{
		ID:              uuid.New().String(),
		OrderNumber:     orders.NewOrderNumber(),
		AccountID:       req.AccountID,
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		Subtotal:        c.Subtotal,
		Shipping:        quote.Shipping,
		Tax:             quote.Tax,
		Discount:        quote.Discount,
		Total:           c.Subtotal + quote.Shipping + quote.Tax - quote.Discount,
		ShippingAddress: append(json.RawMessage(nil), req.ShippingAddress...),
		BillingAddress:  append(json.RawMessage(nil), req.BillingAddress...),
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	order.Lines = make([]domain.OrderLine, len(c.Lines))
	for i, line := range c.Lines {
		order.Lines[i] = domain.OrderLine{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			Price:        line.Price,
			ProductName:  line.ProductName,
			ProductSKU:   line.ProductSKU,
			ProductImage: line.ProductImage,
		}
	}

	return order
}
