package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/inventory"
)

var (
	ErrNotFound       = errors.New("order not found")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
	ErrInvalidStatus  = errors.New("unrecognized order status")
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service owns order status transitions. Cancellation is the only transition
// with inventory side effects: restoration and the status flip are one
// transaction.
type Service struct {
	db        *sql.DB
	repo      *Repository
	producer  Publisher
	logger    *slog.Logger
	cancelled metric.Int64Counter
}

func NewService(db *sql.DB, repo *Repository, producer Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("orders")
	cancelled, err := meter.Int64Counter("orders_cancelled_total",
		metric.WithDescription("Orders cancelled with inventory restored"))
	if err != nil {
		logger.Warn("failed to create cancellation counter", "error", err)
	}

	return &Service{
		db:        db,
		repo:      repo,
		producer:  producer,
		logger:    logger,
		cancelled: cancelled,
	}
}

// Get returns the order scoped to the owning account.
func (s *Service) Get(ctx context.Context, id, accountID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.AccountID != accountID {
		return nil, ErrNotFound
	}
	return order, nil
}

type Page struct {
	Orders   []domain.Order `json:"orders"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func (s *Service) List(ctx context.Context, accountID string, status *domain.OrderStatus, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	orders, total, err := s.repo.List(ctx, accountID, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{Orders: orders, Total: total, Page: page, PageSize: pageSize}, nil
}

// Advance is the administrative transition. Cancellation is excluded: it must
// go through Cancel so inventory is restored.
func (s *Service) Advance(ctx context.Context, id string, status domain.OrderStatus, trackingNumber string, estimatedDelivery *time.Time) (*domain.Order, error) {
	if status == domain.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: use the cancel operation", ErrInvalidStatus)
	}

	order, err := s.repo.Advance(ctx, id, status, trackingNumber, estimatedDelivery)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}

	s.logger.Info("order status advanced", "order_id", id, "status", status)
	return order, nil
}

// Cancel flips the order to cancelled/refunded and restores exactly the
// quantities recorded in its lines, as one transaction. The guarded status
// update is the authority: a concurrent cancel or a shipment racing this call
// makes it report ErrNotCancellable instead of restoring stock twice.
func (s *Service) Cancel(ctx context.Context, id, accountID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil || order.AccountID != accountID {
		return nil, ErrNotFound
	}
	if !order.Status.Cancellable() {
		return nil, ErrNotCancellable
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cancelled, err := markCancelledTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, ErrNotCancellable
	}

	for _, line := range order.Lines {
		if err := inventory.RestoreTx(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("restore stock for product %s: %w", line.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusCancelled
	order.PaymentStatus = domain.PaymentStatusRefunded

	if s.cancelled != nil {
		s.cancelled.Add(ctx, 1)
	}

	if s.producer != nil {
		event := domain.NewOrderEvent(domain.OrderEventCancelled, order)
		if err := s.producer.Publish(ctx, order.ID, event); err != nil {
			s.logger.Error("failed to publish order cancelled event", "error", err, "order_id", order.ID)
		}
	}

	s.logger.Info("order cancelled", "order_id", id, "account_id", accountID)
	return order, nil
}
