package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/oakmart/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx writes the order and its lines inside the caller's transaction.
// Checkout owns the transaction so the inserts, the inventory decrements and
// the cart clear commit or roll back together.
func InsertTx(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, account_id, status, payment_status,
			subtotal, shipping, tax, discount, total,
			shipping_address, billing_address, payment_method, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	`, order.ID, order.OrderNumber, order.AccountID, order.Status, order.PaymentStatus,
		order.Subtotal, order.Shipping, order.Tax, order.Discount, order.Total,
		[]byte(order.ShippingAddress), nullableJSON(order.BillingAddress),
		order.PaymentMethod, order.Notes, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price,
				product_name, product_sku, product_image, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.New().String(), order.ID, line.ProductID, line.Quantity, line.Price,
			line.ProductName, line.ProductSKU, line.ProductImage, order.CreatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, e.g. an order number collision.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const orderColumns = `id, order_number, account_id, status, payment_status,
	subtotal, shipping, tax, discount, total,
	shipping_address, billing_address, payment_method, notes,
	tracking_number, estimated_delivery, actual_delivery, created_at, updated_at`

// GetByID returns nil, nil when the order does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil || order == nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, price, product_name, product_sku, product_image
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, product_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Price,
			&line.ProductName, &line.ProductSKU, &line.ProductImage); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns the account's orders newest first, with a batched line fetch
// instead of one query per order.
func (r *Repository) List(ctx context.Context, accountID string, status *domain.OrderStatus, limit, offset int) ([]domain.Order, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE account_id = $1`
	countArgs := []any{accountID}
	if status != nil {
		countQuery += ` AND status = $2`
		countArgs = append(countArgs, *status)
	}
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE account_id = $1`
	args := []any{accountID}
	if status != nil {
		query += ` AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
		args = append(args, *status, limit, offset)
	} else {
		query += `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrderRows(rows)
		if err != nil {
			return nil, 0, err
		}
		order.Lines = []domain.OrderLine{}
		orderMap[order.ID] = order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, total, nil
	}

	lineRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, price, product_name, product_sku, product_image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, product_id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = lineRows.Close() }()

	for lineRows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := lineRows.Scan(&orderID, &line.ProductID, &line.Quantity, &line.Price,
			&line.ProductName, &line.ProductSKU, &line.ProductImage); err != nil {
			return nil, 0, err
		}
		order := orderMap[orderID]
		order.Lines = append(order.Lines, line)
	}

	if err := lineRows.Err(); err != nil {
		return nil, 0, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, total, nil
}

// Advance sets the order status and optional tracking fields. Reaching
// delivered stamps the actual delivery time. Returns nil, nil when the order
// does not exist.
func (r *Repository) Advance(ctx context.Context, id string, status domain.OrderStatus, trackingNumber string, estimatedDelivery *time.Time) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    tracking_number = COALESCE(NULLIF($3, ''), tracking_number),
		    estimated_delivery = COALESCE($4, estimated_delivery),
		    actual_delivery = CASE WHEN $2 = 'delivered' THEN NOW() ELSE actual_delivery END,
		    updated_at = NOW()
		WHERE id = $1
	`, id, status, trackingNumber, estimatedDelivery)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// markCancelledTx flips the order to cancelled/refunded, guarded on the
// statuses that still allow it. Zero rows means another request got there
// first or the order has already moved on.
func markCancelledTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = 'cancelled', payment_status = 'refunded', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'confirmed')
	`, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderFields(s rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var billing []byte
	var tracking sql.NullString
	var notes sql.NullString
	err := s.Scan(&order.ID, &order.OrderNumber, &order.AccountID, &order.Status, &order.PaymentStatus,
		&order.Subtotal, &order.Shipping, &order.Tax, &order.Discount, &order.Total,
		&order.ShippingAddress, &billing, &order.PaymentMethod, &notes,
		&tracking, &order.EstimatedDelivery, &order.ActualDelivery, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	order.BillingAddress = billing
	order.Notes = notes.String
	order.TrackingNumber = tracking.String
	return order, nil
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	order, err := scanOrderFields(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func scanOrderRows(rows *sql.Rows) (*domain.Order, error) {
	return scanOrderFields(rows)
}
