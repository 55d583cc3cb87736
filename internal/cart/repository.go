package cart

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/oakmart/storefront/internal/domain"
)

// Repository persists one cart per account. Every line mutation and the
// totals recompute happen in one transaction, so subtotal and total_items
// can never drift from the line collection.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByAccount returns nil, nil when the account has no cart yet.
func (r *Repository) GetByAccount(ctx context.Context, accountID string) (*domain.Cart, error) {
	return getByAccount(ctx, r.db, accountID)
}

func (r *Repository) Create(ctx context.Context, accountID string) (*domain.Cart, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, account_id, subtotal, total_items, created_at, updated_at)
		VALUES ($1, $2, 0, 0, NOW(), NOW())
		ON CONFLICT (account_id) DO NOTHING
	`, id, accountID)
	if err != nil {
		return nil, err
	}
	return getByAccount(ctx, r.db, accountID)
}

// SetLine upserts a line to an absolute quantity and recomputes totals.
func (r *Repository) SetLine(ctx context.Context, cartID string, line domain.CartLine) (*domain.Cart, error) {
	return r.mutate(ctx, cartID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, quantity, price, product_name, product_sku, product_image, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = EXCLUDED.quantity
		`, uuid.New().String(), cartID, line.ProductID, line.Quantity, line.Price,
			line.ProductName, line.ProductSKU, line.ProductImage)
		return err
	})
}

// UpdateLineQuantity sets an existing line to an absolute quantity. Returns
// ErrItemNotFound when the product is not in the cart.
func (r *Repository) UpdateLineQuantity(ctx context.Context, cartID, productID string, qty int) (*domain.Cart, error) {
	return r.mutate(ctx, cartID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE cart_items
			SET quantity = $3
			WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID, qty)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

func (r *Repository) RemoveLine(ctx context.Context, cartID, productID string) (*domain.Cart, error) {
	return r.mutate(ctx, cartID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM cart_items
			WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID)
		if err != nil {
			return err
		}
		return requireRow(result)
	})
}

// Clear drops every line. Clearing an already empty cart is a no-op.
func (r *Repository) Clear(ctx context.Context, cartID string) (*domain.Cart, error) {
	return r.mutate(ctx, cartID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM cart_items
			WHERE cart_id = $1
		`, cartID)
		return err
	})
}

func (r *Repository) mutate(ctx context.Context, cartID string, fn func(tx *sql.Tx) error) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return nil, err
	}

	if err := recomputeTotals(ctx, tx, cartID); err != nil {
		return nil, err
	}

	cart, err := getByID(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return cart, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetByAccountTx reads the cart inside the caller's transaction. Checkout
// uses this so the lines it converts are the lines it clears.
func GetByAccountTx(ctx context.Context, tx *sql.Tx, accountID string) (*domain.Cart, error) {
	return getByAccount(ctx, tx, accountID)
}

// ClearTx empties the cart as part of the caller's transaction.
func ClearTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE cart_id = $1
	`, cartID); err != nil {
		return err
	}
	return recomputeTotals(ctx, tx, cartID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func recomputeTotals(ctx context.Context, q querier, cartID string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE carts
		SET subtotal = COALESCE((SELECT SUM(price * quantity) FROM cart_items WHERE cart_id = $1), 0),
		    total_items = COALESCE((SELECT SUM(quantity) FROM cart_items WHERE cart_id = $1), 0),
		    updated_at = NOW()
		WHERE id = $1
	`, cartID)
	return err
}

func getByAccount(ctx context.Context, q querier, accountID string) (*domain.Cart, error) {
	return scanCart(ctx, q, q.QueryRowContext(ctx, `
		SELECT id, account_id, subtotal, total_items, created_at, updated_at
		FROM carts
		WHERE account_id = $1
	`, accountID))
}

func getByID(ctx context.Context, q querier, cartID string) (*domain.Cart, error) {
	return scanCart(ctx, q, q.QueryRowContext(ctx, `
		SELECT id, account_id, subtotal, total_items, created_at, updated_at
		FROM carts
		WHERE id = $1
	`, cartID))
}

func scanCart(ctx context.Context, q querier, row *sql.Row) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := row.Scan(&cart.ID, &cart.AccountID, &cart.Subtotal, &cart.TotalItems, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT product_id, quantity, price, product_name, product_sku, product_image
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at, product_id
	`, cart.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.Price,
			&line.ProductName, &line.ProductSKU, &line.ProductImage); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}
