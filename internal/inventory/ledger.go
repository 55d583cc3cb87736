// Package inventory owns the per-product stock counter. Decrements are
// conditional updates so two checkouts racing for the same units serialize on
// the product row and the loser sees zero rows affected instead of negative
// stock.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oakmart/storefront/internal/domain"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// CheckAvailable reports whether the product is active and holds at least qty
// units. This is the advisory read used by cart mutations; checkout never
// trusts it and re-checks at decrement time.
func (l *Ledger) CheckAvailable(ctx context.Context, productID string, qty int) (bool, error) {
	var stock int
	var active bool
	err := l.db.QueryRowContext(ctx, `
		SELECT stock, is_active
		FROM products
		WHERE id = $1
	`, productID).Scan(&stock, &active)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return active && stock >= qty, nil
}

func (l *Ledger) Decrement(ctx context.Context, productID string, qty int) error {
	return decrement(ctx, l.db, productID, qty)
}

func (l *Ledger) Restore(ctx context.Context, productID string, qty int) error {
	return restore(ctx, l.db, productID, qty)
}

// DecrementTx runs the conditional decrement inside the caller's transaction,
// so a checkout that fails a later step rolls this back too.
func DecrementTx(ctx context.Context, tx *sql.Tx, productID string, qty int) error {
	return decrement(ctx, tx, productID, qty)
}

func RestoreTx(ctx context.Context, tx *sql.Tx, productID string, qty int) error {
	return restore(ctx, tx, productID, qty)
}

func (l *Ledger) Levels(ctx context.Context) ([]domain.StockLevel, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, stock, is_active
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var levels []domain.StockLevel
	for rows.Next() {
		var lv domain.StockLevel
		if err := rows.Scan(&lv.ProductID, &lv.Stock, &lv.IsActive); err != nil {
			return nil, err
		}
		levels = append(levels, lv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return levels, nil
}

// Level returns nil, nil when the product does not exist.
func (l *Ledger) Level(ctx context.Context, productID string) (*domain.StockLevel, error) {
	lv := &domain.StockLevel{}
	err := l.db.QueryRowContext(ctx, `
		SELECT id, stock, is_active
		FROM products
		WHERE id = $1
	`, productID).Scan(&lv.ProductID, &lv.Stock, &lv.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return lv, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// decrement re-checks stock at the moment of mutation. The WHERE clause is
// the authority: a passed earlier check means nothing once concurrent writers
// are involved.
func decrement(ctx context.Context, ex execer, productID string, qty int) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND is_active AND stock >= $2
	`, productID, qty)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrInsufficientStock
	}

	return nil
}

// restore has no upper bound: returning more than was ever taken is a caller
// bug, not something the ledger guards.
func restore(ctx context.Context, ex execer, productID string, qty int) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("restore stock: product %s not found", productID)
	}

	return nil
}
