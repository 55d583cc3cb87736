// Package catalog is the read surface over the product table. Product
// management belongs to the catalog service; the fulfillment core only reads
// price, active flag and the display fields used for line snapshots.
package catalog

import (
	"context"
	"database/sql"

	"github.com/oakmart/storefront/internal/domain"
)

const productColumns = `id, name, sku, image_url, price, stock, is_active, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByID returns nil, nil when the product does not exist.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return getByID(ctx, r.db, id)
}

// GetByIDTx reads the product inside the caller's transaction. Checkout uses
// this so its validation pass sees the same snapshot it will decrement
// against.
func GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Product, error) {
	return getByID(ctx, tx, id)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q rowQuerier, id string) (*domain.Product, error) {
	p := &domain.Product{}
	err := q.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.SKU, &p.ImageURL, &p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
