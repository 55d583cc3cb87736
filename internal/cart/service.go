package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/inventory"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrProductNotFound = errors.New("product not found")
	ErrProductInactive = errors.New("product is not available")
	ErrItemNotFound    = errors.New("item not in cart")
)

// Store is the persistence contract the service mutates carts through.
type Store interface {
	GetByAccount(ctx context.Context, accountID string) (*domain.Cart, error)
	Create(ctx context.Context, accountID string) (*domain.Cart, error)
	SetLine(ctx context.Context, cartID string, line domain.CartLine) (*domain.Cart, error)
	UpdateLineQuantity(ctx context.Context, cartID, productID string, qty int) (*domain.Cart, error)
	RemoveLine(ctx context.Context, cartID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, cartID string) (*domain.Cart, error)
}

type CatalogReader interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type StockChecker interface {
	CheckAvailable(ctx context.Context, productID string, qty int) (bool, error)
}

// Service applies the cart business rules. Its stock checks are advisory, to
// reject obviously doomed carts early; checkout re-validates against the
// ledger at commit time.
type Service struct {
	store   Store
	catalog CatalogReader
	stock   StockChecker
	logger  *slog.Logger
}

func NewService(store Store, catalog CatalogReader, stock StockChecker, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		stock:   stock,
		logger:  logger,
	}
}

// GetOrCreate returns the account's cart, creating an empty one on first
// access.
func (s *Service) GetOrCreate(ctx context.Context, accountID string) (*domain.Cart, error) {
	cart, err := s.store.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	return s.store.Create(ctx, accountID)
}

// AddItem upserts a line, merging quantity when the product is already in the
// cart. The stock check covers the resulting quantity, not just the delta.
func (s *Service) AddItem(ctx context.Context, accountID, productID string, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrProductInactive, product.Name)
	}

	cart, err := s.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	line := domain.CartLine{
		ProductID:    product.ID,
		Quantity:     qty,
		Price:        product.Price,
		ProductName:  product.Name,
		ProductSKU:   product.SKU,
		ProductImage: product.ImageURL,
	}
	if existing := findLine(cart, productID); existing != nil {
		line.Quantity += existing.Quantity
		// The price the customer saw when they first added the product.
		line.Price = existing.Price
	}

	ok, err := s.stock.CheckAvailable(ctx, productID, line.Quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", inventory.ErrInsufficientStock, product.Name)
	}

	updated, err := s.store.SetLine(ctx, cart.ID, line)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item added", "account_id", accountID, "product_id", productID, "quantity", line.Quantity)
	return updated, nil
}

// UpdateItem sets an existing line to an absolute quantity. Quantity below 1
// is a validation error, never an implicit removal.
func (s *Service) UpdateItem(ctx context.Context, accountID, productID string, qty int) (*domain.Cart, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.store.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrItemNotFound
	}
	line := findLine(cart, productID)
	if line == nil {
		return nil, ErrItemNotFound
	}

	ok, err := s.stock.CheckAvailable(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", inventory.ErrInsufficientStock, line.ProductName)
	}

	updated, err := s.store.UpdateLineQuantity(ctx, cart.ID, productID, qty)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item updated", "account_id", accountID, "product_id", productID, "quantity", qty)
	return updated, nil
}

func (s *Service) RemoveItem(ctx context.Context, accountID, productID string) (*domain.Cart, error) {
	cart, err := s.store.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrItemNotFound
	}

	updated, err := s.store.RemoveLine(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart item removed", "account_id", accountID, "product_id", productID)
	return updated, nil
}

// Clear resets the cart to empty. Idempotent.
func (s *Service) Clear(ctx context.Context, accountID string) (*domain.Cart, error) {
	cart, err := s.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	cleared, err := s.store.Clear(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart cleared", "account_id", accountID)
	return cleared, nil
}

func findLine(cart *domain.Cart, productID string) *domain.CartLine {
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			return &cart.Lines[i]
		}
	}
	return nil
}
