package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/inventory"
)

type fakeStore struct {
	carts  map[string]*domain.Cart // by account id
	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: make(map[string]*domain.Cart)}
}

func (f *fakeStore) GetByAccount(_ context.Context, accountID string) (*domain.Cart, error) {
	cart, ok := f.carts[accountID]
	if !ok {
		return nil, nil
	}
	return copyCart(cart), nil
}

func (f *fakeStore) Create(_ context.Context, accountID string) (*domain.Cart, error) {
	if cart, ok := f.carts[accountID]; ok {
		return copyCart(cart), nil
	}
	f.nextID++
	cart := &domain.Cart{ID: string(rune('a' + f.nextID)), AccountID: accountID}
	f.carts[accountID] = cart
	return copyCart(cart), nil
}

func (f *fakeStore) SetLine(_ context.Context, cartID string, line domain.CartLine) (*domain.Cart, error) {
	cart := f.byID(cartID)
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == line.ProductID {
			cart.Lines[i] = line
			f.recompute(cart)
			return copyCart(cart), nil
		}
	}
	cart.Lines = append(cart.Lines, line)
	f.recompute(cart)
	return copyCart(cart), nil
}

func (f *fakeStore) UpdateLineQuantity(_ context.Context, cartID, productID string, qty int) (*domain.Cart, error) {
	cart := f.byID(cartID)
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity = qty
			f.recompute(cart)
			return copyCart(cart), nil
		}
	}
	return nil, ErrItemNotFound
}

func (f *fakeStore) RemoveLine(_ context.Context, cartID, productID string) (*domain.Cart, error) {
	cart := f.byID(cartID)
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			f.recompute(cart)
			return copyCart(cart), nil
		}
	}
	return nil, ErrItemNotFound
}

func (f *fakeStore) Clear(_ context.Context, cartID string) (*domain.Cart, error) {
	cart := f.byID(cartID)
	cart.Lines = nil
	f.recompute(cart)
	return copyCart(cart), nil
}

func (f *fakeStore) byID(cartID string) *domain.Cart {
	for _, cart := range f.carts {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

func (f *fakeStore) recompute(cart *domain.Cart) {
	cart.Subtotal = 0
	cart.TotalItems = 0
	for _, line := range cart.Lines {
		cart.Subtotal += line.Price * int64(line.Quantity)
		cart.TotalItems += line.Quantity
	}
}

func copyCart(cart *domain.Cart) *domain.Cart {
	dup := *cart
	dup.Lines = append([]domain.CartLine(nil), cart.Lines...)
	return &dup
}

type fakeCatalog struct {
	products map[string]*domain.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	return f.products[id], nil
}

type fakeStock struct {
	levels map[string]int
}

func (f *fakeStock) CheckAvailable(_ context.Context, productID string, qty int) (bool, error) {
	stock, ok := f.levels[productID]
	return ok && stock >= qty, nil
}

func newTestService() (*Service, *fakeStore, *fakeStock) {
	store := newFakeStore()
	stock := &fakeStock{levels: map[string]int{"p1": 10, "p2": 3}}
	cat := &fakeCatalog{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Walnut Desk", SKU: "DESK-01", Price: 100, IsActive: true},
		"p2": {ID: "p2", Name: "Oak Chair", SKU: "CHAIR-02", Price: 250, IsActive: true},
		"p3": {ID: "p3", Name: "Retired Lamp", SKU: "LAMP-03", Price: 40, IsActive: false},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, cat, stock, logger), store, stock
}

func TestService_GetOrCreate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cart, err := svc.GetOrCreate(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Subtotal != 0 || cart.TotalItems != 0 || len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}

	again, err := svc.GetOrCreate(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected same cart, got %s and %s", cart.ID, again.ID)
	}
}

func TestService_AddItem(t *testing.T) {
	t.Run("adds line and recomputes totals", func(t *testing.T) {
		svc, _, _ := newTestService()
		ctx := context.Background()

		cart, err := svc.AddItem(ctx, "acct-1", "p1", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cart.Lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(cart.Lines))
		}
		if cart.Subtotal != 200 || cart.TotalItems != 2 {
			t.Fatalf("expected subtotal 200 / items 2, got %d / %d", cart.Subtotal, cart.TotalItems)
		}
		if cart.Lines[0].ProductName != "Walnut Desk" || cart.Lines[0].ProductSKU != "DESK-01" {
			t.Fatalf("expected product snapshot on line, got %+v", cart.Lines[0])
		}
	})

	t.Run("merges quantity for same product", func(t *testing.T) {
		svc, _, _ := newTestService()
		ctx := context.Background()

		if _, err := svc.AddItem(ctx, "acct-1", "p1", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cart, err := svc.AddItem(ctx, "acct-1", "p1", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cart.Lines) != 1 {
			t.Fatalf("expected merged line, got %d lines", len(cart.Lines))
		}
		if cart.Lines[0].Quantity != 5 {
			t.Fatalf("expected quantity 5, got %d", cart.Lines[0].Quantity)
		}
		if cart.Subtotal != 500 || cart.TotalItems != 5 {
			t.Fatalf("expected subtotal 500 / items 5, got %d / %d", cart.Subtotal, cart.TotalItems)
		}
	})

	t.Run("stock check covers resulting quantity", func(t *testing.T) {
		svc, _, _ := newTestService()
		ctx := context.Background()

		// p2 has stock 3: 2 then +2 must fail even though each alone fits.
		if _, err := svc.AddItem(ctx, "acct-1", "p2", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := svc.AddItem(ctx, "acct-1", "p2", 2)
		if !errors.Is(err, inventory.ErrInsufficientStock) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
	})

	t.Run("rejects quantity below 1", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.AddItem(context.Background(), "acct-1", "p1", 0)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected invalid quantity, got %v", err)
		}
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.AddItem(context.Background(), "acct-1", "nope", 1)
		if !errors.Is(err, ErrProductNotFound) {
			t.Fatalf("expected product not found, got %v", err)
		}
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.AddItem(context.Background(), "acct-1", "p3", 1)
		if !errors.Is(err, ErrProductInactive) {
			t.Fatalf("expected product inactive, got %v", err)
		}
	})
}

func TestService_UpdateItem(t *testing.T) {
	t.Run("sets absolute quantity", func(t *testing.T) {
		svc, _, _ := newTestService()
		ctx := context.Background()

		if _, err := svc.AddItem(ctx, "acct-1", "p1", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cart, err := svc.UpdateItem(ctx, "acct-1", "p1", 7)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cart.Lines[0].Quantity != 7 || cart.Subtotal != 700 || cart.TotalItems != 7 {
			t.Fatalf("expected qty 7 / subtotal 700, got %+v", cart)
		}
	})

	t.Run("insufficient stock leaves line unchanged", func(t *testing.T) {
		svc, store, _ := newTestService()
		ctx := context.Background()

		if _, err := svc.AddItem(ctx, "acct-1", "p2", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := svc.UpdateItem(ctx, "acct-1", "p2", 10)
		if !errors.Is(err, inventory.ErrInsufficientStock) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}

		cart, _ := store.GetByAccount(ctx, "acct-1")
		if cart.Lines[0].Quantity != 2 {
			t.Fatalf("expected quantity unchanged at 2, got %d", cart.Lines[0].Quantity)
		}
	})

	t.Run("missing line", func(t *testing.T) {
		svc, _, _ := newTestService()
		ctx := context.Background()

		if _, err := svc.AddItem(ctx, "acct-1", "p1", 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := svc.UpdateItem(ctx, "acct-1", "p2", 1)
		if !errors.Is(err, ErrItemNotFound) {
			t.Fatalf("expected item not found, got %v", err)
		}
	})

	t.Run("rejects quantity below 1 instead of removing", func(t *testing.T) {
		svc, store, _ := newTestService()
		ctx := context.Background()

		if _, err := svc.AddItem(ctx, "acct-1", "p1", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := svc.UpdateItem(ctx, "acct-1", "p1", 0)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("expected invalid quantity, got %v", err)
		}

		cart, _ := store.GetByAccount(ctx, "acct-1")
		if len(cart.Lines) != 1 {
			t.Fatalf("expected line to remain, got %d lines", len(cart.Lines))
		}
	})
}

func TestService_RemoveItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "acct-1", "p1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddItem(ctx, "acct-1", "p2", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart, err := svc.RemoveItem(ctx, "acct-1", "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ProductID != "p2" {
		t.Fatalf("expected only p2 left, got %+v", cart.Lines)
	}
	if cart.Subtotal != 250 || cart.TotalItems != 1 {
		t.Fatalf("expected subtotal 250 / items 1, got %d / %d", cart.Subtotal, cart.TotalItems)
	}

	_, err = svc.RemoveItem(ctx, "acct-1", "p1")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected item not found, got %v", err)
	}
}

func TestService_Clear(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "acct-1", "p1", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart, err := svc.Clear(ctx, "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Lines) != 0 || cart.Subtotal != 0 || cart.TotalItems != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}

	// Clearing again is a no-op, not an error.
	if _, err := svc.Clear(ctx, "acct-1"); err != nil {
		t.Fatalf("unexpected error on repeat clear: %v", err)
	}
}
