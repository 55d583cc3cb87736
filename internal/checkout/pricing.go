package checkout

import (
	"context"

	"github.com/oakmart/storefront/internal/domain"
)

// Quote carries the order-level amounts added on top of the cart subtotal.
type Quote struct {
	Shipping int64
	Tax      int64
	Discount int64
}

// Pricer computes shipping, tax and discount for a cart between validation
// and order creation. Swapping in a real implementation does not touch the
// rest of the pipeline.
type Pricer interface {
	Quote(ctx context.Context, cart *domain.Cart) (Quote, error)
}

// FlatPricer is the current stub: free shipping, no tax, no discounts.
type FlatPricer struct{}

func (FlatPricer) Quote(ctx context.Context, cart *domain.Cart) (Quote, error) {
	return Quote{}, nil
}
