package store

import (
	"context"
	"log/slog"

	apperrors "github.com/kangmaup/storesync/pkg/errors"
	"github.com/kangmaup/storesync/pkg/logger"
)

// CartMutationAPI is the slice of the API boundary used by cart edits and
// checkout.
type CartMutationAPI interface {
	AddToCart(ctx context.Context, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, itemID string, quantity int) error
	RemoveCartItem(ctx context.Context, itemID string) error
	Checkout(ctx context.Context) error
}

// Mutator bundles the pessimistic cart flows used by UI surfaces: issue the
// server request, then explicitly re-fetch the shared cart cache. Nothing is
// applied locally before the server confirms, so a rejected edit needs no
// rollback; the attempted change is simply not reflected and the error is
// surfaced for a user-visible message.
type Mutator struct {
	api  CartMutationAPI
	cart *Cart
	log  *slog.Logger
}

// NewMutator creates a Mutator operating on the given shared cart cache.
func NewMutator(api CartMutationAPI, cart *Cart, log *slog.Logger) *Mutator {
	return &Mutator{api: api, cart: cart, log: log}
}

// AddToCart adds a product to the server-side cart and resynchronizes the
// cache. Quantity below 1 is rejected before any request is issued.
func (m *Mutator) AddToCart(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if err := m.api.AddToCart(ctx, productID, quantity); err != nil {
		logger.WithContext(ctx, m.log).WarnContext(ctx, "add to cart failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return err
	}
	m.cart.Fetch(ctx)
	return nil
}

// UpdateQuantity sets a cart line's quantity server-side and resynchronizes
// the cache. The stock ceiling is enforced by the server only.
func (m *Mutator) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	if err := m.api.UpdateCartItem(ctx, itemID, quantity); err != nil {
		logger.WithContext(ctx, m.log).WarnContext(ctx, "cart quantity update failed",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		return err
	}
	m.cart.Fetch(ctx)
	return nil
}

// RemoveLine removes a cart line server-side and resynchronizes the cache.
func (m *Mutator) RemoveLine(ctx context.Context, itemID string) error {
	if err := m.api.RemoveCartItem(ctx, itemID); err != nil {
		logger.WithContext(ctx, m.log).WarnContext(ctx, "cart line removal failed",
			slog.String("item_id", itemID),
			slog.String("error", err.Error()),
		)
		return err
	}
	m.cart.Fetch(ctx)
	return nil
}

// Checkout places the order. Success implies the cart is now empty
// server-side, so the cache is re-fetched rather than assumed clear. On
// failure the cart is left as-is for retry and the error is returned for a
// user-visible message.
func (m *Mutator) Checkout(ctx context.Context) error {
	if err := m.api.Checkout(ctx); err != nil {
		logger.WithContext(ctx, m.log).WarnContext(ctx, "checkout failed",
			slog.String("error", err.Error()),
		)
		return err
	}
	m.cart.Fetch(ctx)
	return nil
}
