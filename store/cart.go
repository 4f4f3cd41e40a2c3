package store

import (
	"context"
	"log/slog"

	"github.com/kangmaup/storesync/domain"
	"github.com/kangmaup/storesync/pkg/logger"
)

// CartAPI is the slice of the API boundary the cart cache consumes.
type CartAPI interface {
	FetchCart(ctx context.Context) ([]domain.CartLine, error)
}

// AuthState is the external auth-state collaborator the cart cache consults
// before fetching. *session.Session satisfies it.
type AuthState interface {
	Authenticated() bool
}

// CartState is the published state of the cart cache: the server-ordered line
// list, the derived distinct-line count shown on the navbar badge, and a
// loading flag. Lines are replaced wholesale on every fetch; there are no
// partial or merge semantics.
type CartState struct {
	Lines         []domain.CartLine
	DistinctCount int
	Loading       bool
}

// Cart is the shared cart contents cache: a read-mostly mirror of server
// state. It is never the source of truth for price or stock. Unlike the
// wishlist it carries no optimistic mutations; UI surfaces issue cart edits
// directly against the API and then call Fetch to resynchronize, because cart
// correctness (price, stock ceiling) depends on server-side validation the
// client cannot predict.
type Cart struct {
	api  CartAPI
	auth AuthState
	log  *slog.Logger

	state *Store[CartState]
}

// NewCart creates an empty, non-loading cart cache.
func NewCart(api CartAPI, auth AuthState, log *slog.Logger) *Cart {
	return &Cart{
		api:   api,
		auth:  auth,
		log:   log,
		state: NewStore(CartState{}),
	}
}

// State returns the current published state.
func (c *Cart) State() CartState {
	return c.state.Get()
}

// Subscribe attaches an observer to the cache. See Store.Subscribe.
func (c *Cart) Subscribe() (<-chan CartState, func()) {
	return c.state.Subscribe()
}

// Lines returns the current line list.
func (c *Cart) Lines() []domain.CartLine {
	return c.state.Get().Lines
}

// DistinctCount returns the badge count: number of lines, not sum of
// quantities.
func (c *Cart) DistinctCount() int {
	return c.state.Get().DistinctCount
}

// Fetch requests the full cart from the server and replaces the cached lines
// and derived count wholesale. It is a no-op when the session is
// unauthenticated. On failure the cache resets to an empty cart rather than
// keeping stale lines, and the error is only logged; read failures degrade
// silently.
func (c *Cart) Fetch(ctx context.Context) {
	if !c.auth.Authenticated() {
		return
	}

	c.state.update(func(st CartState) CartState {
		st.Loading = true
		return st
	})

	lines, err := c.api.FetchCart(ctx)
	if err != nil {
		fetchTotal.WithLabelValues("cart", resultError).Inc()
		logger.WithContext(ctx, c.log).ErrorContext(ctx, "failed to fetch cart",
			slog.String("error", err.Error()),
		)
		// Fail-safe-empty: never show a list the server no longer vouches for.
		c.state.set(CartState{})
		cartBadgeCount.Set(0)
		return
	}

	fetchTotal.WithLabelValues("cart", resultOK).Inc()
	c.state.set(CartState{
		Lines:         lines,
		DistinctCount: domain.DistinctItemCount(lines),
	})
	cartBadgeCount.Set(float64(len(lines)))
}

// Reset clears the cart cache. Registered as the clear-on-logout hook.
func (c *Cart) Reset() {
	c.state.set(CartState{})
	cartBadgeCount.Set(0)
}
