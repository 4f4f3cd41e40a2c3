package api

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kangmaup/storesync/domain"
	"github.com/kangmaup/storesync/internal/apitest"
	apperrors "github.com/kangmaup/storesync/pkg/errors"
	"github.com/kangmaup/storesync/pkg/httpclient"
	"github.com/kangmaup/storesync/pkg/validator"
)

// --- Test Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T) (*apitest.Server, *Client, *int) {
	t.Helper()

	server := apitest.New()
	t.Cleanup(server.Close)

	var unauthorized int
	client := New(Config{
		Doer: httpclient.New(httpclient.Config{
			Timeout:         5 * time.Second,
			MaxRetries:      0,
			MaxConnsPerHost: 10,
		}),
		BaseURL:        server.URL(),
		Logger:         testLogger(),
		OnUnauthorized: func() { unauthorized++ },
	})
	return server, client, &unauthorized
}

func seedProduct(server *apitest.Server, id string, stock int) {
	server.SeedProduct(domain.ProductSummary{
		ID:    id,
		Name:  "Product " + id,
		Slug:  "product-" + id,
		Price: 25000,
		Stock: stock,
	})
}

// --- Tests ---

func TestFetchWishlist_ReturnsEntries(t *testing.T) {
	server, client, _ := newFixture(t)
	seedProduct(server, "p1", 10)
	server.SeedWishlist("p1")

	entries, err := client.FetchWishlist(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "p1", entries[0].ProductID)
	assert.Equal(t, "Product p1", entries[0].Product.Name)
}

func TestToggleWishlist_ServerDecidesDirection(t *testing.T) {
	server, client, _ := newFixture(t)
	ctx := context.Background()

	// The request carries only the product id; add vs. remove comes from
	// server state.
	require.NoError(t, client.ToggleWishlist(ctx, "p1"))
	assert.True(t, server.WishlistHas("p1"))

	require.NoError(t, client.ToggleWishlist(ctx, "p1"))
	assert.False(t, server.WishlistHas("p1"))
}

func TestToggleWishlist_ValidatesBeforeNetwork(t *testing.T) {
	server, client, _ := newFixture(t)

	err := client.ToggleWishlist(context.Background(), "")
	require.Error(t, err)

	var vErr *validator.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, server.Requests("POST /api/wishlist/toggle"), "no request may be issued for invalid input")
}

func TestCartRoundTrip(t *testing.T) {
	server, client, _ := newFixture(t)
	seedProduct(server, "p1", 10)
	seedProduct(server, "p2", 5)
	ctx := context.Background()

	require.NoError(t, client.AddToCart(ctx, "p1", 2))
	require.NoError(t, client.AddToCart(ctx, "p2", 1))

	items, err := client.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, float64(50000), items[0].TotalPrice)

	// Update the first line's quantity.
	require.NoError(t, client.UpdateCartItem(ctx, items[0].ID, 4))
	items, err = client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, items[0].Quantity)

	// Remove the second line.
	require.NoError(t, client.RemoveCartItem(ctx, items[1].ID))
	items, err = client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddToCart_ValidatesBeforeNetwork(t *testing.T) {
	server, client, _ := newFixture(t)

	err := client.AddToCart(context.Background(), "p1", 0)
	require.Error(t, err)

	var vErr *validator.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Zero(t, server.Requests("POST /api/cart"))
}

func TestAddToCart_InsufficientStock(t *testing.T) {
	server, client, _ := newFixture(t)
	seedProduct(server, "p1", 3)

	err := client.AddToCart(context.Background(), "p1", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCheckout_ClearsServerCart(t *testing.T) {
	server, client, _ := newFixture(t)
	seedProduct(server, "p1", 10)
	ctx := context.Background()

	require.NoError(t, client.AddToCart(ctx, "p1", 2))
	require.NoError(t, client.Checkout(ctx))

	items, err := client.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "success implies the cart is now empty server-side")
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	_, client, _ := newFixture(t)

	err := client.Checkout(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrCheckoutRejected)
}

func TestUnauthorized_FiresHookAndClassifies(t *testing.T) {
	server, client, unauthorized := newFixture(t)
	server.SetUnauthorized(true)
	ctx := context.Background()

	_, err := client.FetchCart(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 1, *unauthorized)

	// The hook fires regardless of which operation saw the 401.
	err = client.ToggleWishlist(ctx, "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 2, *unauthorized)
}

func TestServerError_DoesNotFireUnauthorizedHook(t *testing.T) {
	server, client, unauthorized := newFixture(t)
	server.SetFailCart(true)

	_, err := client.FetchCart(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Zero(t, *unauthorized)
}
