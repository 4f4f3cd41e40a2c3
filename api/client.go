// Package api implements the storefront REST API boundary consumed by the
// caches: wishlist fetch/toggle, cart fetch/edits, checkout. Non-2xx
// responses are classified into AppError kinds at this boundary; in
// particular any 401 raises the distinguishable unauthorized kind and fires
// the registered session-teardown hook. The caches themselves never inspect
// raw HTTP responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kangmaup/storesync/domain"
	"github.com/kangmaup/storesync/pkg/httpclient"
	"github.com/kangmaup/storesync/pkg/validator"
)

// Doer abstracts the HTTP transport so the plain client and the
// circuit-breaker client are interchangeable.
type Doer interface {
	Get(ctx context.Context, url string) (*http.Response, error)
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
	Put(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
	Delete(ctx context.Context, url string) (*http.Response, error)
}

const contentTypeJSON = "application/json"

// Config holds the API client dependencies.
type Config struct {
	// Doer is the HTTP transport. Required.
	Doer Doer

	// BaseURL is the API root including the /api prefix,
	// e.g. "http://localhost:8080/api". Required.
	BaseURL string

	// Logger is used for boundary-level diagnostics. Required.
	Logger *slog.Logger

	// OnUnauthorized is invoked once per response that comes back 401,
	// regardless of which operation issued it. Wire session.Invalidate here.
	// Optional.
	OnUnauthorized func()
}

// Client is the storefront API client.
type Client struct {
	doer           Doer
	baseURL        string
	log            *slog.Logger
	onUnauthorized func()
}

// New creates an API client.
func New(cfg Config) *Client {
	return &Client{
		doer:           cfg.Doer,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		log:            cfg.Logger,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

type toggleWishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type wishlistResponse struct {
	Data []domain.WishlistEntry `json:"data"`
}

type cartResponse struct {
	Items []domain.CartLine `json:"items"`
}

// FetchWishlist retrieves the user's full wishlist.
// GET /wishlist → { data: [...] }
func (c *Client) FetchWishlist(ctx context.Context) ([]domain.WishlistEntry, error) {
	var out wishlistResponse
	if err := c.getJSON(ctx, "/wishlist", "fetch wishlist", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ToggleWishlist flips server-side membership of the given product. The
// request carries only the product id; the server decides add vs. remove from
// its own state.
// POST /wishlist/toggle { product_id }
func (c *Client) ToggleWishlist(ctx context.Context, productID string) error {
	req := toggleWishlistRequest{ProductID: productID}
	if err := validator.Validate(req); err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, "/wishlist/toggle", req, "toggle wishlist")
}

// FetchCart retrieves the user's full cart line list.
// GET /cart → { items: [...] }
func (c *Client) FetchCart(ctx context.Context) ([]domain.CartLine, error) {
	var out cartResponse
	if err := c.getJSON(ctx, "/cart", "fetch cart", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AddToCart adds a product with the given quantity to the server-side cart.
// POST /cart { product_id, quantity }
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) error {
	req := addToCartRequest{ProductID: productID, Quantity: quantity}
	if err := validator.Validate(req); err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, "/cart", req, "add to cart")
}

// UpdateCartItem sets the quantity of a cart line.
// PUT /cart/items/:itemId { quantity }
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) error {
	req := updateCartItemRequest{Quantity: quantity}
	if err := validator.Validate(req); err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, "/cart/items/"+itemID, req, "update cart item")
}

// RemoveCartItem deletes a cart line.
// DELETE /cart/items/:itemId
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.send(ctx, http.MethodDelete, "/cart/items/"+itemID, nil, "remove cart item")
}

// Checkout places an order from the current server-side cart. Success implies
// the cart is now empty server-side; callers must re-fetch the cart cache.
// POST /orders/checkout
func (c *Client) Checkout(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/orders/checkout", nil, "checkout")
}

// getJSON performs a GET and decodes the 2xx body into out.
func (c *Client) getJSON(ctx context.Context, path, operation string, out any) error {
	resp, err := c.doer.Get(ctx, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if !is2xx(resp.StatusCode) {
		return c.classify(resp, operation)
	}

	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	return nil
}

// send performs a mutation request. The body, if non-nil, is JSON-encoded.
// A 2xx response body is discarded; callers re-fetch to observe the result.
func (c *Client) send(ctx context.Context, method, path string, body any, operation string) error {
	url := c.baseURL + path

	var resp *http.Response
	var err error

	switch method {
	case http.MethodPost, http.MethodPut:
		payload := []byte("{}")
		if body != nil {
			payload, err = json.Marshal(body)
			if err != nil {
				return fmt.Errorf("%s: encode request: %w", operation, err)
			}
		}
		if method == http.MethodPost {
			resp, err = c.doer.Post(ctx, url, contentTypeJSON, bytes.NewReader(payload))
		} else {
			resp, err = c.doer.Put(ctx, url, contentTypeJSON, bytes.NewReader(payload))
		}
	case http.MethodDelete:
		resp, err = c.doer.Delete(ctx, url)
	default:
		return fmt.Errorf("%s: unsupported method %s", operation, method)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if !is2xx(resp.StatusCode) {
		return c.classify(resp, operation)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// classify maps a non-2xx response to an AppError and fires the
// session-teardown hook on 401. The hook runs before the error is returned so
// callers already observe the torn-down session.
func (c *Client) classify(resp *http.Response, operation string) error {
	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.log.Warn("unauthorized response, tearing down session",
			slog.String("operation", operation),
		)
		c.onUnauthorized()
	}
	return httpclient.ParseResponseError(resp, operation)
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
