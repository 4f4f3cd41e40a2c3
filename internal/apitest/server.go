// Package apitest provides an in-process fake of the storefront API for tests
// and the demo command. It implements the same routes, envelopes and error
// bodies as the real backend over in-memory state, with switches to inject
// failures and unauthorized responses.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kangmaup/storesync/domain"
)

// Server is a fake storefront API scoped to a single session.
type Server struct {
	mu sync.Mutex

	products map[string]domain.ProductSummary
	wishlist map[string]struct{}
	cart     []domain.CartLine

	unauthorized bool
	failWishlist bool
	failToggle   bool
	failCart     bool
	failCheckout bool

	requests map[string]int

	httpServer *httptest.Server
}

// New starts a fake storefront API on a random local port.
func New() *Server {
	s := &Server{
		products: make(map[string]domain.ProductSummary),
		wishlist: make(map[string]struct{}),
		requests: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/wishlist", s.handleGetWishlist)
		r.Post("/wishlist/toggle", s.handleToggleWishlist)
		r.Get("/cart", s.handleGetCart)
		r.Post("/cart", s.handleAddToCart)
		r.Put("/cart/items/{itemID}", s.handleUpdateCartItem)
		r.Delete("/cart/items/{itemID}", s.handleRemoveCartItem)
		r.Post("/orders/checkout", s.handleCheckout)
	})

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL returns the API base URL including the /api prefix.
func (s *Server) URL() string {
	return s.httpServer.URL + "/api"
}

// Close shuts the fake server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// SeedProduct registers a product in the fake catalog.
func (s *Server) SeedProduct(p domain.ProductSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedWishlist marks products as wishlisted server-side.
func (s *Server) SeedWishlist(productIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range productIDs {
		s.wishlist[id] = struct{}{}
	}
}

// WishlistHas reports server-side membership.
func (s *Server) WishlistHas(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.wishlist[productID]
	return ok
}

// CartLines returns a copy of the server-side cart.
func (s *Server) CartLines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

// Requests returns how many times the given route key was hit,
// e.g. "GET /api/cart" or "POST /api/wishlist/toggle".
func (s *Server) Requests(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[key]
}

// SetUnauthorized makes every route answer 401.
func (s *Server) SetUnauthorized(v bool) { s.setFlag(&s.unauthorized, v) }

// SetFailWishlist makes GET /wishlist answer 500.
func (s *Server) SetFailWishlist(v bool) { s.setFlag(&s.failWishlist, v) }

// SetFailToggle makes POST /wishlist/toggle answer 500.
func (s *Server) SetFailToggle(v bool) { s.setFlag(&s.failToggle, v) }

// SetFailCart makes GET /cart answer 500.
func (s *Server) SetFailCart(v bool) { s.setFlag(&s.failCart, v) }

// SetFailCheckout makes POST /orders/checkout answer 422.
func (s *Server) SetFailCheckout(v bool) { s.setFlag(&s.failCheckout, v) }

func (s *Server) setFlag(flag *bool, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*flag = v
}

func (s *Server) record(r *http.Request) {
	s.requests[r.Method+" "+r.URL.Path] = s.requests[r.Method+" "+r.URL.Path] + 1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleGetWishlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.failWishlist {
		writeError(w, http.StatusInternalServerError, "wishlist unavailable")
		return
	}

	entries := make([]domain.WishlistEntry, 0, len(s.wishlist))
	for id := range s.wishlist {
		entries = append(entries, domain.WishlistEntry{
			ID:        uuid.NewString(),
			ProductID: id,
			Product:   s.products[id],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (s *Server) handleToggleWishlist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.failToggle {
		writeError(w, http.StatusInternalServerError, "toggle failed")
		return
	}

	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	// The server decides direction from its own state.
	if _, ok := s.wishlist[req.ProductID]; ok {
		delete(s.wishlist, req.ProductID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
		return
	}
	s.wishlist[req.ProductID] = struct{}{}
	writeJSON(w, http.StatusOK, map[string]string{"message": "added"})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.failCart {
		writeError(w, http.StatusInternalServerError, "cart unavailable")
		return
	}

	items := make([]domain.CartLine, len(s.cart))
	copy(items, s.cart)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	product, ok := s.products[req.ProductID]
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	// Merge with an existing line for the same product.
	for i := range s.cart {
		if s.cart[i].ProductID == req.ProductID {
			newQty := s.cart[i].Quantity + req.Quantity
			if newQty > product.Stock {
				writeError(w, http.StatusBadRequest, "insufficient stock")
				return
			}
			s.cart[i].Quantity = newQty
			s.cart[i].TotalPrice = product.Price * float64(newQty)
			writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
			return
		}
	}

	if req.Quantity > product.Stock {
		writeError(w, http.StatusBadRequest, "insufficient stock")
		return
	}
	s.cart = append(s.cart, domain.CartLine{
		ID:         uuid.NewString(),
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Product:    product,
		TotalPrice: product.Price * float64(req.Quantity),
	})
	writeJSON(w, http.StatusCreated, map[string]string{"message": "added"})
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	for i := range s.cart {
		if s.cart[i].ID == itemID {
			product := s.products[s.cart[i].ProductID]
			if req.Quantity > product.Stock {
				writeError(w, http.StatusBadRequest, "insufficient stock")
				return
			}
			s.cart[i].Quantity = req.Quantity
			s.cart[i].TotalPrice = product.Price * float64(req.Quantity)
			writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	for i := range s.cart {
		if s.cart[i].ID == itemID {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "removed"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "cart item not found")
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(r)

	if s.unauthorized {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.failCheckout {
		writeError(w, http.StatusUnprocessableEntity, "payment declined")
		return
	}
	if len(s.cart) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "cart is empty")
		return
	}

	s.cart = nil
	writeJSON(w, http.StatusCreated, map[string]string{"order_id": uuid.NewString()})
}
