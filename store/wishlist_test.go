package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kangmaup/storesync/domain"
	apperrors "github.com/kangmaup/storesync/pkg/errors"
)

// --- Stub API ---

// stubWishlistAPI lets tests control fetch/toggle behavior per call, including
// blocking a toggle mid-flight to observe optimistic state.
type stubWishlistAPI struct {
	mu          sync.Mutex
	fetchFn     func(ctx context.Context) ([]domain.WishlistEntry, error)
	toggleFn    func(ctx context.Context, productID string) error
	toggleCalls []string
}

func (s *stubWishlistAPI) FetchWishlist(ctx context.Context) ([]domain.WishlistEntry, error) {
	if s.fetchFn != nil {
		return s.fetchFn(ctx)
	}
	return nil, nil
}

func (s *stubWishlistAPI) ToggleWishlist(ctx context.Context, productID string) error {
	s.mu.Lock()
	s.toggleCalls = append(s.toggleCalls, productID)
	s.mu.Unlock()
	if s.toggleFn != nil {
		return s.toggleFn(ctx, productID)
	}
	return nil
}

func (s *stubWishlistAPI) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.toggleCalls))
	copy(out, s.toggleCalls)
	return out
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func entries(productIDs ...string) []domain.WishlistEntry {
	out := make([]domain.WishlistEntry, 0, len(productIDs))
	for _, id := range productIDs {
		out = append(out, domain.WishlistEntry{ID: "w-" + id, ProductID: id})
	}
	return out
}

// --- Tests ---

func TestWishlistFetch_ReplacesSetWholesale(t *testing.T) {
	api := &stubWishlistAPI{
		fetchFn: func(ctx context.Context) ([]domain.WishlistEntry, error) {
			return entries("p1", "p2"), nil
		},
	}
	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	w.Fetch(ctx)

	assert.True(t, w.Contains("p1"))
	assert.True(t, w.Contains("p2"))
	assert.False(t, w.Contains("p3"))
	assert.False(t, w.State().Loading)

	// Second fetch returns a different set; the old one is gone entirely.
	api.fetchFn = func(ctx context.Context) ([]domain.WishlistEntry, error) {
		return entries("p3"), nil
	}
	w.Fetch(ctx)

	assert.False(t, w.Contains("p1"))
	assert.True(t, w.Contains("p3"))
}

func TestWishlistFetch_FailureKeepsPreviousSet(t *testing.T) {
	api := &stubWishlistAPI{
		fetchFn: func(ctx context.Context) ([]domain.WishlistEntry, error) {
			return entries("p1"), nil
		},
	}
	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	w.Fetch(ctx)
	require.True(t, w.Contains("p1"))

	api.fetchFn = func(ctx context.Context) ([]domain.WishlistEntry, error) {
		return nil, errors.New("network down")
	}
	w.Fetch(ctx)

	assert.True(t, w.Contains("p1"), "previous set must survive a failed fetch")
	assert.False(t, w.State().Loading, "loading flag must clear on failure")
}

func TestWishlistToggle_OptimisticVisibility(t *testing.T) {
	api := &stubWishlistAPI{}
	w := NewWishlist(api, newTestLogger())

	// The flipped value must be visible before the network call resolves.
	api.toggleFn = func(ctx context.Context, productID string) error {
		assert.True(t, w.Contains("p1"), "flip must be published before the request settles")
		return nil
	}

	err := w.Toggle(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, w.Contains("p1"))
}

func TestWishlistToggle_Involution(t *testing.T) {
	api := &stubWishlistAPI{}
	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	require.False(t, w.Contains("p1"))

	require.NoError(t, w.Toggle(ctx, "p1"))
	assert.True(t, w.Contains("p1"))

	require.NoError(t, w.Toggle(ctx, "p1"))
	assert.False(t, w.Contains("p1"), "two settled toggles must return membership to its original state")

	assert.Equal(t, []string{"p1", "p1"}, api.calls())
}

func TestWishlistToggle_RollbackOnRejection(t *testing.T) {
	api := &stubWishlistAPI{
		fetchFn: func(ctx context.Context) ([]domain.WishlistEntry, error) {
			return entries("p2"), nil
		},
		toggleFn: func(ctx context.Context, productID string) error {
			return errors.New("server said no")
		},
	}
	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	w.Fetch(ctx)

	err := w.Toggle(ctx, "p1")
	require.Error(t, err)

	assert.False(t, w.Contains("p1"), "membership must equal its pre-toggle value after rollback")
	assert.True(t, w.Contains("p2"), "no other product's membership may change")
}

func TestWishlistToggle_RollbackOfRemoval(t *testing.T) {
	api := &stubWishlistAPI{
		fetchFn: func(ctx context.Context) ([]domain.WishlistEntry, error) {
			return entries("p1"), nil
		},
		toggleFn: func(ctx context.Context, productID string) error {
			return errors.New("server said no")
		},
	}
	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	w.Fetch(ctx)
	require.True(t, w.Contains("p1"))

	err := w.Toggle(ctx, "p1")
	require.Error(t, err)

	assert.True(t, w.Contains("p1"), "a rejected removal must restore membership")
}

func TestWishlistToggle_EmptyProductID(t *testing.T) {
	api := &stubWishlistAPI{}
	w := NewWishlist(api, newTestLogger())

	err := w.Toggle(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Empty(t, api.calls(), "no request may be issued for invalid input")
}

func TestWishlistToggle_SerializesSameProduct(t *testing.T) {
	firstInFlight := make(chan struct{})
	releaseFirst := make(chan struct{})

	var calls int
	var mu sync.Mutex

	api := &stubWishlistAPI{}
	api.toggleFn = func(ctx context.Context, productID string) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstInFlight)
			<-releaseFirst
		}
		return nil
	}

	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	done1 := make(chan error, 1)
	go func() { done1 <- w.Toggle(ctx, "p1") }()
	<-firstInFlight

	done2 := make(chan error, 1)
	go func() { done2 <- w.Toggle(ctx, "p1") }()

	// The second toggle must not reach the API while the first is pending.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	close(releaseFirst)
	require.NoError(t, <-done1)
	require.NoError(t, <-done2)

	// Both settled; net effect of two settled toggles is the original state.
	assert.False(t, w.Contains("p1"))
	assert.Len(t, api.calls(), 2)
}

func TestWishlistToggle_DifferentProductsProceedIndependently(t *testing.T) {
	blockP1 := make(chan struct{})
	api := &stubWishlistAPI{}
	api.toggleFn = func(ctx context.Context, productID string) error {
		if productID == "p1" {
			<-blockP1
		}
		return nil
	}

	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- w.Toggle(ctx, "p1") }()

	// p2 settles while p1 is still in flight.
	require.NoError(t, w.Toggle(ctx, "p2"))
	assert.True(t, w.Contains("p2"))

	close(blockP1)
	require.NoError(t, <-done)
	assert.True(t, w.Contains("p1"))
}

func TestWishlist_SharedVisibilityAcrossObservers(t *testing.T) {
	api := &stubWishlistAPI{}
	w := NewWishlist(api, newTestLogger())
	ctx := context.Background()

	navbar, cancelNavbar := w.Subscribe()
	defer cancelNavbar()
	card, cancelCard := w.Subscribe()
	defer cancelCard()
	<-navbar
	<-card

	require.NoError(t, w.Toggle(ctx, "p1"))

	stNavbar := <-navbar
	stCard := <-card
	assert.True(t, stNavbar.Contains("p1"))
	assert.True(t, stCard.Contains("p1"))

	// A surface mounting after the mutation settled sees the current state.
	late, cancelLate := w.Subscribe()
	defer cancelLate()
	assert.True(t, (<-late).Contains("p1"))
}

func TestWishlistReset_ClearsMembership(t *testing.T) {
	api := &stubWishlistAPI{
		fetchFn: func(ctx context.Context) ([]domain.WishlistEntry, error) {
			return entries("p1", "p2"), nil
		},
	}
	w := NewWishlist(api, newTestLogger())

	w.Fetch(context.Background())
	require.Equal(t, 2, w.State().Count())

	w.Reset()

	assert.Equal(t, 0, w.State().Count())
	assert.False(t, w.Contains("p1"))
}
