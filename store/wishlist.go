package store

import (
	"context"
	"log/slog"

	"github.com/kangmaup/storesync/domain"
	apperrors "github.com/kangmaup/storesync/pkg/errors"
	"github.com/kangmaup/storesync/pkg/logger"
)

// WishlistAPI is the slice of the API boundary the wishlist cache consumes.
type WishlistAPI interface {
	FetchWishlist(ctx context.Context) ([]domain.WishlistEntry, error)
	ToggleWishlist(ctx context.Context, productID string) error
}

// WishlistState is the published state of the membership cache: the set of
// wishlisted product ids plus a loading flag. The IDs map is replaced, never
// mutated in place, so a published state is safe to read concurrently.
type WishlistState struct {
	IDs     map[string]struct{}
	Loading bool
}

// Contains reports membership of the given product id.
func (s WishlistState) Contains(productID string) bool {
	_, ok := s.IDs[productID]
	return ok
}

// Count returns the number of wishlisted products.
func (s WishlistState) Count() int {
	return len(s.IDs)
}

// Wishlist is the shared membership cache. It applies toggles optimistically:
// the local flip is published before the server request is issued, the server
// response is trusted as final on success, and the exact inverse flip is
// applied on rejection. Toggles on the same product id are serialized, so the
// set converges to the net effect of all settled requests for that key.
// Toggles on different ids proceed independently.
type Wishlist struct {
	api  WishlistAPI
	log  *slog.Logger
	keys *keyLocks

	state *Store[WishlistState]
}

// NewWishlist creates an empty, non-loading membership cache.
func NewWishlist(api WishlistAPI, log *slog.Logger) *Wishlist {
	return &Wishlist{
		api:  api,
		log:  log,
		keys: newKeyLocks(),
		state: NewStore(WishlistState{
			IDs: map[string]struct{}{},
		}),
	}
}

// State returns the current published state.
func (w *Wishlist) State() WishlistState {
	return w.state.Get()
}

// Subscribe attaches an observer to the cache. See Store.Subscribe.
func (w *Wishlist) Subscribe() (<-chan WishlistState, func()) {
	return w.state.Subscribe()
}

// Contains is an O(1) side-effect-free membership test against the current
// set, safe to call during render.
func (w *Wishlist) Contains(productID string) bool {
	return w.state.Get().Contains(productID)
}

// Fetch requests the full wishlist from the server and replaces the local
// membership set wholesale. On failure the previous set is left intact and
// the error is only logged; callers render their own empty-state fallback.
// The loading flag is cleared on both paths. There is no retry.
func (w *Wishlist) Fetch(ctx context.Context) {
	w.state.update(func(st WishlistState) WishlistState {
		st.Loading = true
		return st
	})

	entries, err := w.api.FetchWishlist(ctx)
	if err != nil {
		fetchTotal.WithLabelValues("wishlist", resultError).Inc()
		logger.WithContext(ctx, w.log).ErrorContext(ctx, "failed to fetch wishlist",
			slog.String("error", err.Error()),
		)
		w.state.update(func(st WishlistState) WishlistState {
			st.Loading = false
			return st
		})
		return
	}

	fetchTotal.WithLabelValues("wishlist", resultOK).Inc()
	w.state.set(WishlistState{IDs: domain.ProductIDs(entries)})
}

// Toggle flips membership of the given product id optimistically, then issues
// a single toggle request. The server independently decides add vs. remove
// from its own state, mirroring the local flip. On success the optimistic
// state is trusted as final; reconciliation with server truth happens on the
// next full Fetch. On failure the inverse flip is applied against the current
// set and the error is returned to the caller.
func (w *Wishlist) Toggle(ctx context.Context, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	// Serialize settles per product id. When no toggle for this id is
	// pending the lock is free and the flip below is immediate.
	release := w.keys.acquire(productID)
	defer release()

	var added bool
	w.state.update(func(st WishlistState) WishlistState {
		ids := cloneIDs(st.IDs)
		if _, ok := ids[productID]; ok {
			delete(ids, productID)
			added = false
		} else {
			ids[productID] = struct{}{}
			added = true
		}
		st.IDs = ids
		return st
	})

	if err := w.api.ToggleWishlist(ctx, productID); err != nil {
		// Inverse flip, computed against the current set at rollback time.
		w.state.update(func(st WishlistState) WishlistState {
			ids := cloneIDs(st.IDs)
			if added {
				delete(ids, productID)
			} else {
				ids[productID] = struct{}{}
			}
			st.IDs = ids
			return st
		})

		rollbackTotal.Inc()
		toggleTotal.WithLabelValues(resultError).Inc()
		logger.WithContext(ctx, w.log).WarnContext(ctx, "wishlist toggle rejected, rolled back",
			slog.String("product_id", productID),
			slog.Bool("was_add", added),
			slog.String("error", err.Error()),
		)
		return err
	}

	toggleTotal.WithLabelValues(resultOK).Inc()
	return nil
}

// Reset clears the membership set. Registered as the clear-on-logout hook.
func (w *Wishlist) Reset() {
	w.state.set(WishlistState{IDs: map[string]struct{}{}})
}

func cloneIDs(ids map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for id := range ids {
		out[id] = struct{}{}
	}
	return out
}
