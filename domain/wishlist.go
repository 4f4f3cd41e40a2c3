package domain

// WishlistEntry is one row of the user's wishlist as returned by the server.
// The membership cache only keeps the product ids; the full entry shape exists
// so the wishlist page can render without a second fetch.
type WishlistEntry struct {
	ID        string         `json:"id"`
	ProductID string         `json:"product_id"`
	Product   ProductSummary `json:"product"`
}

// ProductIDs extracts the product id set from a fetched wishlist.
func ProductIDs(entries []WishlistEntry) map[string]struct{} {
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ProductID] = struct{}{}
	}
	return ids
}
