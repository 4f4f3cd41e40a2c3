package domain

// ProductSummary is the denormalized product view the server attaches to cart
// lines and wishlist entries. The client never computes or corrects these
// fields; price and stock are owned by the server and re-validated there on
// every mutation.
type ProductSummary struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	ImageURL string  `json:"image_url"`
}
