package domain

// CartLine is one entry in the cart: one product and its quantity, as returned
// by the server. Quantity is at least 1; its upper bound is product stock,
// known only to the server.
type CartLine struct {
	ID         string         `json:"id"`
	ProductID  string         `json:"product_id"`
	Quantity   int            `json:"quantity"`
	Product    ProductSummary `json:"product"`
	TotalPrice float64        `json:"total_price"`
}

// Subtotal returns the line subtotal. The server-computed total_price is
// trusted when present; otherwise it is derived from the denormalized unit
// price.
func (l CartLine) Subtotal() float64 {
	if l.TotalPrice > 0 {
		return l.TotalPrice
	}
	return l.Product.Price * float64(l.Quantity)
}

// DistinctItemCount returns the number of lines in the cart, not the sum of
// quantities. The navbar badge shows distinct SKUs: two lines with quantities
// 5 and 1 count as 2.
func DistinctItemCount(lines []CartLine) int {
	return len(lines)
}
