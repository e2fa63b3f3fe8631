package domain

// CartItem is a reference-shaped projection of a Product held in the cart.
// At most one entry per ProductID exists in a cart.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	PriceTon  float64 `json:"priceTon"`
	Category  string  `json:"category"`
	Image     string  `json:"image"`
}

// OrderItem projects the cart entry into an order line item.
func (c CartItem) OrderItem() OrderItem {
	return OrderItem{
		ProductID: c.ProductID,
		Name:      c.Name,
		PriceTon:  c.PriceTon,
		Image:     c.Image,
	}
}
