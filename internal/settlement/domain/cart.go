package domain

import "errors"

var (
	ErrEmptyCart    = errors.New("cart has no lines")
	ErrInvalidLine  = errors.New("cart line has non-positive price or quantity")
	ErrInvalidTotal = errors.New("order total does not match its parts")
)

// CartLine is one product line in the checkout snapshot. Name and price
// are captured at checkout start; catalog edits after that point do not
// reach the settlement pipeline.
type CartLine struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   int64  `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

// Cart is the immutable line-item snapshot taken at checkout start.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func (c Cart) Validate() error {
	if len(c.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, l := range c.Lines {
		if l.UnitPrice <= 0 || l.Quantity <= 0 {
			return ErrInvalidLine
		}
	}
	return nil
}

func (c Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

// Pricing carries the storefront's checkout pricing rules.
type Pricing struct {
	ShippingFlat    int64
	FreeShippingMin int64
	TaxRateBps      int64
}

// Quote is a priced cart. TotalAmount always equals
// subtotal + shipping + tax - discount by construction.
type Quote struct {
	Subtotal       int64
	ShippingCost   int64
	TaxAmount      int64
	DiscountAmount int64
	TotalAmount    int64
}

// PriceCart prices a cart snapshot in minor units. Shipping is waived
// once the subtotal reaches the free-shipping threshold.
func PriceCart(c Cart, p Pricing, discount int64) (Quote, error) {
	if err := c.Validate(); err != nil {
		return Quote{}, err
	}
	if discount < 0 {
		return Quote{}, ErrInvalidTotal
	}

	subtotal := c.Subtotal()
	shipping := p.ShippingFlat
	if p.FreeShippingMin > 0 && subtotal >= p.FreeShippingMin {
		shipping = 0
	}
	tax := TaxFor(subtotal, p.TaxRateBps)
	total := subtotal + shipping + tax - discount
	if total <= 0 {
		return Quote{}, ErrInvalidTotal
	}

	return Quote{
		Subtotal:       subtotal,
		ShippingCost:   shipping,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    total,
	}, nil
}
