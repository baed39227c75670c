package cart

// Line is one cart row joined with its current product record.
type Line struct {
	ProductID      int64
	Name           string
	Unit           string
	Quantity       int
	PriceCents     int64
	LineTotalCents int64
}

// Contents is a priced cart ready for rendering or checkout.
type Contents struct {
	Lines      []Line
	TotalCents int64
}

// Empty reports whether the cart holds no purchasable lines.
func (c Contents) Empty() bool {
	return len(c.Lines) == 0
}
