package cart

import "github.com/shopspring/decimal"

type Item struct {
	ID        int64
	ProductID int64
	Quantity  int64
	Amount    decimal.Decimal
}

type DetailedItem struct {
	Item
	ProductName  string
	ProductPrice decimal.Decimal
}

type Cart struct {
	ID     int64
	UserID int64
	Items  []DetailedItem
}

// Total sums the line amounts.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Amount)
	}
	return total
}

// LineAmount is the only way a cart line amount is derived.
func LineAmount(price decimal.Decimal, quantity int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity))
}
