package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one pending (user, product, quantity) record joined with the live product data.
type CartLine struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"-"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"image_url"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"-"`
}

// Subtotal is the live price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	UserID int64
	Lines  []CartLine
}

// Total sums the subtotals of all lines in fixed-point arithmetic.
func (c Cart) Total() decimal.Decimal {
	return SumLines(c.Lines)
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func SumLines(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
