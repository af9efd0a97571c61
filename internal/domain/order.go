package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is created exactly once per committed checkout and never mutated afterwards.
type Order struct {
	ID             int64           `json:"order_id"`
	UserID         int64           `json:"-"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	GatewayOrderID string          `json:"gateway_order_id"`
	PaymentRef     string          `json:"payment_id"`
	CreatedAt      time.Time       `json:"order_date"`
	Lines          []OrderLine     `json:"items"`
}

// OrderLine freezes the unit price a product was sold at.
type OrderLine struct {
	ID              int64           `json:"id"`
	OrderID         int64           `json:"-"`
	ProductID       int64           `json:"product_id"`
	Name            string          `json:"name,omitempty"`
	ImageURL        string          `json:"image_url,omitempty"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

func (l OrderLine) Amount() decimal.Decimal {
	return l.PriceAtPurchase.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal recomputes the order total from its lines.
func (o Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// NewOrderLines freezes the live cart prices into order lines.
func NewOrderLines(lines []CartLine) []OrderLine {
	out := make([]OrderLine, len(lines))
	for i, l := range lines {
		out[i] = OrderLine{
			ProductID:       l.ProductID,
			Name:            l.Name,
			ImageURL:        l.ImageURL,
			Quantity:        l.Quantity,
			PriceAtPurchase: l.Price,
		}
	}
	return out
}
