package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quantity limits for a single sale line.
const (
	MinItemQuantity = 1
	MaxItemQuantity = 20
)

var (
	tenPercent    = decimal.NewFromFloat(0.10)
	twentyPercent = decimal.NewFromFloat(0.20)
)

// SaleItem is one product line within a Sale.
type SaleItem struct {
	ID          string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal

	discount decimal.Decimal
}

// NewSaleItem builds an item and computes its discount.
func NewSaleItem(productID, productName string, quantity int, unitPrice decimal.Decimal) (SaleItem, error) {
	item := SaleItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}
	if err := item.ApplyDiscount(); err != nil {
		return SaleItem{}, err
	}
	return item, nil
}

// Discount returns the discount computed by the last ApplyDiscount call.
func (i SaleItem) Discount() decimal.Decimal {
	return i.discount
}

// Subtotal is unit price times quantity, before discount.
func (i SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalAmount is the line total after discount.
func (i SaleItem) TotalAmount() decimal.Decimal {
	return i.Subtotal().Sub(i.discount)
}

// ApplyDiscount recomputes the discount from the current quantity and unit price.
// It must be called again whenever either of them changes.
func (i *SaleItem) ApplyDiscount() error {
	d, err := CalculateDiscount(i.Quantity, i.UnitPrice)
	if err != nil {
		return err
	}
	i.discount = d
	return nil
}

// CalculateDiscount returns the quantity tiered discount for a line:
// nothing below 4 units, 10% from 4 to 9, 20% from 10 to 20.
func CalculateDiscount(quantity int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if quantity < MinItemQuantity || quantity > MaxItemQuantity {
		return decimal.Zero, ErrQuantityOutOfRange
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	switch {
	case quantity >= 10:
		return subtotal.Mul(twentyPercent), nil
	case quantity >= 4:
		return subtotal.Mul(tenPercent), nil
	default:
		return decimal.Zero, nil
	}
}

// Sale is the aggregate root for one transaction with a customer at a branch.
type Sale struct {
	ID         string
	SaleNumber string
	Customer   string
	Branch     string
	Items      []SaleItem

	saleDate  time.Time
	cancelled bool
}

// NewSale creates an active sale dated at the given time.
func NewSale(saleNumber, customer, branch string, items []SaleItem, saleDate time.Time) *Sale {
	return &Sale{
		SaleNumber: saleNumber,
		Customer:   customer,
		Branch:     branch,
		Items:      items,
		saleDate:   saleDate.UTC(),
	}
}

// SaleDate returns when the sale was made.
func (s *Sale) SaleDate() time.Time {
	return s.saleDate
}

// IsCancelled reports whether Cancel has been applied.
func (s *Sale) IsCancelled() bool {
	return s.cancelled
}

// TotalAmount sums the items' line totals. It is never cached.
func (s *Sale) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.TotalAmount())
	}
	return total
}

// Validate checks the aggregate level rules of the sale.
func (s *Sale) Validate() ValidationResult {
	return ValidateSale(s)
}

// Cancel moves the sale to the cancelled state.
// Returns ErrAlreadyCancelled if it was cancelled before.
func (s *Sale) Cancel() error {
	if s.cancelled {
		return ErrAlreadyCancelled
	}
	s.cancelled = true
	return nil
}

// clone returns a copy that shares no mutable state with s.
func (s *Sale) clone() *Sale {
	cp := *s
	cp.Items = append([]SaleItem(nil), s.Items...)
	return &cp
}
