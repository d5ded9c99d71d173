package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleCommand is the input of Service.CreateSale.
// SaleNumber is optional; one is generated when empty. The validate tags
// mirror the column sizes of the sales schema.
type CreateSaleCommand struct {
	SaleNumber string           `json:"sale_number" validate:"max=50"`
	Customer   string           `json:"customer" validate:"notblank,max=100"`
	Branch     string           `json:"branch" validate:"notblank,max=100"`
	Items      []CreateSaleItem `json:"items" validate:"required,min=1,dive"`
}

// CreateSaleItem is one requested product line.
type CreateSaleItem struct {
	ProductID   string          `json:"product_id" validate:"notblank,max=64"`
	ProductName string          `json:"product_name" validate:"notblank,max=100"`
	Quantity    int             `json:"quantity" validate:"min=1,max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gt0,money_scale,money_max"`
}

// SaleItemResult is the read projection of a SaleItem.
type SaleItemResult struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// SaleResult is the read projection of a Sale returned by every handler.
type SaleResult struct {
	ID          string           `json:"id"`
	SaleNumber  string           `json:"sale_number"`
	SaleDate    time.Time        `json:"sale_date"`
	Customer    string           `json:"customer"`
	Branch      string           `json:"branch"`
	IsCancelled bool             `json:"is_cancelled"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Items       []SaleItemResult `json:"items"`
}

// NewSaleResult projects a sale, computing totals at call time.
func NewSaleResult(s *Sale) SaleResult {
	res := SaleResult{
		ID:          s.ID,
		SaleNumber:  s.SaleNumber,
		SaleDate:    s.SaleDate(),
		Customer:    s.Customer,
		Branch:      s.Branch,
		IsCancelled: s.IsCancelled(),
		TotalAmount: s.TotalAmount(),
		Items:       make([]SaleItemResult, 0, len(s.Items)),
	}
	for _, item := range s.Items {
		res.Items = append(res.Items, SaleItemResult{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount(),
			TotalAmount: item.TotalAmount(),
		})
	}
	return res
}
