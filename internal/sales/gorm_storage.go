package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type saleRecord struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)"`
	SaleNumber  string           `gorm:"size:50;not null"`
	SaleDate    time.Time        `gorm:"not null;index"`
	Customer    string           `gorm:"size:100;not null"`
	Branch      string           `gorm:"size:100;not null"`
	IsCancelled bool             `gorm:"not null;default:false"`
	Items       []saleItemRecord `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

func (saleRecord) TableName() string { return "sales" }

type saleItemRecord struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	SaleID      string          `gorm:"type:varchar(36);not null;index"`
	Position    int             `gorm:"not null"`
	ProductID   string          `gorm:"size:64;not null"`
	ProductName string          `gorm:"size:100;not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (saleItemRecord) TableName() string { return "sale_items" }

// GormStorage persists sales in a relational database through gorm.
type GormStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStorage migrates the sales schema and returns the storage.
func NewGormStorage(db *gorm.DB, logger *zap.Logger) (*GormStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&saleRecord{}, &saleItemRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sales schema: %w", err)
	}
	return &GormStorage{db: db, logger: logger.With(zap.String("storage", "gorm"))}, nil
}

func (g *GormStorage) Create(ctx context.Context, sale *Sale) (*Sale, error) {
	created := sale.clone()
	assignIDs(created)
	rec := toRecord(created)

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (g *GormStorage) Read(ctx context.Context, id string) (*Sale, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	var rec saleRecord
	err := g.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("id = ?", id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

func (g *GormStorage) GetAll(ctx context.Context) ([]*Sale, error) {
	var recs []saleRecord
	if err := g.db.WithContext(ctx).
		Preload("Items", orderItems).
		Order("sale_date ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}

	sales := make([]*Sale, 0, len(recs))
	for i := range recs {
		sales = append(sales, recs[i].toDomain())
	}
	return sales, nil
}

func (g *GormStorage) Cancel(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	found := false
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec saleRecord
		err := tx.Where("id = ?", id).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true

		sale := rec.toDomain()
		if err := sale.Cancel(); err != nil {
			return err
		}
		// The flag is checked again in the UPDATE so that a concurrent cancel
		// committed after our read is not overwritten.
		res := tx.Model(&saleRecord{}).
			Where("id = ? AND is_cancelled = ?", id, false).
			Update("is_cancelled", sale.IsCancelled())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCancelled
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDomainRule) {
			g.logger.Error("failed to cancel sale", zap.String("sale_id", id), zap.Error(err))
		}
		return false, err
	}
	return found, nil
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func toRecord(s *Sale) saleRecord {
	rec := saleRecord{
		ID:          s.ID,
		SaleNumber:  s.SaleNumber,
		SaleDate:    s.saleDate,
		Customer:    s.Customer,
		Branch:      s.Branch,
		IsCancelled: s.cancelled,
		Items:       make([]saleItemRecord, 0, len(s.Items)),
	}
	for i, item := range s.Items {
		rec.Items = append(rec.Items, saleItemRecord{
			ID:          item.ID,
			SaleID:      s.ID,
			Position:    i,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.discount,
		})
	}
	return rec
}

func (r saleRecord) toDomain() *Sale {
	s := &Sale{
		ID:         r.ID,
		SaleNumber: r.SaleNumber,
		Customer:   r.Customer,
		Branch:     r.Branch,
		Items:      make([]SaleItem, 0, len(r.Items)),
		saleDate:   r.SaleDate.UTC(),
		cancelled:  r.IsCancelled,
	}
	for _, ir := range r.Items {
		s.Items = append(s.Items, SaleItem{
			ID:          ir.ID,
			ProductID:   ir.ProductID,
			ProductName: ir.ProductName,
			Quantity:    ir.Quantity,
			UnitPrice:   ir.UnitPrice,
			discount:    ir.Discount,
		})
	}
	return s
}
