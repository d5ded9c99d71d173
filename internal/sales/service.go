package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service provides the sale use cases on top of a Storage backend.
type Service struct {
	storage   Storage
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service. A nil publisher falls back to logging
// notifications.
func NewService(storage Storage, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
		defer logger.Sync() // flushes buffer, if any
	}
	if publisher == nil {
		publisher = NewLogPublisher(logger)
	}

	return &Service{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSale validates the command, builds the sale with its discounts,
// persists it and then announces it.
func (s *Service) CreateSale(ctx context.Context, cmd CreateSaleCommand) (*SaleResult, error) {
	if res := ValidateCreateCommand(cmd); !res.IsValid {
		s.logger.Warn("create sale command rejected",
			zap.String("customer", cmd.Customer),
			zap.Any("errors", res.Errors),
		)
		return nil, &ValidationError{Errors: res.Errors}
	}

	sale, err := s.buildSale(cmd)
	if err != nil {
		s.logger.Error("failed to build sale", zap.Error(err))
		return nil, err
	}
	if res := sale.Validate(); !res.IsValid {
		return nil, &ValidationError{Errors: res.Errors}
	}

	// Nothing has been written yet, so a cancelled request can still back out.
	if err := ctx.Err(); err != nil {
		s.logger.Warn("create sale abandoned before persistence", zap.Error(err))
		return nil, err
	}

	created, err := s.storage.Create(ctx, sale)
	if err != nil {
		s.logger.Error("failed to save sale", zap.String("customer", sale.Customer), zap.Error(err))
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.notifyCreated(context.WithoutCancel(ctx), created)

	s.logger.Info("sale created",
		zap.String("sale_id", created.ID),
		zap.String("sale_number", created.SaleNumber),
		zap.Int("items", len(created.Items)),
		zap.String("total_amount", created.TotalAmount().String()),
	)
	result := NewSaleResult(created)
	return &result, nil
}

// CancelSale cancels the sale with the given ID. It returns ErrNotFound when
// the sale does not exist and ErrAlreadyCancelled on a repeated cancel.
func (s *Service) CancelSale(ctx context.Context, saleID string) error {
	ok, err := s.storage.Cancel(ctx, saleID)
	if err != nil {
		if errors.Is(err, ErrAlreadyCancelled) {
			s.logger.Warn("sale already cancelled", zap.String("sale_id", saleID))
			return err
		}
		s.logger.Error("failed to cancel sale", zap.String("sale_id", saleID), zap.Error(err))
		return err
	}
	if !ok {
		s.logger.Warn("sale not found for cancellation", zap.String("sale_id", saleID))
		return fmt.Errorf("cancel sale %s: %w", saleID, ErrNotFound)
	}

	s.logger.Info("sale cancelled", zap.String("sale_id", saleID))
	return nil
}

// GetSaleByID returns ErrNotFound when no sale has the given ID.
func (s *Service) GetSaleByID(ctx context.Context, saleID string) (*SaleResult, error) {
	sale, err := s.storage.Read(ctx, saleID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("failed to read sale", zap.String("sale_id", saleID), zap.Error(err))
		}
		return nil, err
	}
	result := NewSaleResult(sale)
	return &result, nil
}

// GetAllSales returns every stored sale; an empty slice when there are none.
func (s *Service) GetAllSales(ctx context.Context) ([]SaleResult, error) {
	all, err := s.storage.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get all sales from storage", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	results := make([]SaleResult, 0, len(all))
	for _, sale := range all {
		results = append(results, NewSaleResult(sale))
	}
	return results, nil
}

func (s *Service) buildSale(cmd CreateSaleCommand) (*Sale, error) {
	now := s.now()
	items := make([]SaleItem, 0, len(cmd.Items))
	for _, in := range cmd.Items {
		item, err := NewSaleItem(in.ProductID, in.ProductName, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	number := strings.TrimSpace(cmd.SaleNumber)
	if number == "" {
		number = generateSaleNumber(now)
	}
	return NewSale(number, cmd.Customer, cmd.Branch, items, now), nil
}

// notifyCreated is best effort: a failure here never undoes the stored sale.
func (s *Service) notifyCreated(ctx context.Context, sale *Sale) {
	event := SaleCreated{
		SaleID:   sale.ID,
		Customer: sale.Customer,
		SaleDate: sale.SaleDate(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish sale created event",
			zap.String("sale_id", sale.ID),
			zap.Error(err),
		)
	}
}

func generateSaleNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("S-%s-%s", now.UTC().Format("20060102"), suffix)
}
