package application

import (
	"context"
	"fmt"
	"time"

	catalogdomain "github.com/omnisales/omnisales/internal/catalog/domain"
	"github.com/omnisales/omnisales/internal/order/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/transaction"
)

// sagaTrace 在各步骤间共享执行痕迹，用于在协调器返回后还原失败原因
type sagaTrace struct {
	conflictProduct string
}

// persistOrderStep 订单落库步骤
type persistOrderStep struct {
	transaction.BaseStep
	repo      domain.OrderRepository
	order     *domain.Order
	persisted bool
}

func (s *persistOrderStep) Execute(ctx context.Context) error {
	s.order.Status = domain.StatusPending
	s.order.PaymentStatus = domain.PaymentPaid
	s.order.SagaState = domain.SagaPersisting
	if err := s.repo.Save(ctx, s.order); err != nil {
		return err
	}
	s.persisted = true
	return s.repo.UpdateSagaState(ctx, s.order.OrderID, domain.SagaReserving)
}

func (s *persistOrderStep) Compensate(ctx context.Context) error {
	if !s.persisted {
		return nil
	}
	if err := s.repo.MarkCancelled(ctx, s.order.OrderID); err != nil {
		logging.Error(ctx, "failed to mark order cancelled during compensation",
			"order_id", s.order.OrderID, "error", err)
		return err
	}
	return nil
}

// reserveStockStep 单行库存预占步骤。
// 条件扣减是唯一的并发控制手段，不加任何显式锁。
type reserveStockStep struct {
	transaction.BaseStep
	products  catalogdomain.ProductRepository
	publisher domain.EventPublisher
	trace     *sagaTrace
	orderID   string
	productID string
	quantity  int
	reserved  bool
}

func (s *reserveStockStep) Execute(ctx context.Context) error {
	ok, err := s.products.ReserveStock(ctx, s.productID, s.quantity)
	if err != nil {
		return err
	}
	if !ok {
		s.trace.conflictProduct = s.productID
		return fmt.Errorf("insufficient stock for %s: %w", s.productID, ErrStockConflict)
	}
	s.reserved = true
	s.publish(ctx, catalogdomain.StockReservedEventType, catalogdomain.StockReservedEvent{
		ProductID: s.productID,
		Quantity:  s.quantity,
		OrderID:   s.orderID,
		Timestamp: time.Now(),
	})
	return nil
}

// Compensate 回补已预占的库存。失败时留下已知的库存少计，
// 作为严重异常记录日志供对账使用，不再向上传播以免阻断其余补偿。
func (s *reserveStockStep) Compensate(ctx context.Context) error {
	if !s.reserved {
		return nil
	}
	if err := s.products.RestoreStock(ctx, s.productID, s.quantity); err != nil {
		logging.Error(ctx, "stock compensation failed",
			"anomaly", "stock_undercount",
			"order_id", s.orderID,
			"product_id", s.productID,
			"quantity", s.quantity,
			"error", err)
		return nil
	}
	s.reserved = false
	s.publish(ctx, catalogdomain.StockRestoredEventType, catalogdomain.StockRestoredEvent{
		ProductID: s.productID,
		Quantity:  s.quantity,
		OrderID:   s.orderID,
		Timestamp: time.Now(),
	})
	return nil
}

func (s *reserveStockStep) publish(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, s.productID, event); err != nil {
		logging.Warn(ctx, "failed to publish stock event", "topic", topic, "product_id", s.productID, "error", err)
	}
}
