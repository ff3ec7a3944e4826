package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/omnisales/omnisales/internal/catalog/domain"
	"github.com/omnisales/omnisales/internal/order/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/transaction"
)

// 固定税率 8%，申报总额容差 0.01
var (
	taxMultiplier  = decimal.NewFromFloat(1.08)
	totalTolerance = decimal.NewFromFloat(0.01)
)

// OrderLineInput 下单行输入，价格不由客户端声明，目录价为权威价
type OrderLineInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderCommand 下单命令
type PlaceOrderCommand struct {
	UserID          string
	Items           []OrderLineInput
	TotalAmount     float64
	ShippingAddress string
}

// CheckoutService 下单 saga：
// Validating → Pricing → Persisting → Reserving → {Committed | RolledBack}。
// 底层存储只有单行原子性，超卖由逐行条件扣减防止，部分失败走补偿回补。
type CheckoutService struct {
	orders    domain.OrderRepository
	products  catalogdomain.ProductRepository
	publisher domain.EventPublisher
}

func NewCheckoutService(orders domain.OrderRepository, products catalogdomain.ProductRepository, publisher domain.EventPublisher) *CheckoutService {
	return &CheckoutService{orders: orders, products: products, publisher: publisher}
}

// PlaceOrder 执行完整下单流程。
// 校验或定价失败在任何持久化之前中止；库存竞争触发补偿并返回 ErrStockConflict，
// 不自动重试，由调用方决定是否重新提交。成功提交不清空购物车，清空是调用方的职责。
func (s *CheckoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*domain.Order, error) {
	defer logging.LogDuration(ctx, "order placement completed", "user_id", cmd.UserID)()

	if cmd.UserID == "" {
		return nil, &ValidationError{Reason: "user_id is required"}
	}
	if len(cmd.Items) == 0 {
		return nil, &ValidationError{Reason: "order must contain at least one item"}
	}

	// Validating：任何变更之前逐行校验商品存在与数量
	products := make([]*catalogdomain.Product, 0, len(cmd.Items))
	for _, line := range cmd.Items {
		if line.Quantity < 1 {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid quantity %d for product %s", line.Quantity, line.ProductID)}
		}
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		products = append(products, product)
	}

	// Pricing：目录价计价，校验申报总额
	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for i, line := range cmd.Items {
		price := decimal.NewFromFloat(products[i].Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      products[i].Name,
			Price:     products[i].Price,
			Quantity:  line.Quantity,
		})
	}
	computed := subtotal.Mul(taxMultiplier).Round(2)
	declared := decimal.NewFromFloat(cmd.TotalAmount)
	if computed.Sub(declared).Abs().GreaterThan(totalTolerance) {
		logging.Warn(ctx, "order total mismatch",
			"user_id", cmd.UserID,
			"declared", declared.String(),
			"computed", computed.String())
		return nil, fmt.Errorf("declared %s, computed %s: %w", declared.String(), computed.String(), ErrTotalMismatch)
	}

	order := &domain.Order{
		OrderID:         fmt.Sprintf("ORD-%d", idgen.GenID()),
		UserID:          cmd.UserID,
		Items:           items,
		TotalAmount:     computed.InexactFloat64(),
		SagaState:       domain.SagaPricing,
		ShippingAddress: cmd.ShippingAddress,
	}

	// Persisting + Reserving：落库后逐行条件扣减库存
	trace := &sagaTrace{}
	saga := transaction.NewSagaCoordinator()
	saga.AddStep(&persistOrderStep{
		BaseStep: transaction.BaseStep{StepName: "PersistOrder"},
		repo:     s.orders,
		order:    order,
	})
	for _, item := range order.Items {
		saga.AddStep(&reserveStockStep{
			BaseStep:  transaction.BaseStep{StepName: "ReserveStock:" + item.ProductID},
			products:  s.products,
			publisher: s.publisher,
			trace:     trace,
			orderID:   order.OrderID,
			productID: item.ProductID,
			quantity:  item.Quantity,
		})
	}

	if err := saga.Execute(ctx); err != nil {
		reason := err.Error()
		if trace.conflictProduct != "" {
			err = fmt.Errorf("reservation lost for %s: %w", trace.conflictProduct, ErrStockConflict)
		}
		logging.Info(ctx, "order rolled back",
			"order_id", order.OrderID,
			"user_id", cmd.UserID,
			"reason", reason)
		s.publish(ctx, domain.OrderCancelledEventType, order.OrderID, domain.OrderCancelledEvent{
			OrderID:   order.OrderID,
			UserID:    cmd.UserID,
			Reason:    reason,
			Timestamp: time.Now(),
		})
		return nil, err
	}

	if err := s.orders.UpdateSagaState(ctx, order.OrderID, domain.SagaCommitted); err != nil {
		logging.Error(ctx, "failed to persist committed saga state", "order_id", order.OrderID, "error", err)
	} else {
		order.SagaState = domain.SagaCommitted
	}

	logging.Info(ctx, "order committed",
		"order_id", order.OrderID,
		"user_id", cmd.UserID,
		"total", order.TotalAmount,
		"items", len(order.Items))
	s.publish(ctx, domain.OrderCreatedEventType, order.OrderID, domain.OrderCreatedEvent{
		OrderID:     order.OrderID,
		UserID:      cmd.UserID,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
		Timestamp:   time.Now(),
	})
	return order, nil
}

// IsRetryable 库存竞争可通过重新提交解决
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStockConflict)
}

func (s *CheckoutService) publish(ctx context.Context, topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logging.Warn(ctx, "failed to publish order event", "topic", topic, "order_id", key, "error", err)
	}
}
