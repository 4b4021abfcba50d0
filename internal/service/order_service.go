package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvasiljevic/delivery-shop/internal/events"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/repository"
	"github.com/mvasiljevic/delivery-shop/pkg/apperrors"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// OrderLineInput is one requested line of a new order.
type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// OrderService guards the order lifecycle: creation with a total-price
// snapshot, and the CREATED -> PENDING -> COMPLETE transitions.
type OrderService struct {
	orders    repository.OrderRepository
	catalog   repository.CatalogRepository
	publisher events.Publisher
	logger    logger.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	catalog repository.CatalogRepository,
	publisher events.Publisher,
	log logger.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		catalog:   catalog,
		publisher: publisher,
		logger:    log,
	}
}

// Create validates every line, computes the total from current product
// prices and persists the order with its lines atomically. Any validation
// failure aborts the whole operation; failures name the offending line by
// its 0-based index.
func (s *OrderService) Create(ctx context.Context, user string, lines []OrderLineInput) (*models.Order, error) {
	if len(lines) == 0 {
		return nil, apperrors.NewValidation("Field requests is missing.")
	}

	total := decimal.Zero
	orderLines := make([]models.OrderProduct, 0, len(lines))

	for i, line := range lines {
		if line.ProductID <= 0 {
			return nil, apperrors.NewValidation(fmt.Sprintf("Invalid product id for request number %d.", i))
		}

		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewValidation(fmt.Sprintf("Invalid product for request number %d.", i))
			}
			return nil, err
		}

		if line.Quantity <= 0 {
			return nil, apperrors.NewValidation(fmt.Sprintf("Invalid product quantity for request number %d.", i))
		}

		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		orderLines = append(orderLines, models.OrderProduct{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	order := &models.Order{
		TotalPrice: total,
		Status:     models.OrderStatusCreated,
		CreatedAt:  time.Now().UTC(),
		Customer:   user,
	}

	if err := s.orders.Create(ctx, order, orderLines); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewIntegrity("order could not be stored")
		}
		return nil, err
	}

	s.logger.Info("Order created", "orderID", order.ID, "user", user, "total", total)
	s.publisher.Publish(ctx, events.OrderEvent{
		Type:       events.TypeOrderCreated,
		OrderID:    order.ID,
		User:       user,
		TotalPrice: total,
	})

	return order, nil
}

// transition advances one order through a single lifecycle step. The step
// must be legal for the status machine; the conditional update then either
// wins the step or reports the conflated invalid-order-id failure, so a
// missing order and an order in any other state look identical to the
// caller.
func (s *OrderService) transition(ctx context.Context, orderID int64, prev, next models.OrderStatus) error {
	if !prev.CanTransitionTo(next) {
		return fmt.Errorf("illegal order transition %s -> %s", prev, next)
	}

	ok, err := s.orders.UpdateStatus(ctx, orderID, prev, next)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewStateConflict("Invalid order id.")
	}

	return nil
}

// PickUp transitions an order from CREATED to PENDING.
func (s *OrderService) PickUp(ctx context.Context, orderID int64) error {
	if err := s.transition(ctx, orderID, models.OrderStatusCreated, models.OrderStatusPending); err != nil {
		return err
	}

	s.logger.Info("Order picked up", "orderID", orderID)
	s.publisher.Publish(ctx, events.OrderEvent{Type: events.TypeOrderPickedUp, OrderID: orderID})
	return nil
}

// MarkDelivered transitions an order from PENDING to COMPLETE, the terminal
// state.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID int64) error {
	if err := s.transition(ctx, orderID, models.OrderStatusPending, models.OrderStatusComplete); err != nil {
		return err
	}

	s.logger.Info("Order delivered", "orderID", orderID)
	s.publisher.Publish(ctx, events.OrderEvent{Type: events.TypeOrderDelivered, OrderID: orderID})
	return nil
}

// PendingPickups lists all orders waiting for a courier. Each call
// re-queries current state.
func (s *OrderService) PendingPickups(ctx context.Context) ([]models.PendingPickup, error) {
	return s.orders.PendingPickups(ctx)
}

// OrdersForUser returns the user's full order history with lines expanded
// to current product data.
func (s *OrderService) OrdersForUser(ctx context.Context, user string) ([]models.UserOrder, error) {
	return s.orders.ForUser(ctx, user)
}
