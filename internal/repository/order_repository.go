package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mvasiljevic/delivery-shop/internal/database"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// PostgresOrderRepository is the Postgres-backed OrderRepository.
type PostgresOrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

func NewOrderRepository(db *database.Database, log logger.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db, logger: log}
}

// Create inserts one order and its lines atomically.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order, lines []models.OrderProduct) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO orders (total_price, status, created_at, customer)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	if err := tx.QueryRowContext(ctx, query,
		order.TotalPrice,
		order.Status,
		order.CreatedAt,
		order.Customer,
	).Scan(&order.ID); err != nil {
		r.logger.Error("Failed to insert order", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	lineQuery := `
		INSERT INTO order_products (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
	`

	for _, line := range lines {
		if _, err := tx.ExecContext(ctx, lineQuery, order.ID, line.ProductID, line.Quantity); err != nil {
			r.logger.Error("Failed to insert order line", "error", err, "orderID", order.ID, "productID", line.ProductID)
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: %v", ErrDuplicate, err)
			}
			return fmt.Errorf("%w: %v", ErrDatabase, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit order", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// UpdateStatus transitions the order only if it is currently in prev.
// Concurrent callers racing on the same order are serialized by the store:
// at most one sees the expected prior status.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, prev, next models.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.db.DB.ExecContext(ctx, query, next, id, prev)
	if err != nil {
		r.logger.Error("Failed to update order status", "error", err, "orderID", id)
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return rowsAffected == 1, nil
}

// PendingPickups lists (id, customer email) of all CREATED orders.
func (r *PostgresOrderRepository) PendingPickups(ctx context.Context) ([]models.PendingPickup, error) {
	query := `SELECT id, customer FROM orders WHERE status = $1 ORDER BY id`

	pickups := []models.PendingPickup{}
	if err := r.db.DB.SelectContext(ctx, &pickups, query, models.OrderStatusCreated); err != nil {
		r.logger.Error("Failed to list pending pickups", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return pickups, nil
}

// ForUser returns the user's full order history, each order expanded with
// its lines joined to current product data.
func (r *PostgresOrderRepository) ForUser(ctx context.Context, user string) ([]models.UserOrder, error) {
	var orders []models.Order

	query := `
		SELECT id, total_price, status, created_at, customer
		FROM orders
		WHERE customer = $1
		ORDER BY id
	`
	if err := r.db.DB.SelectContext(ctx, &orders, query, user); err != nil {
		r.logger.Error("Failed to list orders for user", "error", err, "user", user)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	lineQuery := `
		SELECT p.id, p.name, p.price, op.quantity
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY p.id
	`
	categoryQuery := `
		SELECT c.name
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.name
	`

	history := []models.UserOrder{}
	for _, order := range orders {
		var lines []struct {
			ID       int64           `db:"id"`
			Name     string          `db:"name"`
			Price    decimal.Decimal `db:"price"`
			Quantity int             `db:"quantity"`
		}
		if err := r.db.DB.SelectContext(ctx, &lines, lineQuery, order.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
		}

		userOrder := models.UserOrder{
			Products:  []models.OrderLineView{},
			Price:     order.TotalPrice,
			Status:    order.Status,
			Timestamp: order.CreatedAt,
		}

		for _, line := range lines {
			categories := []string{}
			if err := r.db.DB.SelectContext(ctx, &categories, categoryQuery, line.ID); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
			}

			userOrder.Products = append(userOrder.Products, models.OrderLineView{
				Categories: categories,
				Name:       line.Name,
				Price:      line.Price,
				Quantity:   line.Quantity,
			})
		}

		history = append(history, userOrder)
	}

	return history, nil
}
