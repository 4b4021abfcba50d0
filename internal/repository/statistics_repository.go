package repository

import (
	"context"
	"fmt"

	"github.com/mvasiljevic/delivery-shop/internal/database"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// PostgresStatisticsRepository is the read-only data source for the
// statistics aggregation.
type PostgresStatisticsRepository struct {
	db     *database.Database
	logger logger.Logger
}

func NewStatisticsRepository(db *database.Database, log logger.Logger) *PostgresStatisticsRepository {
	return &PostgresStatisticsRepository{db: db, logger: log}
}

// OrderLines returns every order line joined to its order's status.
func (r *PostgresStatisticsRepository) OrderLines(ctx context.Context) ([]OrderLineStatus, error) {
	query := `
		SELECT op.product_id, op.quantity, o.status
		FROM order_products op
		JOIN orders o ON o.id = op.order_id
	`

	lines := []OrderLineStatus{}
	if err := r.db.DB.SelectContext(ctx, &lines, query); err != nil {
		r.logger.Error("Failed to fetch order lines", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return lines, nil
}

// Products returns all products.
func (r *PostgresStatisticsRepository) Products(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := r.db.DB.SelectContext(ctx, &products, `SELECT id, name, price FROM products`); err != nil {
		r.logger.Error("Failed to fetch products", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return products, nil
}

// Categories returns all categories.
func (r *PostgresStatisticsRepository) Categories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := r.db.DB.SelectContext(ctx, &categories, `SELECT id, name FROM categories`); err != nil {
		r.logger.Error("Failed to fetch categories", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return categories, nil
}

// ProductCategories returns the whole association table.
func (r *PostgresStatisticsRepository) ProductCategories(ctx context.Context) ([]models.ProductCategory, error) {
	associations := []models.ProductCategory{}
	query := `SELECT product_id, category_id FROM product_categories`
	if err := r.db.DB.SelectContext(ctx, &associations, query); err != nil {
		r.logger.Error("Failed to fetch product categories", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return associations, nil
}
