package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mvasiljevic/delivery-shop/internal/database"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// PostgresCatalogRepository is the Postgres-backed CatalogRepository.
type PostgresCatalogRepository struct {
	db     *database.Database
	logger logger.Logger
}

func NewCatalogRepository(db *database.Database, log logger.Logger) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db, logger: log}
}

// GetProduct retrieves a product by id.
func (r *PostgresCatalogRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT id, name, price FROM products WHERE id = $1`

	var product models.Product
	if err := r.db.DB.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get product", "error", err, "productID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &product, nil
}

// ProductNameExists reports whether a product with this name is persisted.
func (r *PostgresCatalogRepository) ProductNameExists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE name = $1)`

	var exists bool
	if err := r.db.DB.GetContext(ctx, &exists, query, name); err != nil {
		r.logger.Error("Failed to check product name", "error", err, "name", name)
		return false, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return exists, nil
}

// AllCategoryNames lists every category name in the system.
func (r *PostgresCatalogRepository) AllCategoryNames(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM categories ORDER BY name`

	names := []string{}
	if err := r.db.DB.SelectContext(ctx, &names, query); err != nil {
		r.logger.Error("Failed to list categories", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return names, nil
}

// Search returns products whose name contains name and that belong to a
// category whose name contains category, both case-insensitive; empty
// filters match everything.
func (r *PostgresCatalogRepository) Search(ctx context.Context, name, category string) ([]models.ProductView, error) {
	query := `
		SELECT DISTINCT p.id, p.name, p.price
		FROM products p
		WHERE ($1 = '' OR p.name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR EXISTS (
			SELECT 1
			FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = p.id AND c.name ILIKE '%' || $2 || '%'
		  ))
		ORDER BY p.id
	`

	var products []models.Product
	if err := r.db.DB.SelectContext(ctx, &products, query, name, category); err != nil {
		r.logger.Error("Failed to search products", "error", err, "name", name, "category", category)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	categoryQuery := `
		SELECT c.name
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1
		ORDER BY c.name
	`

	views := []models.ProductView{}
	for _, product := range products {
		categories := []string{}
		if err := r.db.DB.SelectContext(ctx, &categories, categoryQuery, product.ID); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
		}

		views = append(views, models.ProductView{
			Categories: categories,
			ID:         product.ID,
			Name:       product.Name,
			Price:      product.Price,
		})
	}

	return views, nil
}

// BulkInsert writes a whole ingestion batch in one transaction. Category
// rows are shared: an already-present category name is reused, never
// duplicated. A unique violation (e.g. a product name racing another
// ingestion call) rolls the whole batch back and surfaces as ErrDuplicate.
func (r *PostgresCatalogRepository) BulkInsert(ctx context.Context, records []CatalogRecord) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	categoryIDs := make(map[string]int64)

	categoryInsert := `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	productInsert := `INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id`
	associationInsert := `INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`

	for _, record := range records {
		var productID int64
		if err := tx.QueryRowContext(ctx, productInsert, record.Name, record.Price).Scan(&productID); err != nil {
			r.logger.Error("Failed to insert product", "error", err, "name", record.Name)
			if IsUniqueViolation(err) {
				return fmt.Errorf("%w: product %s", ErrDuplicate, record.Name)
			}
			return fmt.Errorf("%w: %v", ErrDatabase, err)
		}

		for _, categoryName := range record.Categories {
			categoryID, ok := categoryIDs[categoryName]
			if !ok {
				if err := tx.QueryRowContext(ctx, categoryInsert, categoryName).Scan(&categoryID); err != nil {
					r.logger.Error("Failed to insert category", "error", err, "name", categoryName)
					return fmt.Errorf("%w: %v", ErrDatabase, err)
				}
				categoryIDs[categoryName] = categoryID
			}

			if _, err := tx.ExecContext(ctx, associationInsert, productID, categoryID); err != nil {
				return fmt.Errorf("%w: %v", ErrDatabase, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit catalog batch", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	r.logger.Info("Catalog batch inserted", "products", len(records))
	return nil
}
