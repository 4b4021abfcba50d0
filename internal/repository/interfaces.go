package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mvasiljevic/delivery-shop/internal/models"
)

// UserRepository handles account persistence.
type UserRepository interface {
	// Create inserts the user and its role assignment in one transaction.
	Create(ctx context.Context, user *models.User, role string) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// CatalogRecord is one parsed line of a catalog ingestion file.
type CatalogRecord struct {
	Name       string
	Price      decimal.Decimal
	Categories []string
}

// CatalogRepository handles product and category persistence.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ProductNameExists(ctx context.Context, name string) (bool, error)
	AllCategoryNames(ctx context.Context) ([]string, error)
	// Search returns products matching the optional case-insensitive name
	// and category substring filters, with their current categories.
	Search(ctx context.Context, name, category string) ([]models.ProductView, error)
	// BulkInsert writes a whole ingestion batch in a single transaction:
	// either every product, category and association lands, or none do.
	BulkInsert(ctx context.Context, records []CatalogRecord) error
}

// OrderRepository handles order persistence.
type OrderRepository interface {
	// Create inserts the order and all of its lines in one transaction and
	// fills in the assigned order id.
	Create(ctx context.Context, order *models.Order, lines []models.OrderProduct) error
	// UpdateStatus performs a conditional transition: the status is set to
	// next only if it currently equals prev. Returns false when no row
	// matched, i.e. the order does not exist or is in another state.
	UpdateStatus(ctx context.Context, id int64, prev, next models.OrderStatus) (bool, error)
	// PendingPickups lists orders still waiting for a courier.
	PendingPickups(ctx context.Context) ([]models.PendingPickup, error)
	// ForUser returns the user's full order history with lines expanded to
	// current product name, price and categories.
	ForUser(ctx context.Context, user string) ([]models.UserOrder, error)
}

// OrderLineStatus is an order line tagged with its order's status, the unit
// the statistics aggregation works on.
type OrderLineStatus struct {
	ProductID int64              `db:"product_id"`
	Quantity  int                `db:"quantity"`
	Status    models.OrderStatus `db:"status"`
}

// StatisticsRepository provides the read-only fetches the statistics
// aggregation runs over. It never mutates state.
type StatisticsRepository interface {
	OrderLines(ctx context.Context) ([]OrderLineStatus, error)
	Products(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	ProductCategories(ctx context.Context) ([]models.ProductCategory, error)
}
