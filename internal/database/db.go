package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mvasiljevic/delivery-shop/internal/config"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// Database represents a database connection
type Database struct {
	DB     *sqlx.DB
	logger logger.Logger
}

// New creates a new database connection
func New(cfg *config.Config, log logger.Logger) (*Database, error) {
	db, err := sqlx.Connect("postgres", cfg.GetDBConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("Connected to database", "host", cfg.DB.Host, "database", cfg.DB.Name)

	return &Database{DB: db, logger: log}, nil
}

// Ping checks the database connection
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.DB.Close()
}

// RunMigrations creates the schema and seeds the role table.
// The owner account seed lives in the user repository since it needs
// password hashing.
func (d *Database) RunMigrations() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		forename VARCHAR(256) NOT NULL,
		surname VARCHAR(256) NOT NULL,
		email VARCHAR(256) NOT NULL UNIQUE,
		password VARCHAR(256) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS roles (
		id SERIAL PRIMARY KEY,
		name VARCHAR(256) NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS user_roles (
		id SERIAL PRIMARY KEY,
		user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id INT NOT NULL REFERENCES roles(id)
	);

	CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name VARCHAR(256) NOT NULL UNIQUE,
		price NUMERIC(12, 2) NOT NULL CHECK (price > 0)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		name VARCHAR(256) NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS product_categories (
		id SERIAL PRIMARY KEY,
		product_id INT NOT NULL REFERENCES products(id),
		category_id INT NOT NULL REFERENCES categories(id)
	);

	CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		total_price NUMERIC(12, 2) NOT NULL CHECK (total_price > 0),
		status VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		customer VARCHAR(256) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer);

	CREATE TABLE IF NOT EXISTS order_products (
		order_id INT NOT NULL REFERENCES orders(id),
		product_id INT NOT NULL REFERENCES products(id),
		quantity INT NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (order_id, product_id)
	);

	INSERT INTO roles (name) VALUES ('owner'), ('courier'), ('customer')
	ON CONFLICT (name) DO NOTHING;
	`

	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}
