package models

import "github.com/shopspring/decimal"

// Product is a catalog item. Names are unique, prices strictly positive.
type Product struct {
	ID    int64           `db:"id" json:"id"`
	Name  string          `db:"name" json:"name"`
	Price decimal.Decimal `db:"price" json:"price"`
}

// Category is a product grouping. A product may belong to many categories.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ProductCategory is one row of the product/category association table.
type ProductCategory struct {
	ProductID  int64 `db:"product_id"`
	CategoryID int64 `db:"category_id"`
}

// ProductView is a product with its category names, as returned by search.
type ProductView struct {
	Categories []string        `json:"categories"`
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
}
