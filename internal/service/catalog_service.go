package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mvasiljevic/delivery-shop/internal/cache"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/repository"
	"github.com/mvasiljevic/delivery-shop/pkg/apperrors"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// SearchResult is the customer search response: matched products and the
// union of their category names.
type SearchResult struct {
	Categories []string             `json:"categories"`
	Products   []models.ProductView `json:"products"`
}

// CatalogService handles bulk catalog ingestion and product search.
type CatalogService struct {
	catalog repository.CatalogRepository
	cache   *cache.SearchCache
	logger  logger.Logger
}

// NewCatalogService creates a CatalogService. searchCache may be nil, in
// which case every search hits the database.
func NewCatalogService(catalog repository.CatalogRepository, searchCache *cache.SearchCache, log logger.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, cache: searchCache, logger: log}
}

// parseCatalog reads the delimited ingestion format, one record per line:
// category1|category2,productName,price. Failures name the offending line
// by its 0-based index. Each line is also checked against the persisted
// catalog as it is read, so a duplicate on an early line wins over a parse
// failure on a later one.
func (s *CatalogService) parseCatalog(ctx context.Context, r io.Reader) ([]repository.CatalogRecord, error) {
	records := []repository.CatalogRecord{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for i := 0; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())

		values := strings.Split(line, ",")
		if len(values) != 3 {
			return nil, apperrors.NewValidation(fmt.Sprintf("Incorrect number of values on line %d.", i))
		}

		categories := strings.Split(strings.TrimSpace(values[0]), "|")
		name := strings.TrimSpace(values[1])

		price, err := decimal.NewFromString(strings.TrimSpace(values[2]))
		if err != nil || !price.IsPositive() {
			return nil, apperrors.NewValidation(fmt.Sprintf("Incorrect price on line %d.", i))
		}

		if seen[name] {
			return nil, apperrors.NewValidation(fmt.Sprintf("Product %s already exists.", name))
		}
		exists, err := s.catalog.ProductNameExists(ctx, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.NewValidation(fmt.Sprintf("Product %s already exists.", name))
		}
		seen[name] = true

		records = append(records, repository.CatalogRecord{
			Name:       name,
			Price:      price,
			Categories: categories,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return records, nil
}

// Update ingests a whole catalog file. Validation happens before any write;
// the batch is then persisted in a single transaction, so a failure on any
// record leaves the catalog untouched.
func (s *CatalogService) Update(ctx context.Context, file io.Reader) error {
	records, err := s.parseCatalog(ctx, file)
	if err != nil {
		return err
	}

	if err := s.catalog.BulkInsert(ctx, records); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent ingestion; the batch rolled back.
			return apperrors.NewIntegrity("ERROR")
		}
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.logger.Info("Catalog updated", "products", len(records))
	return nil
}

// Search returns products matching the optional name and category substring
// filters, together with the union of the matched products' category names.
// With no filters at all, the category list is every category in the system.
func (s *CatalogService) Search(ctx context.Context, name, category string) (*SearchResult, error) {
	if s.cache != nil {
		var cached SearchResult
		if s.cache.Get(ctx, name, category, &cached) {
			return &cached, nil
		}
	}

	products, err := s.catalog.Search(ctx, name, category)
	if err != nil {
		return nil, err
	}

	categorySet := make(map[string]bool)
	for _, product := range products {
		for _, c := range product.Categories {
			categorySet[c] = true
		}
	}

	var categories []string
	if name == "" && category == "" {
		categories, err = s.catalog.AllCategoryNames(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		categories = make([]string, 0, len(categorySet))
		for c := range categorySet {
			categories = append(categories, c)
		}
		sort.Strings(categories)
	}

	result := &SearchResult{Categories: categories, Products: products}

	if s.cache != nil {
		s.cache.Set(ctx, name, category, result)
	}

	return result, nil
}
