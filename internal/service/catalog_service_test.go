package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/pkg/apperrors"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

func TestParseCatalogValidFile(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogRepo(), nil, logger.Nop())
	file := "food|drinks,Coffee,5.50\nfood,Bread,2\n"

	records, err := svc.parseCatalog(context.Background(), strings.NewReader(file))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "Coffee", records[0].Name)
	assert.Equal(t, []string{"food", "drinks"}, records[0].Categories)
	assert.True(t, records[0].Price.Equal(decimal.RequireFromString("5.50")))
	assert.Equal(t, "Bread", records[1].Name)
	assert.Equal(t, []string{"food"}, records[1].Categories)
}

func TestParseCatalogRejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		message string
	}{
		{
			name:    "wrong field count",
			file:    "food,Coffee,5\nfood,Bread\n",
			message: "Incorrect number of values on line 1.",
		},
		{
			name:    "non-numeric price",
			file:    "food,Coffee,expensive\n",
			message: "Incorrect price on line 0.",
		},
		{
			name:    "zero price",
			file:    "food,Coffee,0\n",
			message: "Incorrect price on line 0.",
		},
		{
			name:    "negative price",
			file:    "food,Coffee,5\nfood,Bread,-2\n",
			message: "Incorrect price on line 1.",
		},
		{
			name:    "duplicate product in file",
			file:    "food,Coffee,5\ndrinks,Coffee,6\n",
			message: "Product Coffee already exists.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewCatalogService(newFakeCatalogRepo(), nil, logger.Nop())

			_, err := svc.parseCatalog(context.Background(), strings.NewReader(tc.file))

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestUpdateReportsPersistedDuplicateBeforeLaterLineErrors(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.existingNames["Bread"] = true
	svc := NewCatalogService(catalog, nil, logger.Nop())

	// Bread is already persisted on line 0; line 1 would fail its price
	// check. The duplicate on the earlier line must win.
	err := svc.Update(context.Background(), strings.NewReader("food,Bread,2\ndrinks,Coffee,bad\n"))

	require.Error(t, err)
	assert.Equal(t, "Product Bread already exists.", err.Error())
	assert.Empty(t, catalog.inserted)
}

func TestUpdateRejectsExistingProduct(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.existingNames["Bread"] = true
	svc := NewCatalogService(catalog, nil, logger.Nop())

	err := svc.Update(context.Background(), strings.NewReader("food,Bread,2\n"))

	require.Error(t, err)
	assert.Equal(t, "Product Bread already exists.", err.Error())
	assert.Empty(t, catalog.inserted)
}

func TestUpdateInsertsWholeBatch(t *testing.T) {
	catalog := newFakeCatalogRepo()
	svc := NewCatalogService(catalog, nil, logger.Nop())

	err := svc.Update(context.Background(), strings.NewReader("food|drinks,Coffee,5.50\nfood,Bread,2\n"))
	require.NoError(t, err)

	require.Len(t, catalog.inserted, 1)
	assert.Len(t, catalog.inserted[0], 2)
}

func TestUpdateValidationAbortsBeforeAnyWrite(t *testing.T) {
	catalog := newFakeCatalogRepo()
	svc := NewCatalogService(catalog, nil, logger.Nop())

	err := svc.Update(context.Background(), strings.NewReader("food,Coffee,5\nbroken line\n"))

	require.Error(t, err)
	assert.Empty(t, catalog.inserted)
}

func TestSearchReturnsUnionOfMatchedCategories(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.searchResults = []models.ProductView{
		{ID: 1, Name: "Coffee", Categories: []string{"drinks", "hot"}},
		{ID: 2, Name: "Tea", Categories: []string{"drinks"}},
	}
	svc := NewCatalogService(catalog, nil, logger.Nop())

	result, err := svc.Search(context.Background(), "e", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"drinks", "hot"}, result.Categories)
	assert.Len(t, result.Products, 2)
}

func TestSearchWithoutFiltersListsAllCategories(t *testing.T) {
	catalog := newFakeCatalogRepo()
	catalog.allCategories = []string{"drinks", "food", "unused"}
	catalog.searchResults = []models.ProductView{
		{ID: 1, Name: "Coffee", Categories: []string{"drinks"}},
	}
	svc := NewCatalogService(catalog, nil, logger.Nop())

	result, err := svc.Search(context.Background(), "", "")
	require.NoError(t, err)

	// With no filters the category list covers the whole system, not just
	// the categories of matched products.
	assert.Equal(t, []string{"drinks", "food", "unused"}, result.Categories)
}
