package service

import (
	"context"

	"github.com/mvasiljevic/delivery-shop/internal/events"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/repository"
)

// In-memory stand-ins for the repository interfaces.

type fakeCatalogRepo struct {
	products      map[int64]models.Product
	existingNames map[string]bool
	searchResults []models.ProductView
	allCategories []string
	inserted      [][]repository.CatalogRecord
	bulkErr       error
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		products:      make(map[int64]models.Product),
		existingNames: make(map[string]bool),
	}
}

func (f *fakeCatalogRepo) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	product, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &product, nil
}

func (f *fakeCatalogRepo) ProductNameExists(_ context.Context, name string) (bool, error) {
	return f.existingNames[name], nil
}

func (f *fakeCatalogRepo) AllCategoryNames(context.Context) ([]string, error) {
	return f.allCategories, nil
}

func (f *fakeCatalogRepo) Search(context.Context, string, string) ([]models.ProductView, error) {
	return f.searchResults, nil
}

func (f *fakeCatalogRepo) BulkInsert(_ context.Context, records []repository.CatalogRecord) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.inserted = append(f.inserted, records)
	return nil
}

type fakeOrderRepo struct {
	nextID   int64
	created  []models.Order
	lines    map[int64][]models.OrderProduct
	statuses map[int64]models.OrderStatus
	pickups  []models.PendingPickup
	history  map[string][]models.UserOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		nextID:   1,
		lines:    make(map[int64][]models.OrderProduct),
		statuses: make(map[int64]models.OrderStatus),
		history:  make(map[string][]models.UserOrder),
	}
}

func (f *fakeOrderRepo) Create(_ context.Context, order *models.Order, lines []models.OrderProduct) error {
	order.ID = f.nextID
	f.nextID++
	f.created = append(f.created, *order)
	f.lines[order.ID] = lines
	f.statuses[order.ID] = order.Status
	return nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, prev, next models.OrderStatus) (bool, error) {
	if f.statuses[id] != prev {
		return false, nil
	}
	f.statuses[id] = next
	return true, nil
}

func (f *fakeOrderRepo) PendingPickups(context.Context) ([]models.PendingPickup, error) {
	return f.pickups, nil
}

func (f *fakeOrderRepo) ForUser(_ context.Context, user string) ([]models.UserOrder, error) {
	return f.history[user], nil
}

type fakeStatsRepo struct {
	lines      []repository.OrderLineStatus
	products   []models.Product
	categories []models.Category
	assocs     []models.ProductCategory
}

func (f *fakeStatsRepo) OrderLines(context.Context) ([]repository.OrderLineStatus, error) {
	return f.lines, nil
}

func (f *fakeStatsRepo) Products(context.Context) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeStatsRepo) Categories(context.Context) ([]models.Category, error) {
	return f.categories, nil
}

func (f *fakeStatsRepo) ProductCategories(context.Context) ([]models.ProductCategory, error) {
	return f.assocs, nil
}

type fakeUserRepo struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User), nextID: 1}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User, role string) error {
	if _, ok := f.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	user.ID = f.nextID
	f.nextID++
	user.Roles = []string{role}
	stored := *user
	f.users[user.Email] = &stored
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) DeleteByEmail(_ context.Context, email string) error {
	if _, ok := f.users[email]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, email)
	return nil
}

type recordingPublisher struct {
	published []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.OrderEvent) {
	p.published = append(p.published, event)
}
