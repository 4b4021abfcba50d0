package service

import (
	"context"
	"sort"

	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/repository"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// ProductStatistic is the sold/waiting breakdown for one ordered product.
type ProductStatistic struct {
	Name    string `json:"name"`
	Sold    int    `json:"sold"`
	Waiting int    `json:"waiting"`
}

// StatisticsService computes read-only aggregate reports over persisted
// orders. It never mutates state.
type StatisticsService struct {
	stats  repository.StatisticsRepository
	logger logger.Logger
}

func NewStatisticsService(stats repository.StatisticsRepository, log logger.Logger) *StatisticsService {
	return &StatisticsService{stats: stats, logger: log}
}

type productTally struct {
	sold    int
	waiting int
}

// ProductStatistics reports, for every product that appears in at least one
// order line, how many units were sold (order COMPLETE) and how many are
// still waiting (any other status). Products never ordered produce no row.
// Results are sorted by product name ascending.
func (s *StatisticsService) ProductStatistics(ctx context.Context) ([]ProductStatistic, error) {
	lines, err := s.stats.OrderLines(ctx)
	if err != nil {
		return nil, err
	}

	tallies := make(map[int64]*productTally)
	for _, line := range lines {
		tally, ok := tallies[line.ProductID]
		if !ok {
			tally = &productTally{}
			tallies[line.ProductID] = tally
		}
		if line.Status == models.OrderStatusComplete {
			tally.sold += line.Quantity
		} else {
			tally.waiting += line.Quantity
		}
	}

	products, err := s.stats.Products(ctx)
	if err != nil {
		return nil, err
	}

	statistics := make([]ProductStatistic, 0, len(tallies))
	for _, product := range products {
		tally, ok := tallies[product.ID]
		if !ok {
			// Inner-join semantics: never-ordered products are omitted.
			continue
		}
		statistics = append(statistics, ProductStatistic{
			Name:    product.Name,
			Sold:    tally.sold,
			Waiting: tally.waiting,
		})
	}

	sort.Slice(statistics, func(i, j int) bool {
		return statistics[i].Name < statistics[j].Name
	})

	s.logger.Debug("Product statistics computed", "products", len(statistics))
	return statistics, nil
}

// CategoryStatistics ranks every category by units sold. A product in
// several categories contributes its full sold quantity to each of them.
// Categories with no products still appear, with zero. The ranking is by
// sold count descending, ties broken by name ascending; only the ordered
// names are returned.
func (s *StatisticsService) CategoryStatistics(ctx context.Context) ([]string, error) {
	lines, err := s.stats.OrderLines(ctx)
	if err != nil {
		return nil, err
	}

	soldByProduct := make(map[int64]int)
	for _, line := range lines {
		if line.Status == models.OrderStatusComplete {
			soldByProduct[line.ProductID] += line.Quantity
		}
	}

	associations, err := s.stats.ProductCategories(ctx)
	if err != nil {
		return nil, err
	}

	soldByCategory := make(map[int64]int)
	for _, assoc := range associations {
		soldByCategory[assoc.CategoryID] += soldByProduct[assoc.ProductID]
	}

	categories, err := s.stats.Categories(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		name string
		sold int
	}
	ranking := make([]ranked, 0, len(categories))
	for _, category := range categories {
		ranking = append(ranking, ranked{name: category.Name, sold: soldByCategory[category.ID]})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].sold != ranking[j].sold {
			return ranking[i].sold > ranking[j].sold
		}
		return ranking[i].name < ranking[j].name
	})

	names := make([]string, len(ranking))
	for i, entry := range ranking {
		names[i] = entry.name
	}

	s.logger.Debug("Category statistics computed", "categories", len(names))
	return names, nil
}
