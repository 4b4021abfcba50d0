package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/mvasiljevic/delivery-shop/internal/cache"
	"github.com/mvasiljevic/delivery-shop/internal/config"
	"github.com/mvasiljevic/delivery-shop/internal/database"
	"github.com/mvasiljevic/delivery-shop/internal/events"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/repository"
	"github.com/mvasiljevic/delivery-shop/internal/service"
	"github.com/mvasiljevic/delivery-shop/pkg/kafka"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
	"github.com/mvasiljevic/delivery-shop/pkg/token"
)

// Handler-facing views of the service layer.
type authService interface {
	Register(ctx context.Context, req service.RegisterRequest, role string) error
	Login(ctx context.Context, email, password string) (string, error)
	Delete(ctx context.Context, email string) error
}

type orderService interface {
	Create(ctx context.Context, user string, lines []service.OrderLineInput) (*models.Order, error)
	PickUp(ctx context.Context, orderID int64) error
	MarkDelivered(ctx context.Context, orderID int64) error
	PendingPickups(ctx context.Context) ([]models.PendingPickup, error)
	OrdersForUser(ctx context.Context, user string) ([]models.UserOrder, error)
}

type catalogService interface {
	Update(ctx context.Context, file io.Reader) error
	Search(ctx context.Context, name, category string) (*service.SearchResult, error)
}

type statisticsService interface {
	ProductStatistics(ctx context.Context) ([]service.ProductStatistic, error)
	CategoryStatistics(ctx context.Context) ([]string, error)
}

type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	db         *database.Database
	tokens     *token.Manager
	producer   *kafka.Producer
	redis      *redis.Client

	auth       authService
	orders     orderService
	catalog    catalogService
	statistics statisticsService
}

// NewServer wires the whole application: database, optional Kafka and Redis,
// repositories, services and routes.
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(); err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db, log)
	catalogRepo := repository.NewCatalogRepository(db, log)
	orderRepo := repository.NewOrderRepository(db, log)
	statsRepo := repository.NewStatisticsRepository(db, log)

	var producer *kafka.Producer
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaEnabled() {
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, log)
		if err != nil {
			return nil, err
		}
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.OrdersTopic, log)
		log.Info("Order event publishing enabled", "topic", cfg.Kafka.OrdersTopic)
	}

	var redisClient *redis.Client
	var searchCache *cache.SearchCache
	if cfg.RedisEnabled() {
		redisClient, err = cache.Connect(cfg)
		if err != nil {
			return nil, err
		}
		searchCache = cache.NewSearchCache(redisClient, log)
		log.Info("Search cache enabled", "addr", cfg.Redis.Addr)
	}

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	authSvc := service.NewAuthService(userRepo, tokens, log)
	if err := authSvc.SeedOwner(context.Background(), cfg.Owner); err != nil {
		return nil, err
	}

	router := mux.NewRouter()

	server := &Server{
		config:     cfg,
		logger:     log,
		router:     router,
		db:         db,
		tokens:     tokens,
		producer:   producer,
		redis:      redisClient,
		auth:       authSvc,
		orders:     service.NewOrderService(orderRepo, catalogRepo, publisher, log),
		catalog:    service.NewCatalogService(catalogRepo, searchCache, log),
		statistics: service.NewStatisticsService(statsRepo, log),
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.setupRoutes()
	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its collaborators.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Error closing Redis client", "error", err)
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures the route groups of the four logical services.
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	auth := s.router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register_customer", s.registerCustomerHandler).Methods(http.MethodPost)
	auth.HandleFunc("/register_courier", s.registerCourierHandler).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	auth.Handle("/delete", s.authenticate("", http.HandlerFunc(s.deleteUserHandler))).Methods(http.MethodPost)

	customer := s.router.PathPrefix("/customer").Subrouter()
	customer.Use(s.requireRole(models.RoleCustomer))
	customer.HandleFunc("/search", s.searchHandler).Methods(http.MethodGet)
	customer.HandleFunc("/order", s.createOrderHandler).Methods(http.MethodPost)
	customer.HandleFunc("/status", s.orderStatusHandler).Methods(http.MethodGet)
	customer.HandleFunc("/delivered", s.deliveredHandler).Methods(http.MethodPost)

	courier := s.router.PathPrefix("/courier").Subrouter()
	courier.Use(s.requireRole(models.RoleCourier))
	courier.HandleFunc("/pick_up_order", s.pickUpOrderHandler).Methods(http.MethodPost)
	courier.HandleFunc("/orders_to_deliver", s.ordersToDeliverHandler).Methods(http.MethodGet)

	owner := s.router.PathPrefix("/owner").Subrouter()
	owner.Use(s.requireRole(models.RoleOwner))
	owner.HandleFunc("/update", s.updateHandler).Methods(http.MethodPost)
	owner.HandleFunc("/product_statistics", s.productStatisticsHandler).Methods(http.MethodGet)
	owner.HandleFunc("/category_statistics", s.categoryStatisticsHandler).Methods(http.MethodGet)
}
