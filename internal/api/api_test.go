package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvasiljevic/delivery-shop/internal/config"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/service"
	"github.com/mvasiljevic/delivery-shop/pkg/apperrors"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
	"github.com/mvasiljevic/delivery-shop/pkg/token"
)

type fakeOrderSvc struct {
	created     *models.Order
	createErr   error
	pickUpErr   error
	deliverErr  error
	pickups     []models.PendingPickup
	history     []models.UserOrder
	lastUser    string
	lastLines   []service.OrderLineInput
	lastOrderID int64
}

func (f *fakeOrderSvc) Create(_ context.Context, user string, lines []service.OrderLineInput) (*models.Order, error) {
	f.lastUser = user
	f.lastLines = lines
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeOrderSvc) PickUp(_ context.Context, orderID int64) error {
	f.lastOrderID = orderID
	return f.pickUpErr
}

func (f *fakeOrderSvc) MarkDelivered(_ context.Context, orderID int64) error {
	f.lastOrderID = orderID
	return f.deliverErr
}

func (f *fakeOrderSvc) PendingPickups(context.Context) ([]models.PendingPickup, error) {
	return f.pickups, nil
}

func (f *fakeOrderSvc) OrdersForUser(_ context.Context, user string) ([]models.UserOrder, error) {
	f.lastUser = user
	return f.history, nil
}

type fakeCatalogSvc struct {
	updateErr    error
	searchResult *service.SearchResult
	updated      int
}

func (f *fakeCatalogSvc) Update(_ context.Context, file io.Reader) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated++
	return nil
}

func (f *fakeCatalogSvc) Search(context.Context, string, string) (*service.SearchResult, error) {
	return f.searchResult, nil
}

type fakeStatsSvc struct {
	products   []service.ProductStatistic
	categories []string
}

func (f *fakeStatsSvc) ProductStatistics(context.Context) ([]service.ProductStatistic, error) {
	return f.products, nil
}

func (f *fakeStatsSvc) CategoryStatistics(context.Context) ([]string, error) {
	return f.categories, nil
}

type fakeAuthSvc struct {
	registerErr error
	loginToken  string
	loginErr    error
	deleteErr   error
	lastRole    string
	lastEmail   string
}

func (f *fakeAuthSvc) Register(_ context.Context, req service.RegisterRequest, role string) error {
	f.lastRole = role
	f.lastEmail = req.Email
	return f.registerErr
}

func (f *fakeAuthSvc) Login(_ context.Context, email, _ string) (string, error) {
	f.lastEmail = email
	return f.loginToken, f.loginErr
}

func (f *fakeAuthSvc) Delete(_ context.Context, email string) error {
	f.lastEmail = email
	return f.deleteErr
}

func newTestServer() *Server {
	s := &Server{
		config:     &config.Config{},
		logger:     logger.Nop(),
		router:     mux.NewRouter(),
		tokens:     token.NewManager("test-secret", time.Hour),
		auth:       &fakeAuthSvc{},
		orders:     &fakeOrderSvc{},
		catalog:    &fakeCatalogSvc{},
		statistics: &fakeStatsSvc{},
	}
	s.setupRoutes()
	return s
}

func bearerToken(t *testing.T, s *Server, email string, roles ...string) string {
	t.Helper()
	signed, err := s.tokens.Issue(email, "Test", "User", roles)
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(s *Server, method, path, auth string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer()

	rec := doRequest(s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAuthorizationFailures(t *testing.T) {
	s := newTestServer()

	cases := []struct {
		name string
		auth string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer garbage"},
		{"wrong role", bearerToken(t, s, "pera@gmail.com", models.RoleCustomer)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodGet, "/courier/orders_to_deliver", tc.auth, nil)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"msg": "Missing Authorization Header"}`, rec.Body.String())
		})
	}
}

func TestOrdersToDeliver(t *testing.T) {
	s := newTestServer()
	s.orders = &fakeOrderSvc{pickups: []models.PendingPickup{{ID: 3, Email: "pera@gmail.com"}}}

	rec := doRequest(s, http.MethodGet, "/courier/orders_to_deliver", bearerToken(t, s, "kurir@gmail.com", models.RoleCourier), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orders": [{"id": 3, "email": "pera@gmail.com"}]}`, rec.Body.String())
}

func TestPickUpOrderIDValidation(t *testing.T) {
	s := newTestServer()
	auth := bearerToken(t, s, "kurir@gmail.com", models.RoleCourier)

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"missing id", `{}`, "Missing order id."},
		{"zero id", `{"id": 0}`, "Missing order id."},
		{"negative id", `{"id": -2}`, "Invalid order id."},
		{"non-numeric id", `{"id": "abc"}`, "Invalid order id."},
		{"fractional id", `{"id": 1.5}`, "Invalid order id."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/courier/pick_up_order", auth, strings.NewReader(tc.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message": "`+tc.message+`"}`, rec.Body.String())
		})
	}
}

func TestPickUpOrderSuccessAndConflict(t *testing.T) {
	s := newTestServer()
	orders := &fakeOrderSvc{}
	s.orders = orders
	auth := bearerToken(t, s, "kurir@gmail.com", models.RoleCourier)

	rec := doRequest(s, http.MethodPost, "/courier/pick_up_order", auth, strings.NewReader(`{"id": 5}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), orders.lastOrderID)

	// A numeric string id is accepted as well.
	rec = doRequest(s, http.MethodPost, "/courier/pick_up_order", auth, strings.NewReader(`{"id": "7"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), orders.lastOrderID)

	orders.pickUpErr = apperrors.NewStateConflict("Invalid order id.")
	rec = doRequest(s, http.MethodPost, "/courier/pick_up_order", auth, strings.NewReader(`{"id": 5}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message": "Invalid order id."}`, rec.Body.String())
}

func TestCreateOrderHandler(t *testing.T) {
	s := newTestServer()
	orders := &fakeOrderSvc{created: &models.Order{ID: 12, TotalPrice: decimal.NewFromInt(25)}}
	s.orders = orders
	auth := bearerToken(t, s, "pera@gmail.com", models.RoleCustomer)

	rec := doRequest(s, http.MethodPost, "/customer/order", auth, strings.NewReader(`{"requests": [{"id": 1, "quantity": 2}]}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": 12}`, rec.Body.String())
	// The identity comes from the token, not the body.
	assert.Equal(t, "pera@gmail.com", orders.lastUser)
	require.Len(t, orders.lastLines, 1)
	assert.Equal(t, service.OrderLineInput{ProductID: 1, Quantity: 2}, orders.lastLines[0])
}

func TestCreateOrderFieldPresence(t *testing.T) {
	s := newTestServer()
	auth := bearerToken(t, s, "pera@gmail.com", models.RoleCustomer)

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"missing requests", `{}`, "Field requests is missing."},
		{"missing id", `{"requests": [{"quantity": 2}]}`, "Product id is missing for request number 0."},
		{"missing quantity", `{"requests": [{"id": 1, "quantity": 2}, {"id": 2}]}`, "Product quantity is missing for request number 1."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/customer/order", auth, strings.NewReader(tc.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message": "`+tc.message+`"}`, rec.Body.String())
		})
	}
}

func TestCatalogUpdateHandler(t *testing.T) {
	s := newTestServer()
	catalog := &fakeCatalogSvc{}
	s.catalog = catalog
	auth := bearerToken(t, s, "onlymoney@gmail.com", models.RoleOwner)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("food,Bread,2\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/owner/update", &buf)
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, catalog.updated)

	// No file part at all.
	rec = doRequest(s, http.MethodPost, "/owner/update", auth, strings.NewReader(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message": "Field file is missing."}`, rec.Body.String())
}

func TestStatisticsHandlers(t *testing.T) {
	s := newTestServer()
	s.statistics = &fakeStatsSvc{
		products:   []service.ProductStatistic{{Name: "Bread", Sold: 1, Waiting: 0}},
		categories: []string{"Drinks", "Food"},
	}
	auth := bearerToken(t, s, "onlymoney@gmail.com", models.RoleOwner)

	rec := doRequest(s, http.MethodGet, "/owner/product_statistics", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"statistics": [{"name": "Bread", "sold": 1, "waiting": 0}]}`, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/owner/category_statistics", auth, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"statistics": ["Drinks", "Food"]}`, rec.Body.String())
}

func TestLoginHandler(t *testing.T) {
	s := newTestServer()
	s.auth = &fakeAuthSvc{loginToken: "signed-token"}

	rec := doRequest(s, http.MethodPost, "/auth/login", "", strings.NewReader(`{"email": "pera@gmail.com", "password": "verysecret"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accessToken": "signed-token"}`, rec.Body.String())
}

func TestRegisterHandlersAssignRole(t *testing.T) {
	s := newTestServer()
	auth := &fakeAuthSvc{}
	s.auth = auth

	body := `{"forename": "Pera", "surname": "Peric", "email": "pera@gmail.com", "password": "verysecret"}`

	rec := doRequest(s, http.MethodPost, "/auth/register_customer", "", strings.NewReader(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleCustomer, auth.lastRole)

	rec = doRequest(s, http.MethodPost, "/auth/register_courier", "", strings.NewReader(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleCourier, auth.lastRole)
}

func TestDeleteUsesTokenIdentity(t *testing.T) {
	s := newTestServer()
	auth := &fakeAuthSvc{}
	s.auth = auth

	rec := doRequest(s, http.MethodPost, "/auth/delete", bearerToken(t, s, "pera@gmail.com", models.RoleCustomer), strings.NewReader(`{}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pera@gmail.com", auth.lastEmail)
}

func TestOrderStatusHandler(t *testing.T) {
	s := newTestServer()
	created, _ := time.Parse(time.RFC3339, "2024-03-01T10:00:00Z")
	s.orders = &fakeOrderSvc{history: []models.UserOrder{
		{
			Products: []models.OrderLineView{
				{Categories: []string{"food"}, Name: "Bread", Price: decimal.NewFromInt(2), Quantity: 1},
			},
			Price:     decimal.NewFromInt(2),
			Status:    models.OrderStatusCreated,
			Timestamp: created,
		},
	}}
	auth := bearerToken(t, s, "pera@gmail.com", models.RoleCustomer)

	rec := doRequest(s, http.MethodGet, "/customer/status", auth, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CREATED"`)
	assert.Contains(t, rec.Body.String(), `"name":"Bread"`)
}
