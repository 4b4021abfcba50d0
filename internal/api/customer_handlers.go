package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mvasiljevic/delivery-shop/internal/service"
)

// parseOrderID extracts and validates the order id from a request body,
// writing the appropriate failure response itself. The returned bool
// signals whether the id is usable. Both numeric and numeric-string ids are
// accepted.
func (s *Server) parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var body struct {
		ID interface{} `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondWithJSON(w, http.StatusBadRequest, struct{}{})
		return 0, false
	}
	defer r.Body.Close()

	if body.ID == nil {
		s.respondWithMessage(w, http.StatusBadRequest, "Missing order id.")
		return 0, false
	}

	var id int64
	switch v := body.ID.(type) {
	case float64:
		if v != math.Trunc(v) {
			s.respondWithMessage(w, http.StatusBadRequest, "Invalid order id.")
			return 0, false
		}
		id = int64(v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			s.respondWithMessage(w, http.StatusBadRequest, "Invalid order id.")
			return 0, false
		}
		id = parsed
	default:
		s.respondWithMessage(w, http.StatusBadRequest, "Invalid order id.")
		return 0, false
	}

	if id == 0 {
		s.respondWithMessage(w, http.StatusBadRequest, "Missing order id.")
		return 0, false
	}
	if id < 0 {
		s.respondWithMessage(w, http.StatusBadRequest, "Invalid order id.")
		return 0, false
	}

	return id, true
}

// searchHandler filters the catalog by optional name and category
// substrings.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	result, err := s.catalog.Search(r.Context(), r.URL.Query().Get("name"), r.URL.Query().Get("category"))
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, result)
}

// createOrderHandler places a new order for the authenticated customer.
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Requests *[]struct {
			ID       *int64 `json:"id"`
			Quantity *int   `json:"quantity"`
		} `json:"requests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondWithJSON(w, http.StatusBadRequest, struct{}{})
		return
	}
	defer r.Body.Close()

	if body.Requests == nil {
		s.respondWithMessage(w, http.StatusBadRequest, "Field requests is missing.")
		return
	}

	lines := make([]service.OrderLineInput, 0, len(*body.Requests))
	for i, request := range *body.Requests {
		if request.ID == nil {
			s.respondWithMessage(w, http.StatusBadRequest, fmt.Sprintf("Product id is missing for request number %d.", i))
			return
		}
		if request.Quantity == nil {
			s.respondWithMessage(w, http.StatusBadRequest, fmt.Sprintf("Product quantity is missing for request number %d.", i))
			return
		}
		lines = append(lines, service.OrderLineInput{ProductID: *request.ID, Quantity: *request.Quantity})
	}

	order, err := s.orders.Create(r.Context(), identityFromContext(r.Context()), lines)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]int64{"id": order.ID})
}

// orderStatusHandler returns the customer's full order history.
func (s *Server) orderStatusHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.OrdersForUser(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// deliveredHandler marks a pending order as delivered.
func (s *Server) deliveredHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseOrderID(w, r)
	if !ok {
		return
	}

	if err := s.orders.MarkDelivered(r.Context(), id); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, nil)
}
