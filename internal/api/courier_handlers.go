package api

import (
	"net/http"
)

// pickUpOrderHandler transitions a created order to pending pickup.
func (s *Server) pickUpOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := s.parseOrderID(w, r)
	if !ok {
		return
	}

	if err := s.orders.PickUp(r.Context(), id); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, nil)
}

// ordersToDeliverHandler lists orders waiting for a courier.
func (s *Server) ordersToDeliverHandler(w http.ResponseWriter, r *http.Request) {
	pickups, err := s.orders.PendingPickups(r.Context())
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": pickups})
}
