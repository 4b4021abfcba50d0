package api

import (
	"encoding/json"
	"net/http"

	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/service"
)

type registerBody struct {
	Forename string `json:"forename"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, role string) {
	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondWithJSON(w, http.StatusBadRequest, struct{}{})
		return
	}
	defer r.Body.Close()

	err := s.auth.Register(r.Context(), service.RegisterRequest{
		Forename: body.Forename,
		Surname:  body.Surname,
		Email:    body.Email,
		Password: body.Password,
	}, role)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, nil)
}

// registerCustomerHandler creates a customer account.
func (s *Server) registerCustomerHandler(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, models.RoleCustomer)
}

// registerCourierHandler creates a courier account.
func (s *Server) registerCourierHandler(w http.ResponseWriter, r *http.Request) {
	s.register(w, r, models.RoleCourier)
}

// loginHandler verifies credentials and returns an access token.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondWithJSON(w, http.StatusBadRequest, struct{}{})
		return
	}
	defer r.Body.Close()

	accessToken, err := s.auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// deleteUserHandler removes the authenticated user's account.
func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Delete(r.Context(), identityFromContext(r.Context())); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, nil)
}
