package api

import (
	"net/http"
)

const maxCatalogUploadBytes = 8 << 20

// updateHandler ingests a catalog file uploaded as multipart form data.
func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCatalogUploadBytes); err != nil {
		s.respondWithMessage(w, http.StatusBadRequest, "Field file is missing.")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		s.respondWithMessage(w, http.StatusBadRequest, "Field file is missing.")
		return
	}
	defer file.Close()

	if err := s.catalog.Update(r.Context(), file); err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, nil)
}

// productStatisticsHandler reports sold/waiting quantities per ordered
// product.
func (s *Server) productStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	statistics, err := s.statistics.ProductStatistics(r.Context())
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"statistics": statistics})
}

// categoryStatisticsHandler reports category names ranked by sold count.
func (s *Server) categoryStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	statistics, err := s.statistics.CategoryStatistics(r.Context())
	if err != nil {
		s.respondWithServiceError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"statistics": statistics})
}
