package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/markdave123-py/vectora/internal/models"
	"github.com/markdave123-py/vectora/internal/services"
)

type SearchHandler struct {
	search *services.SearchService
}

func NewSearchHandler(search *services.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	FileHash string `json:"file_hash"`
}

type searchResponse struct {
	Hits []models.SearchHit `json:"hits"`
}

// Search embeds the query and returns ranked similarity hits, optionally
// scoped to one document fingerprint.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	hits, err := h.search.Search(r.Context(), req.Query, req.Limit, req.FileHash)
	if err != nil {
		log.Printf("SearchHandler: search failed: %v", err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searchResponse{Hits: hits})
}
