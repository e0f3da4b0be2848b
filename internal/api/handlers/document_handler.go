package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
	"github.com/markdave123-py/vectora/internal/services"
)

type DocumentHandler struct {
	objectclient core.ObjectClient
	ingest       *services.IngestService
}

func NewDocumentHandler(objectclient core.ObjectClient, ingest *services.IngestService) *DocumentHandler {
	return &DocumentHandler{objectclient: objectclient, ingest: ingest}
}

type vectorizeRequest struct {
	StorageKey  string `json:"storage_key"`
	SourceURL   string `json:"source_url"`
	ForceReload bool   `json:"force_reload"`
}

// Vectorize runs the full ingestion pipeline for a document referenced by a
// storage key or a public URL.
func (h *DocumentHandler) Vectorize(w http.ResponseWriter, r *http.Request) {
	var req vectorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StorageKey == "" && req.SourceURL == "" {
		http.Error(w, "either storage_key or source_url is required", http.StatusBadRequest)
		return
	}

	result, err := h.ingest.ProcessDocument(r.Context(), req.StorageKey, req.SourceURL, req.ForceReload)
	if err != nil {
		log.Printf("DocumentHandler: ingestion failed (key=%q url=%q): %v", req.StorageKey, req.SourceURL, err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Upload stores a file in object storage and returns the key to vectorize it
// with later.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {

	r.ParseMultipartForm(52 << 20) // 52 MB

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Sanitize filename to prevent path traversal or invalid characters
	cleanFilename := filepath.Base(header.Filename)
	key := fmt.Sprintf("%s/%s", uuid.NewString(), cleanFilename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadCtx, key, file, contentType)
	if err != nil {
		log.Printf("DocumentHandler: upload failed for %s: %v", key, err)
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	doc := models.Document{
		Key:         key,
		FileName:    header.Filename,
		StorageURL:  url,
		ContentType: contentType,
		UploadedAt:  time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

// writeServiceError maps the error taxonomy to response codes: input errors
// 400, missing sources 404, unparseable documents 422, retryable
// infrastructure failures 502, everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrNoSource), errors.Is(err, services.ErrEmptyQuery):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrSourceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrNoExtractableContent):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRetrievalUnavailable), errors.Is(err, core.ErrInfrastructure):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "error",
		"detail": err.Error(),
	})
}
