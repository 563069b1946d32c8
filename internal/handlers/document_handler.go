package handlers

import (
	"io"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// maxUploadBytes caps upload size at 32 MB
const maxUploadBytes = 32 << 20

// DocumentHandler handles document upload and lifecycle requests
type DocumentHandler struct {
	ingestService interfaces.IngestService
	logger        arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestService interfaces.IngestService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// UploadHandler handles POST /api/upload requests. The document arrives
// as a multipart form with a "file" field. Any previously ingested
// document is replaced.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Missing 'file' field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	h.logger.Info().
		Str("filename", header.Filename).
		Int("size", len(data)).
		Msg("Received document upload")

	summary, err := h.ingestService.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", header.Filename).Msg("Ingest failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Document processed successfully",
		"filename":       summary.Filename,
		"chunks_created": summary.ChunkCount,
	})
}

// StatusHandler handles GET /api/documents/status requests
func (h *DocumentHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status, err := h.ingestService.Status(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"has_documents": status.HasDocument,
		"filename":      status.Filename,
		"chunk_count":   status.ChunkCount,
	})
}

// ClearHandler handles DELETE /api/clear-documents requests, removing the
// document and all chat sessions.
func (h *DocumentHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.ingestService.ClearAll(r.Context()); err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
