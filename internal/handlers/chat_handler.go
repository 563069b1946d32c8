package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loquor/internal/interfaces"
)

// ChatRequest is the POST /api/chat request body
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	chatService interfaces.ChatService
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService interfaces.ChatService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// ChatHandler handles POST /api/chat requests
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode chat request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		WriteError(w, http.StatusBadRequest, "Query field is required")
		return
	}

	result, err := h.chatService.Answer(r.Context(), req.Query, req.SessionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("Chat request failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"answer":     result.Answer,
		"session_id": result.SessionID,
	})
}

// HistoryHandler handles GET /api/chat/history/{id} requests
func (h *ChatHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/api/chat/history/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		WriteError(w, http.StatusBadRequest, "Session id is required")
		return
	}

	turns, err := h.chatService.GetHistory(r.Context(), sessionID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	messages := make([]map[string]string, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, map[string]string{
			"role":    turn.Role,
			"content": turn.Content,
		})
	}

	WriteJSON(w, http.StatusOK, messages)
}

// SessionsHandler handles GET /api/conversations requests
func (h *ChatHandler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summaries, err := h.chatService.ListSessions(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, summaries)
}

// HealthHandler handles GET /api/chat/health requests, probing the
// embedding and generation providers.
func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.chatService.HealthCheck(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
