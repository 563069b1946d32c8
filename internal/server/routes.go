package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Documents
	mux.HandleFunc("/api/upload", s.app.DocumentHandler.UploadHandler)
	mux.HandleFunc("/api/documents/status", s.app.DocumentHandler.StatusHandler)
	mux.HandleFunc("/api/clear-documents", s.app.DocumentHandler.ClearHandler)

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)
	mux.HandleFunc("/api/chat/history/", s.app.ChatHandler.HistoryHandler)
	mux.HandleFunc("/api/chat/health", s.app.ChatHandler.HealthHandler)
	mux.HandleFunc("/api/conversations", s.app.ChatHandler.SessionsHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
