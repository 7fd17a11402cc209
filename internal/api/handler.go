package api

import (
	"encoding/json"
	"net/http"

	"github.com/aurora-chat/aurora/internal/chat"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionCookie = "chat_session"

type Handler struct {
	chat   *chat.Service
	logger *zap.Logger
}

func NewHandler(chatService *chat.Service, logger *zap.Logger) *Handler {
	return &Handler{
		chat:   chatService,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/message", h.HandleMessage)
	r.Get("/api/messages", h.GetMessages)
	r.Delete("/api/messages", h.ClearMessages)
}

type MessageRequest struct {
	Content string `json:"content"`
}

// session returns the caller's session id, minting one on first contact. The
// cookie is the sole partition key for history.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conv, err := h.chat.Conversation(sessionID)
	if err != nil {
		h.logger.Error("failed to load conversation",
			zap.Error(err),
			zap.String("session", sessionID))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.chat.HandleUserMessage(r.Context(), conv, req.Content); err != nil {
		h.logger.Error("failed to process message",
			zap.Error(err),
			zap.String("session", sessionID))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeTranscript(w, conv)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)

	conv, err := h.chat.Conversation(sessionID)
	if err != nil {
		h.logger.Error("failed to load conversation",
			zap.Error(err),
			zap.String("session", sessionID))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeTranscript(w, conv)
}

func (h *Handler) ClearMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := h.session(w, r)

	conv, err := h.chat.Conversation(sessionID)
	if err != nil {
		h.logger.Error("failed to load conversation",
			zap.Error(err),
			zap.String("session", sessionID))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.chat.Clear(conv); err != nil {
		h.logger.Error("failed to clear history",
			zap.Error(err),
			zap.String("session", sessionID))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) writeTranscript(w http.ResponseWriter, conv *chat.Conversation) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(conv.Messages()); err != nil {
		h.logger.Error("failed to encode transcript", zap.Error(err))
	}
}
