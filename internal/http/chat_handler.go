package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"akash-chat/internal/domain"
	"akash-chat/internal/llm"
	"akash-chat/internal/repository"
	"akash-chat/internal/service"
)

// ChatHandler mantiene dependencias para los endpoints de chat y sesiones.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		chatServ: chatServ,
	}
}

// Chat maneja POST /api/chat: un turno completo de conversación.
func (h *ChatHandler) Chat(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Message             string                  `json:"message"`
		SessionID           string                  `json:"sessionId"`
		Config              domain.CompletionConfig `json:"config"`
		ConversationHistory []domain.ChatMessage    `json:"conversationHistory"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message and session ID are required"})
		return
	}

	result, err := h.chatServ.Chat(c.Request.Context(), claims.UserID, service.ChatInput{
		Message:   req.Message,
		SessionID: req.SessionID,
		Config:    req.Config,
		History:   req.ConversationHistory,
	})
	if err != nil {
		h.respondChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":   result.Response,
		"session_id": result.SessionID,
		"model":      result.Model,
		"usage":      result.Usage,
	})
}

// respondChatError traduce errores del orquestador a la taxonomía HTTP: 400
// por entrada o configuración, status del upstream tal cual en fallas de
// completion, 500 para el resto.
func (h *ChatHandler) respondChatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChatInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message and session ID are required"})
	case errors.Is(err, llm.ErrAPIKeyMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "AkashChat API key not configured. Please add AKASH_CHAT_API_KEY to your environment."})
	default:
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			h.logger.Warn("completion failed", zap.Int("status", apiErr.StatusCode), zap.String("message", apiErr.Message))
			c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
			return
		}
		h.logger.Error("chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error: " + err.Error()})
	}
}

// ListSessions maneja GET /api/sessions.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	sessions := h.chatServ.ListSessions(c.Request.Context(), claims.UserID)
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession maneja POST /api/sessions.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create session request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session := h.chatServ.CreateSession(c.Request.Context(), claims.UserID, req.Title)
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// GetSession maneja GET /api/sessions/:sessionId.
func (h *ChatHandler) GetSession(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	session, err := h.chatServ.GetSession(c.Request.Context(), c.Param("sessionId"), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.Error("get session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// ListModels maneja GET /api/models: el catálogo que renderiza el selector.
func (h *ChatHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  llm.KnownModels,
		"default": llm.DefaultModel,
	})
}
