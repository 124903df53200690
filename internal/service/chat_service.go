package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"akash-chat/internal/domain"
	"akash-chat/internal/llm"
	"akash-chat/internal/repository"
)

// ChatService orquesta cada turno de chat: resuelve la sesión, arma el
// contexto, llama al gateway de completions y persiste el intercambio.
// Las fallas de la tienda nunca abortan el request; las del gateway sí,
// porque sin respuesta no hay nada que devolver.
type ChatService struct {
	logger   *zap.Logger
	sessions repository.ChatSessionRepository
	client   llm.CompletionClient
	builder  ContextBuilder
}

var ErrChatInvalidInput = errors.New("message and session id are required")

func NewChatService(logger *zap.Logger, sessions repository.ChatSessionRepository, client llm.CompletionClient) *ChatService {
	return &ChatService{
		logger:   logger,
		sessions: sessions,
		client:   client,
	}
}

// ChatInput es un turno entrante ya autenticado. History es el historial que
// mantiene el cliente; el hot path confía en él en vez de releer la tienda.
type ChatInput struct {
	Message   string
	SessionID string
	Config    domain.CompletionConfig
	History   []domain.ChatMessage
}

// ChatResult es lo que recibe el caller cuando el turno terminó bien.
type ChatResult struct {
	Response  string
	SessionID string
	Model     string
	Usage     json.RawMessage
}

// Chat procesa un turno completo. Devuelve error solo por entrada inválida o
// falla del gateway; la persistencia degradada se loguea y sigue.
func (s *ChatService) Chat(ctx context.Context, userID string, input ChatInput) (ChatResult, error) {
	message := strings.TrimSpace(input.Message)
	sessionID := strings.TrimSpace(input.SessionID)
	if message == "" || sessionID == "" {
		return ChatResult{}, ErrChatInvalidInput
	}

	session := s.resolveSession(ctx, sessionID, userID, message)

	messages := s.builder.Build(input.Config, input.History, message)

	result, err := s.client.Complete(ctx, input.Config, messages)
	if err != nil {
		return ChatResult{}, err
	}

	now := time.Now().UTC()
	userMsg := domain.ChatMessage{Role: domain.RoleUser, Content: message, Timestamp: now}
	assistantMsg := domain.ChatMessage{Role: domain.RoleAssistant, Content: result.Content, Timestamp: now}

	// Best-effort: la respuesta ya existe y se devuelve aunque el append falle.
	if err := s.sessions.AppendExchange(ctx, session.ID, userID, userMsg, assistantMsg); err != nil {
		s.logger.Warn("append exchange failed",
			zap.Error(err),
			zap.String("session_id", session.ID),
		)
	}

	return ChatResult{
		Response:  result.Content,
		SessionID: session.ID,
		Model:     result.Model,
		Usage:     result.Usage,
	}, nil
}

// resolveSession busca o crea la sesión; si la tienda no responde devuelve un
// valor local con la misma forma para que el resto del pipeline no se entere.
func (s *ChatService) resolveSession(ctx context.Context, sessionID, userID, seedTitle string) domain.ChatSession {
	session, err := s.sessions.GetOrCreate(ctx, sessionID, userID, seedTitle)
	if err == nil {
		return session
	}

	s.logger.Warn("session store unavailable, using local session",
		zap.Error(err),
		zap.String("session_id", sessionID),
	)
	now := time.Now().UTC()
	return domain.ChatSession{
		ID:        sessionID,
		UserID:    userID,
		Title:     domain.DeriveTitle(seedTitle),
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ListSessions lista las sesiones del usuario, más reciente primero. Con la
// tienda caída devuelve lista vacía, nunca error.
func (s *ChatService) ListSessions(ctx context.Context, userID string) []domain.ChatSessionSummary {
	summaries, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Warn("list sessions failed, returning empty", zap.Error(err), zap.String("user_id", userID))
		return []domain.ChatSessionSummary{}
	}
	if summaries == nil {
		summaries = []domain.ChatSessionSummary{}
	}
	return summaries
}

// CreateSession crea una sesión vacía con id generado por el servidor. Si la
// tienda no responde entrega una sesión local equivalente.
func (s *ChatService) CreateSession(ctx context.Context, userID, title string) domain.ChatSession {
	id := uuid.NewString()
	session, err := s.sessions.GetOrCreate(ctx, id, userID, title)
	if err == nil {
		return session
	}

	s.logger.Warn("create session degraded to local", zap.Error(err), zap.String("user_id", userID))
	now := time.Now().UTC()
	return domain.ChatSession{
		ID:        id,
		UserID:    userID,
		Title:     domain.DeriveTitle(title),
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// GetSession trae una sesión puntual del usuario. Un miss real devuelve
// ErrSessionNotFound; una tienda caída degrada a un placeholder vacío con el
// mismo id, igual que la creación.
func (s *ChatService) GetSession(ctx context.Context, sessionID, userID string) (domain.ChatSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID, userID)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, repository.ErrSessionNotFound) {
		return domain.ChatSession{}, err
	}

	s.logger.Warn("get session degraded to placeholder", zap.Error(err), zap.String("session_id", sessionID))
	return domain.ChatSession{
		ID:       sessionID,
		UserID:   userID,
		Messages: []domain.ChatMessage{},
	}, nil
}
