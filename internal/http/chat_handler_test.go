package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"akash-chat/internal/domain"
	"akash-chat/internal/llm"
	"akash-chat/internal/repository"
	"akash-chat/internal/service"
)

type memSessionRepo struct {
	sessions map[string]domain.ChatSession
	storeErr error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]domain.ChatSession)}
}

func (m *memSessionRepo) key(id, userID string) string { return userID + "|" + id }

func (m *memSessionRepo) GetOrCreate(_ context.Context, id, userID, seedTitle string) (domain.ChatSession, error) {
	if m.storeErr != nil {
		return domain.ChatSession{}, m.storeErr
	}
	if s, ok := m.sessions[m.key(id, userID)]; ok {
		return s, nil
	}
	now := time.Now().UTC()
	s := domain.ChatSession{
		ID:        id,
		UserID:    userID,
		Title:     domain.DeriveTitle(seedTitle),
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[m.key(id, userID)] = s
	return s, nil
}

func (m *memSessionRepo) GetByID(_ context.Context, id, userID string) (domain.ChatSession, error) {
	if m.storeErr != nil {
		return domain.ChatSession{}, m.storeErr
	}
	s, ok := m.sessions[m.key(id, userID)]
	if !ok {
		return domain.ChatSession{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (m *memSessionRepo) AppendExchange(_ context.Context, id, userID string, userMsg, assistantMsg domain.ChatMessage) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	s, ok := m.sessions[m.key(id, userID)]
	if !ok {
		return nil
	}
	s.Messages = append(s.Messages, userMsg, assistantMsg)
	s.UpdatedAt = time.Now().UTC()
	m.sessions[m.key(id, userID)] = s
	return nil
}

func (m *memSessionRepo) ListByUser(_ context.Context, userID string) ([]domain.ChatSessionSummary, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	var out []domain.ChatSessionSummary
	for _, s := range m.sessions {
		if s.UserID != userID {
			continue
		}
		out = append(out, domain.ChatSessionSummary{
			ID:           s.ID,
			UserID:       s.UserID,
			Title:        s.Title,
			MessageCount: len(s.Messages),
			CreatedAt:    s.CreatedAt,
			UpdatedAt:    s.UpdatedAt,
		})
	}
	return out, nil
}

type chatTestEnv struct {
	router *gin.Engine
	repo   *memSessionRepo
	client *llm.MockClient
	token  string
}

func newChatTestEnv(t *testing.T) *chatTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	repo := newMemSessionRepo()
	client := &llm.MockClient{Result: llm.CompletionResult{Content: "reply", Model: llm.DefaultModel}}

	jwtSvc := service.NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, service.NewMemoryRefreshTokenStore())
	pair, err := jwtSvc.GeneratePair(domain.User{ID: "u1", Email: "u1@example.com"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	chatSvc := service.NewChatService(logger, repo, client)
	chatH := NewChatHandler(logger, chatSvc)
	userH := NewUserHandler(logger, service.NewUserService(logger, nil), jwtSvc)
	router := NewRouter(logger, jwtSvc, userH, chatH)

	return &chatTestEnv{router: router, repo: repo, client: client, token: pair.AccessToken}
}

func (e *chatTestEnv) do(t *testing.T, method, path string, body any, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestChatEndpoint_RequiresAuth(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": "hi", "sessionId": "s1"}, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestChatEndpoint_RejectsMissingFields(t *testing.T) {
	env := newChatTestEnv(t)

	for _, body := range []gin.H{
		{"sessionId": "s1"},
		{"message": "hi"},
		{"message": "", "sessionId": ""},
	} {
		w := env.do(t, http.MethodPost, "/api/chat", body, true)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %v: expected 400, got %d (%s)", body, w.Code, w.Body.String())
		}
	}
}

func TestChatEndpoint_HappyPath(t *testing.T) {
	env := newChatTestEnv(t)
	env.client.Result.Usage = json.RawMessage(`{"total_tokens":3}`)

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": "Hello", "sessionId": "s1"}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		Response  string          `json:"response"`
		SessionID string          `json:"session_id"`
		Model     string          `json:"model"`
		Usage     json.RawMessage `json:"usage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "reply" || resp.SessionID != "s1" || resp.Model != llm.DefaultModel {
		t.Fatalf("unexpected response: %+v", resp)
	}

	session, err := env.repo.GetByID(context.Background(), "s1", "u1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(session.Messages) != 2 {
		t.Fatalf("expected persisted exchange, got %d messages", len(session.Messages))
	}
	if session.Title != "Hello" {
		t.Fatalf("expected title from first message, got %q", session.Title)
	}
}

func TestChatEndpoint_GatewayStatusPassthrough(t *testing.T) {
	env := newChatTestEnv(t)
	env.client.Err = &llm.APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": "Hello", "sessionId": "s1"}, true)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "rate limited" {
		t.Fatalf("unexpected error message: %q", resp.Error)
	}
}

func TestChatEndpoint_MissingAPIKeyIs400(t *testing.T) {
	env := newChatTestEnv(t)
	env.client.Err = llm.ErrAPIKeyMissing

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": "Hello", "sessionId": "s1"}, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChatEndpoint_StoreDownStill200(t *testing.T) {
	env := newChatTestEnv(t)
	env.repo.storeErr = errors.New("connection refused")

	w := env.do(t, http.MethodPost, "/api/chat", gin.H{"message": "Hello", "sessionId": "s1"}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 despite store outage, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestSessionEndpoints(t *testing.T) {
	env := newChatTestEnv(t)

	// Lista vacía al inicio.
	w := env.do(t, http.MethodGet, "/api/sessions", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var listResp struct {
		Sessions []domain.ChatSessionSummary `json:"sessions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Sessions) != 0 {
		t.Fatalf("expected empty list, got %+v", listResp.Sessions)
	}

	// Crear y volver a listar.
	w = env.do(t, http.MethodPost, "/api/sessions", gin.H{"title": "My chat"}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var createResp struct {
		Session domain.ChatSession `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &createResp); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if createResp.Session.ID == "" || createResp.Session.Title != "My chat" {
		t.Fatalf("unexpected session: %+v", createResp.Session)
	}

	w = env.do(t, http.MethodGet, "/api/sessions/"+createResp.Session.ID, nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/sessions/nope", nil, true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get missing: expected 404, got %d", w.Code)
	}
}

func TestSessionEndpoints_StoreDownDegrades(t *testing.T) {
	env := newChatTestEnv(t)
	env.repo.storeErr = errors.New("connection refused")

	// Listar degrada a lista vacía, no a error.
	w := env.do(t, http.MethodGet, "/api/sessions", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}

	// Punto único degrada a placeholder con el mismo id.
	w = env.do(t, http.MethodGet, "/api/sessions/s7", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("get degraded: expected 200, got %d", w.Code)
	}
	var resp struct {
		Session domain.ChatSession `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Session.ID != "s7" || len(resp.Session.Messages) != 0 {
		t.Fatalf("unexpected placeholder: %+v", resp.Session)
	}
}

func TestModelsEndpoint(t *testing.T) {
	env := newChatTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/models", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Models  []llm.ModelInfo `json:"models"`
		Default string          `json:"default"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Default != llm.DefaultModel || len(resp.Models) == 0 {
		t.Fatalf("unexpected catalogue: %+v", resp)
	}
}
