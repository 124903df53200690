package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"akash-chat/internal/domain"
)

var ErrSessionNotFound = errors.New("chat session not found")

// ChatSessionRepository define el contrato de persistencia para sesiones de
// chat. Cualquier error distinto de ErrSessionNotFound se trata como tienda
// inaccesible; la capa de servicio decide cómo degradar.
type ChatSessionRepository interface {
	GetOrCreate(ctx context.Context, id, userID, seedTitle string) (domain.ChatSession, error)
	GetByID(ctx context.Context, id, userID string) (domain.ChatSession, error)
	AppendExchange(ctx context.Context, id, userID string, userMsg, assistantMsg domain.ChatMessage) error
	ListByUser(ctx context.Context, userID string) ([]domain.ChatSessionSummary, error)
}

// PgChatSessionRepository guarda cada sesión como un documento: los mensajes
// viven en una columna jsonb y se agregan con un único UPDATE, de modo que la
// atomicidad por fila cubre el intercambio completo.
type PgChatSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatSessionRepository(pool *pgxpool.Pool) *PgChatSessionRepository {
	return &PgChatSessionRepository{pool: pool}
}

func (r *PgChatSessionRepository) GetOrCreate(ctx context.Context, id, userID, seedTitle string) (domain.ChatSession, error) {
	session, err := r.GetByID(ctx, id, userID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return domain.ChatSession{}, err
	}

	now := time.Now().UTC()
	session = domain.ChatSession{
		ID:        id,
		UserID:    userID,
		Title:     domain.DeriveTitle(seedTitle),
		Messages:  []domain.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	const query = `
		INSERT INTO chat_sessions (id, user_id, title, messages, created_at, updated_at)
		VALUES ($1, $2, $3, '[]'::jsonb, $4, $5)
		ON CONFLICT (id, user_id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query, session.ID, session.UserID, session.Title, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("insert chat session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Otro request la creó primero; leemos la versión persistida.
		return r.GetByID(ctx, id, userID)
	}
	return session, nil
}

func (r *PgChatSessionRepository) GetByID(ctx context.Context, id, userID string) (domain.ChatSession, error) {
	const query = `
		SELECT id, user_id, title, messages, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`
	var (
		session domain.ChatSession
		rawMsgs []byte
	)
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&rawMsgs,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.ChatSession{}, fmt.Errorf("get chat session: %w", err)
	}
	if err := json.Unmarshal(rawMsgs, &session.Messages); err != nil {
		return domain.ChatSession{}, fmt.Errorf("decode session messages: %w", err)
	}
	if session.Messages == nil {
		session.Messages = []domain.ChatMessage{}
	}
	return session, nil
}

func (r *PgChatSessionRepository) AppendExchange(ctx context.Context, id, userID string, userMsg, assistantMsg domain.ChatMessage) error {
	pair, err := json.Marshal([]domain.ChatMessage{userMsg, assistantMsg})
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}

	const query = `
		UPDATE chat_sessions
		SET messages = messages || $3::jsonb, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`
	// Sin fila coincidente el UPDATE no hace nada: la sesión solo vivió en
	// memoria porque la creación degradó, y el append es best-effort.
	_, err = r.pool.Exec(ctx, query, id, userID, pair, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append exchange: %w", err)
	}
	return nil
}

func (r *PgChatSessionRepository) ListByUser(ctx context.Context, userID string) ([]domain.ChatSessionSummary, error) {
	const query = `
		SELECT id, user_id, title, jsonb_array_length(messages), created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ChatSessionSummary
	for rows.Next() {
		var s domain.ChatSessionSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.MessageCount, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}
