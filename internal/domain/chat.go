package domain

import (
	"strings"
	"time"
)

// Roles permitidos para un mensaje dentro de una conversación.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage es un turno de la conversación. Inmutable una vez agregado.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ChatSession es una conversación persistida, siempre ligada a un único dueño.
type ChatSession struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ChatSessionSummary es la vista liviana para listados: sin cuerpo de mensajes.
type ChatSessionSummary struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	titleMaxRunes       = 50
	defaultSessionTitle = "New Chat"
)

// DeriveTitle arma el título de una sesión a partir del primer mensaje:
// primeros 50 caracteres más "..." si hubo recorte.
func DeriveTitle(seed string) string {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return defaultSessionTitle
	}
	runes := []rune(seed)
	if len(runes) <= titleMaxRunes {
		return seed
	}
	return string(runes[:titleMaxRunes]) + "..."
}
