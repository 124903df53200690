package service

import "akash-chat/internal/domain"

// historyWindow limita cuánta conversación previa viaja al servicio de
// completions para no crecer sin límite.
const historyWindow = 10

// ContextBuilder arma la lista exacta de mensajes que se envía por turno.
// Sin estado: el resultado depende solo de los argumentos.
type ContextBuilder struct{}

// Build devuelve, en orden: el system prompt si hay, las últimas diez entradas
// del historial preservando su orden relativo, y el mensaje nuevo del usuario.
func (ContextBuilder) Build(cfg domain.CompletionConfig, history []domain.ChatMessage, userMessage string) []domain.ChatMessage {
	recent := history
	if len(recent) > historyWindow {
		recent = recent[len(recent)-historyWindow:]
	}

	messages := make([]domain.ChatMessage, 0, len(recent)+2)
	if cfg.SystemPrompt != "" {
		messages = append(messages, domain.ChatMessage{
			Role:    domain.RoleSystem,
			Content: cfg.SystemPrompt,
		})
	}
	messages = append(messages, recent...)
	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: userMessage,
	})
	return messages
}
