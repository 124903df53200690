package llm

import (
	"context"

	"akash-chat/internal/domain"
)

// MockClient permite tests sin llamar al servicio real. Registra los mensajes
// de la última llamada para poder inspeccionar el contexto armado.
type MockClient struct {
	Result       CompletionResult
	Err          error
	Calls        int
	LastConfig   domain.CompletionConfig
	LastMessages []domain.ChatMessage
}

func (m *MockClient) Complete(_ context.Context, cfg domain.CompletionConfig, messages []domain.ChatMessage) (CompletionResult, error) {
	m.Calls++
	m.LastConfig = cfg
	m.LastMessages = messages
	if m.Err != nil {
		return CompletionResult{}, m.Err
	}
	return m.Result, nil
}
