package domain

// CompletionConfig son los parámetros de muestreo de una petición. No se
// persiste: viene en cada request y puede variar entre llamadas de una misma
// sesión. Los campos en cero usan los defaults del gateway (modelo base,
// temperature 0.7, max_tokens 1000).
type CompletionConfig struct {
	SystemPrompt string  `json:"systemPrompt,omitempty"`
	Model        string  `json:"model,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"maxTokens,omitempty"`
}
