package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"akash-chat/internal/domain"
)

// CompletionClient define la interfaz hacia el servicio de completions.
type CompletionClient interface {
	Complete(ctx context.Context, cfg domain.CompletionConfig, messages []domain.ChatMessage) (CompletionResult, error)
}

// CompletionResult es la respuesta ya extraída; Usage se pasa tal cual llegó.
type CompletionResult struct {
	Content string
	Model   string
	Usage   json.RawMessage
}

// APIError es una falla reportada por el servicio de completions. StatusCode
// se propaga sin cambios hasta el caller del orquestador.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion api error: status=%d message=%s", e.StatusCode, e.Message)
}

// ErrAPIKeyMissing indica configuración ausente; se detecta antes de tocar la
// red para distinguirla de una falla del servicio.
var ErrAPIKeyMissing = errors.New("completion api key not configured")

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1000
	noResponseFallback = "No response received from AI"
)

// HTTPClient implementa CompletionClient contra una API OpenAI-compatible.
type HTTPClient struct {
	baseURL      string
	apiKey       string
	defaultModel string
	client       *http.Client
}

// NewHTTPClient construye el gateway apuntando a {baseURL}/chat/completions.
func NewHTTPClient(baseURL, apiKey, defaultModel string) *HTTPClient {
	if defaultModel == "" {
		defaultModel = DefaultModel
	}
	return &HTTPClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *HTTPClient) Complete(ctx context.Context, cfg domain.CompletionConfig, messages []domain.ChatMessage) (CompletionResult, error) {
	if c.apiKey == "" {
		return CompletionResult{}, ErrAPIKeyMissing
	}

	model := cfg.Model
	if model == "" {
		model = c.defaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	payload := chatRequest{
		Model:       model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CompletionResult{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractErrorMessage(respBody, resp.StatusCode, resp.Status),
		}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return CompletionResult{}, fmt.Errorf("unmarshal response: %w", err)
	}

	content := noResponseFallback
	switch {
	case len(cr.Choices) > 0 && cr.Choices[0].Message.Content != "":
		content = cr.Choices[0].Message.Content
	case cr.Response != "":
		content = cr.Response
	}

	return CompletionResult{
		Content: content,
		Model:   model,
		Usage:   cr.Usage,
	}, nil
}

// extractErrorMessage intenta leer error.message del body; si el body no es
// JSON usable, arma el mensaje con el status HTTP.
func extractErrorMessage(body []byte, statusCode int, status string) string {
	var er struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	reason := strings.TrimSpace(strings.TrimPrefix(status, fmt.Sprintf("%d", statusCode)))
	if reason == "" {
		reason = http.StatusText(statusCode)
	}
	return fmt.Sprintf("API Error (%d): %s", statusCode, reason)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Response string          `json:"response"`
	Usage    json.RawMessage `json:"usage,omitempty"`
}
