package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/quipodium/pkg/metrics"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	defaultMaxTokens   = 60
	maxErrorBody       = 512

	systemPrompt = "You write short questions for a party game. Reply with one question of 20 to 100 characters that contains the given keyword. Reply with the question only."
)

// Chat asks an OpenAI-compatible chat completions endpoint for a suggestion.
type Chat struct {
	endpoint   string
	key        string
	model      string
	maxTokens  int
	httpClient *http.Client
}

var _ Suggester = (*Chat)(nil)

// ChatOption configures a Chat suggester.
type ChatOption func(*Chat)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ChatOption {
	return func(s *Chat) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithMaxTokens bounds the completion length.
func WithMaxTokens(n int) ChatOption {
	return func(s *Chat) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewChat creates a suggester for endpoint (the API base URL, without
// /chat/completions) using the given key and model.
func NewChat(endpoint, key, model string, opts ...ChatOption) *Chat {
	s := &Chat{
		endpoint:   strings.TrimRight(endpoint, "/"),
		key:        key,
		model:      model,
		maxTokens:  defaultMaxTokens,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Suggest implements Suggester.
func (s *Chat) Suggest(ctx context.Context, keyword string) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordSuggestionLatency(float64(time.Since(start).Milliseconds())) }()

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Keyword: " + keyword},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.key != "" {
		req.Header.Set("Authorization", "Bearer "+s.key)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.RecordErrorByComponent("suggester", "transport")
		return "", fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordErrorByComponent("suggester", "status")
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrUnexpectedResponse)
	}
	return strings.Trim(strings.TrimSpace(out.Choices[0].Message.Content), `"`), nil
}
