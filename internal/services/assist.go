package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

// Assist error taxonomy, mapped to HTTP status codes by the handler.
var (
	ErrNoAPIKey      = errors.New("openai api key not configured")
	ErrAssistTimeout = errors.New("openai request timed out")
	ErrRateLimited   = errors.New("openai rate limited")
	ErrUpstream      = errors.New("openai request failed")
)

// draftWindow caps how much of the participant's draft goes into the
// continue-writing prompt.
const draftWindow = 200

var leadingBullet = regexp.MustCompile(`^(\d+[\.\)]|[-*•])\s*`)

// Assist proxies writing-assistance requests to the OpenAI chat-completions
// API and shapes the reply into a fixed number of short suggestions.
type Assist struct {
	log     *zap.Logger
	cfg     config.OpenAIConfig
	prompts *models.AssistConfig
	client  *http.Client
}

// NewAssist builds the client with the configured request timeout.
func NewAssist(cfg config.OpenAIConfig, prompts *models.AssistConfig, log *zap.Logger) *Assist {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.Suggestions <= 0 {
		cfg.Suggestions = 4
	}
	return &Assist{
		log:     log,
		cfg:     cfg,
		prompts: prompts,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present.
func (a *Assist) Configured() bool { return a.cfg.APIKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Suggest calls the chat endpoint and returns exactly the configured number
// of suggestions, padded with the fallback texts when the model returns
// fewer.
func (a *Assist) Suggest(ctx context.Context, req *models.AssistRequest) ([]string, error) {
	if !a.Configured() {
		return nil, ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: a.prompts.SystemPrompt},
			{Role: "user", Content: a.buildPrompt(req)},
		},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrUpstream, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(a.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrAssistTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	if len(parsed.Choices) == 0 {
		return a.pad(nil), nil
	}

	return a.pad(parseSuggestions(parsed.Choices[0].Message.Content)), nil
}

func (a *Assist) buildPrompt(req *models.AssistRequest) string {
	if req.Selection != "" {
		return fmt.Sprintf(a.prompts.SelectionPrompt, req.Selection)
	}
	draft := []rune(req.Text)
	if len(draft) > draftWindow {
		draft = draft[:draftWindow]
	}
	return fmt.Sprintf(a.prompts.ContinuePrompt, string(draft))
}

// pad trims to and fills up to the configured suggestion count with the
// fallback texts.
func (a *Assist) pad(suggestions []string) []string {
	want := a.cfg.Suggestions
	if len(suggestions) > want {
		suggestions = suggestions[:want]
	}
	for i := 0; len(suggestions) < want; i++ {
		suggestions = append(suggestions, a.prompts.Fallbacks[i%len(a.prompts.Fallbacks)])
	}
	return suggestions
}

// parseSuggestions splits the model reply into suggestion lines, stripping
// list numbering and bullets.
func parseSuggestions(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		line = leadingBullet.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
