package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/config"
	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
)

func assistFor(t *testing.T, baseURL string, timeout int) *Assist {
	t.Helper()
	return NewAssist(config.OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "gpt-3.5-turbo",
		MaxTokens:   150,
		Temperature: 0.7,
		Timeout:     timeout,
		Suggestions: 4,
	}, models.DefaultAssistConfig(), zap.NewNop())
}

func chatReply(content string) string {
	quoted := strings.ReplaceAll(content, "\n", "\\n")
	return `{"choices":[{"message":{"role":"assistant","content":"` + quoted + `"}}]}`
}

func TestAssistNoAPIKey(t *testing.T) {
	a := NewAssist(config.OpenAIConfig{}, models.DefaultAssistConfig(), zap.NewNop())
	_, err := a.Suggest(context.Background(), &models.AssistRequest{Text: "draft"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAssistPadsShortReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(chatReply("1. Expand on your career goals.\n2. Mention a concrete skill.")))
	}))
	defer srv.Close()

	a := assistFor(t, srv.URL, 5)
	got, err := a.Suggest(context.Background(), &models.AssistRequest{Text: "my studies"})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "Expand on your career goals.", got[0])
	assert.Equal(t, "Mention a concrete skill.", got[1])
	// Padded from the configured fallbacks, in order.
	assert.Equal(t, "Add concrete examples to illustrate your point.", got[2])
	assert.Equal(t, "Connect your ideas to the current social context.", got[3])
}

func TestAssistTrimsLongReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatReply("1. one\n2. two\n3. three\n4. four\n5. five\n6. six")))
	}))
	defer srv.Close()

	a := assistFor(t, srv.URL, 5)
	got, err := a.Suggest(context.Background(), &models.AssistRequest{Text: "my studies"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, got)
}

func TestAssistRateLimitPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := assistFor(t, srv.URL, 5)
	_, err := a.Suggest(context.Background(), &models.AssistRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestAssistUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := assistFor(t, srv.URL, 5)
	_, err := a.Suggest(context.Background(), &models.AssistRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestAssistTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	a := assistFor(t, srv.URL, 5)
	a.client.Timeout = 50 * time.Millisecond

	_, err := a.Suggest(context.Background(), &models.AssistRequest{Text: "x"})
	assert.ErrorIs(t, err, ErrAssistTimeout)
}

func TestAssistBuildPromptPrefersSelection(t *testing.T) {
	a := assistFor(t, "http://unused", 5)

	p := a.buildPrompt(&models.AssistRequest{Text: "full draft", Selection: "these words"})
	assert.Contains(t, p, "these words")
	assert.NotContains(t, p, "full draft")
}

func TestAssistBuildPromptTruncatesDraft(t *testing.T) {
	a := assistFor(t, "http://unused", 5)

	long := strings.Repeat("palabra ", 120) // well past the window
	p := a.buildPrompt(&models.AssistRequest{Text: long})
	assert.Less(t, len(p), len(long))
}

func TestParseSuggestions(t *testing.T) {
	got := parseSuggestions("1. First idea\n\n2) Second idea\n- Third idea\n• Fourth idea\n")
	assert.Equal(t, []string{"First idea", "Second idea", "Third idea", "Fourth idea"}, got)
}
