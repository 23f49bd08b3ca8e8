// Package assist wraps the text-generation service used by the editor.
// Its methods never fail: callers get "" or the original text instead.
package assist

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel = "gpt-4o-mini"

	// promptRunes caps how much article content goes into a prompt.
	promptRunes = 1000

	requestTimeout = 20 * time.Second

	excerptPrompt = "Generate a concise, engaging 2-sentence excerpt for a blog post with the following content. Do not use quotes.\n\nContent: "
	improvePrompt = "Improve the following text to be more engaging and concise while maintaining the original meaning. Do not use quotes.\n\nText: "
)

// Completer is the slice of the OpenAI client this package uses.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Assistant struct {
	client Completer
	model  string
	logger *slog.Logger
}

// New returns an Assistant for apiKey. An empty key yields a disabled assistant.
func New(apiKey, model string, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	if apiKey == "" {
		logger.Warn("OPENAI_API_KEY not set, writing assistance disabled")
		return &Assistant{logger: logger}
	}
	return NewWithClient(openai.NewClient(apiKey), model, logger)
}

func NewWithClient(client Completer, model string, logger *slog.Logger) *Assistant {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{client: client, model: model, logger: logger}
}

func (a *Assistant) Enabled() bool { return a.client != nil }

// Excerpt suggests a two-sentence summary of content, or "" when none is available.
func (a *Assistant) Excerpt(ctx context.Context, content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	out, ok := a.generate(ctx, excerptPrompt+truncateRunes(content, promptRunes))
	if !ok {
		return ""
	}
	return out
}

// ImproveWriting rewrites text, returning it unchanged on any failure.
func (a *Assistant) ImproveWriting(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	out, ok := a.generate(ctx, improvePrompt+text)
	if !ok || out == "" {
		return text
	}
	return out
}

func (a *Assistant) generate(ctx context.Context, prompt string) (string, bool) {
	if a.client == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		a.logger.Error("text generation failed", "model", a.model, "error", err)
		return "", false
	}
	if len(resp.Choices) == 0 {
		a.logger.Warn("text generation returned no choices", "model", a.model)
		return "", false
	}
	return strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`), true
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
