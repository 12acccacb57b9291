// Package llm generates grounded answers: it folds ranked retrieval results
// into a prompt and sends it, with recent history, to a chat model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"kbassist/internal/knowledge"
	"kbassist/internal/session"
)

// Config selects the chat endpoint and model. BaseURL may point at any
// OpenAI-compatible server; an Ollama instance serves this at /v1.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client wraps an OpenAI-compatible chat completions client.
type Client struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewClient creates a chat client from cfg.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: cfg.Model, logger: logger}
}

// Model returns the configured chat model name.
func (c *Client) Model() string { return c.model }

// Respond answers query using the retrieved context and the caller-supplied
// history. History is injected explicitly; the client itself is stateless.
func (c *Client) Respond(ctx context.Context, query string, results []knowledge.Result, history []session.Message) (string, error) {
	prompt := BuildPrompt(query, results)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, msg := range history {
		if msg.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildPrompt renders the retrieval results as numbered source blocks ahead
// of the question. With no results the query passes through untouched.
func BuildPrompt(query string, results []knowledge.Result) string {
	if len(results) == 0 {
		return query
	}

	var b strings.Builder
	b.WriteString("Here is some relevant information from the knowledge base:\n\n")
	for i, r := range results {
		source := r.Metadata.Source
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, source, r.Content)
	}
	fmt.Fprintf(&b, "Based on the above information, please answer the following question. "+
		"If the information provided doesn't contain the answer, say so and provide the "+
		"best answer you can based on your general knowledge.\n\nQuestion: %s\n\nAnswer:", query)
	return b.String()
}
