package embedding

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config selects the embedding endpoint and model. BaseURL may point at any
// OpenAI-compatible server, such as a local Ollama instance (/v1).
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client wraps an OpenAI-compatible client for embedding generation.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates an embedding client from cfg.
func NewClient(cfg Config) *Client {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: cfg.Model}
}
