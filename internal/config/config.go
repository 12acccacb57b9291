// Package config loads runtime settings from the environment, with a .env
// file honored for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the assistant.
type Config struct {
	KnowledgeBasePath string

	SlackBotToken string
	SlackAppToken string

	EmbeddingBaseURL string
	EmbeddingAPIKey  string
	EmbeddingModel   string

	ChatBaseURL string
	ChatAPIKey  string
	ChatModel   string

	ChunkSize    int
	ChunkOverlap int
}

// Load reads configuration from the environment. A missing .env file is fine
// in production.
func Load() Config {
	_ = godotenv.Load()

	ollamaBase := getEnv("OLLAMA_BASE_URL", "http://localhost:11434")

	return Config{
		KnowledgeBasePath: getEnv("KNOWLEDGE_BASE_PATH", "./knowledge_base"),

		SlackBotToken: os.Getenv("SLACK_BOT_TOKEN"),
		SlackAppToken: os.Getenv("SLACK_APP_TOKEN"),

		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", strings.TrimRight(ollamaBase, "/")+"/v1"),
		EmbeddingAPIKey:  getEnv("EMBEDDING_API_KEY", "ollama"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "all-minilm"),

		ChatBaseURL: getEnv("CHAT_BASE_URL", strings.TrimRight(ollamaBase, "/")+"/v1"),
		ChatAPIKey:  getEnv("CHAT_API_KEY", "ollama"),
		ChatModel:   getEnv("OLLAMA_MODEL", "llama3.2:3b"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
	}
}

// ValidateSlack checks the settings the Slack bot cannot run without.
func (c Config) ValidateSlack() error {
	var missing []string
	if c.SlackBotToken == "" {
		missing = append(missing, "SLACK_BOT_TOKEN")
	}
	if c.SlackAppToken == "" {
		missing = append(missing, "SLACK_APP_TOKEN")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}
