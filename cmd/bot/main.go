// Package main runs the Slack knowledge assistant.
package main

import (
	"context"
	"log/slog"
	"os"

	"kbassist/internal/bot"
	"kbassist/internal/chunker"
	"kbassist/internal/config"
	"kbassist/internal/embedding"
	"kbassist/internal/knowledge"
	"kbassist/internal/llm"
	"kbassist/internal/session"
	"kbassist/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.ValidateSlack(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	embedder := embedding.NewEmbedder(embedding.NewClient(embedding.Config{
		BaseURL: cfg.EmbeddingBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
	}), 0)

	store := storage.Open(cfg.KnowledgeBasePath, logger)
	kb := knowledge.New(cfg.KnowledgeBasePath, store, embedder,
		knowledge.WithChunker(chunker.NewWordWindow(cfg.ChunkSize, cfg.ChunkOverlap)),
		knowledge.WithLogger(logger),
	)

	ctx := context.Background()

	logger.Info("loading documents from knowledge base folder", "path", cfg.KnowledgeBasePath)
	kb.IngestFolder(ctx, cfg.KnowledgeBasePath, "")

	llmClient := llm.NewClient(llm.Config{
		BaseURL: cfg.ChatBaseURL,
		APIKey:  cfg.ChatAPIKey,
		Model:   cfg.ChatModel,
	}, logger)

	sessions := session.NewStore(session.DefaultMaxMessages)

	b, err := bot.New(cfg.SlackBotToken, cfg.SlackAppToken, kb, llmClient, sessions, logger)
	if err != nil {
		logger.Error("starting bot failed", "error", err)
		os.Exit(1)
	}

	logger.Info("starting slack assistant", "model", cfg.ChatModel)
	if err := b.Run(ctx); err != nil {
		logger.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}
