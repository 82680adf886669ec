// Package embed provides embedding backends for the vector store adapters.
package embed

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// OpenAIEmbedder generates embeddings through an OpenAI-compatible
// embeddings API.
type OpenAIEmbedder struct {
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewOpenAIEmbedder creates an embedder for the given model. baseURL may
// point at any OpenAI-compatible service; an empty token is replaced with a
// placeholder for services that do not require authentication.
func NewOpenAIEmbedder(baseURL, token, model string, logger *zap.Logger) (*OpenAIEmbedder, error) {
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &OpenAIEmbedder{
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Embed generates one embedding vector per text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("Generating embeddings", zap.Int("count", len(texts)))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return vectors, nil
}
