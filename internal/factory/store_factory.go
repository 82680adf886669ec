package factory

import (
	"fmt"

	"github.com/phishnet/phishbowl/internal/adapters/chroma"
	"github.com/phishnet/phishbowl/internal/adapters/embed"
	"github.com/phishnet/phishbowl/internal/adapters/memstore"
	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// StoreFactory creates vector stores and embedders based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEmbedder creates the embedding client shared by all stores
func (f *StoreFactory) CreateEmbedder() (core.Embedder, error) {
	embeddingCfg := f.cfg.GetEmbedding()
	return embed.NewOpenAIEmbedder(
		embeddingCfg.BaseURL,
		embeddingCfg.APIKey,
		embeddingCfg.ModelName,
		f.logger,
	)
}

// CreateVectorStore creates a vector store based on the configuration
func (f *StoreFactory) CreateVectorStore(embedder core.Embedder) (core.VectorStore, error) {
	storeCfg := f.cfg.GetStore()

	switch storeCfg.Type {
	case "chroma":
		collection := f.cfg.GetPhishBowl().Collection
		return chroma.New(storeCfg.ChromaURL, collection, embedder, f.logger), nil
	case "memory":
		return memstore.New(embedder, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeCfg.Type)
	}
}
