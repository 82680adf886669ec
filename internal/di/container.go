package di

import (
	"time"

	"go.uber.org/dig"

	"github.com/phishnet/phishbowl/internal/anonymize"
	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/factory"
	"github.com/phishnet/phishbowl/internal/logging"
	"github.com/phishnet/phishbowl/internal/phishbowl"
	"github.com/phishnet/phishbowl/internal/ports"
	"github.com/phishnet/phishbowl/internal/textproc"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewJudgeFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNetFactory); err != nil {
		return nil, err
	}

	// Register judge client
	if err := container.Provide(func(f *factory.JudgeFactory) (core.JudgeClient, error) {
		return f.CreateJudgeClient()
	}); err != nil {
		return nil, err
	}

	// Register embedder and vector store
	if err := container.Provide(func(f *factory.StoreFactory) (core.Embedder, error) {
		return f.CreateEmbedder()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StoreFactory, embedder core.Embedder) (core.VectorStore, error) {
		return f.CreateVectorStore(embedder)
	}); err != nil {
		return nil, err
	}

	// Register the embedding text processor, which doubles as the
	// content id derivation
	if err := container.Provide(func(f *factory.TextProcessorFactory) (*textproc.EmailTextProcessor, error) {
		return f.CreateEmbeddingProcessor()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(p *textproc.EmailTextProcessor) core.DocumentIDer {
		return p
	}); err != nil {
		return nil, err
	}

	// Register the ensemble net. The judge gets its own untruncated
	// processor; the semantic net shares the embedding processor.
	if err := container.Provide(func(
		nf *factory.NetFactory,
		tpf *factory.TextProcessorFactory,
		store core.VectorStore,
		client core.JudgeClient,
		embeddingProcessor *textproc.EmailTextProcessor,
	) (core.PhishNet, error) {
		judgeProcessor, err := tpf.CreateJudgeProcessor()
		if err != nil {
			return nil, err
		}
		semantic := nf.CreateSemanticNet(store, embeddingProcessor)
		judge, err := nf.CreateJudgeNet(client, judgeProcessor)
		if err != nil {
			return nil, err
		}
		return nf.CreateEnsembleNet(semantic, judge)
	}); err != nil {
		return nil, err
	}

	// Register verdict cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.VerdictCache, error) {
		return f.CreateVerdictCache()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register phishing threshold
	if err := container.Provide(func(cfg *config.Config) float64 {
		return cfg.GetFloat64("analysis.threshold")
	}); err != nil {
		return nil, err
	}

	// Register analyzer service
	if err := container.Provide(core.NewAnalyzerService); err != nil {
		return nil, err
	}

	// Register anonymizer and the phishbowl itself
	if err := container.Provide(func() core.Anonymizer {
		return anonymize.NewIdentity()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(cfg *config.Config) int {
		return cfg.GetPhishBowl().BatchSize
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(phishbowl.New); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
