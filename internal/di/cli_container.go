package di

import (
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/factory"
	"github.com/phishnet/phishbowl/internal/logging"
	"github.com/phishnet/phishbowl/internal/nets"
	"github.com/phishnet/phishbowl/internal/ports"
	"github.com/phishnet/phishbowl/internal/textproc"
)

// CLIFlags contains all command line flags for the one-shot analyzer
type CLIFlags struct {
	// Judge provider flags
	Provider  string
	MaxTokens int

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string
	OpenAIBaseURL   string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Vector store flags
	StoreType string
	ChromaURL string

	// Embedding flags
	EmbeddingAPIKey string
	EmbeddingModel  string

	// Analysis flags
	Threshold   float64
	SenderCheck bool

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	// Judge provider flags
	flag.StringVar(&flags.Provider, "provider", "openai", "Judge provider (openai, gemini, bedrock)")
	flag.IntVar(&flags.MaxTokens, "max-tokens", 1000, "Maximum tokens for the judge response")

	// OpenAI flags
	flag.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	flag.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4o", "OpenAI model name")
	flag.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Override OpenAI base URL")

	// Gemini flags
	flag.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	flag.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-1.5-pro", "Gemini model name")

	// Bedrock flags
	flag.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	flag.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-5-sonnet-20240620-v1:0", "Bedrock model ID")

	// Vector store flags
	flag.StringVar(&flags.StoreType, "store", "chroma", "Vector store type (chroma, memory)")
	flag.StringVar(&flags.ChromaURL, "chroma-url", "http://localhost:8000", "Chroma server URL")

	// Embedding flags
	flag.StringVar(&flags.EmbeddingAPIKey, "embedding-api-key", "", "API key for the embedding provider")
	flag.StringVar(&flags.EmbeddingModel, "embedding-model", "text-embedding-3-small", "Embedding model name")

	// Analysis flags
	flag.Float64Var(&flags.Threshold, "threshold", 0.5, "Score threshold for flagging phishing")
	flag.BoolVar(&flags.SenderCheck, "sender-check", false, "Also score the sender address reputation")

	// Input flags
	flag.StringVar(&flags.InputFile, "file", "", "Input email file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the one-shot analyzer
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewJudgeFactory); err != nil {
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

	// Register text processing and the ensemble net
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

	// Register the sender reputation net for the optional sender check
	if err := container.Provide(func(nf *factory.NetFactory) (*nets.SenderPhishNet, error) {
		return nf.CreateSenderNet()
	}); err != nil {
		return nil, err
	}

	// Register phishing threshold
	if err := container.Provide(func(cfg *config.Config) float64 {
		return cfg.GetFloat64("analysis.threshold")
	}); err != nil {
		return nil, err
	}

	// Register analyzer service with no cache
	if err := container.Provide(func(
		net core.PhishNet,
		ids core.DocumentIDer,
		logger *zap.Logger,
		threshold float64,
	) *core.AnalyzerService {
		return core.NewAnalyzerService(
			net,
			nil, // No cache for one-shot runs
			ids,
			logger,
			false,            // Cache disabled
			time.Duration(0), // No TTL
			threshold,
		)
	}); err != nil {
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

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cache.enabled", false)

	// Set judge provider
	v.Set("judge.provider", flags.Provider)

	// Set provider-specific configuration
	switch flags.Provider {
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.max_tokens", flags.MaxTokens)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
	}

	// Set vector store and embedding configuration
	v.Set("store.type", flags.StoreType)
	v.Set("store.chroma_url", flags.ChromaURL)
	v.Set("embedding.api_key", flags.EmbeddingAPIKey)
	v.Set("embedding.model_name", flags.EmbeddingModel)

	// Set phishing threshold
	v.Set("analysis.threshold", flags.Threshold)

	return config.NewFromViper(v)
}
