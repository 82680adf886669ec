package factory

import (
	"fmt"

	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/textproc"
	"go.uber.org/zap"
)

// TextProcessorFactory creates text processors and token counters
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTokenCounter creates a token counter. When a tokenizer model is
// configured an exact counter backed by its encoding is used, otherwise a
// cheap character-ratio heuristic.
func (f *TextProcessorFactory) CreateTokenCounter() (textproc.TokenCounter, error) {
	textCfg := f.cfg.GetText()

	if textCfg.TokenizerModel != "" {
		tokenizer, err := textproc.NewTiktokenTokenizer(textCfg.TokenizerModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create tokenizer for %q: %w", textCfg.TokenizerModel, err)
		}
		f.logger.Info("Using exact token counter", zap.String("model", textCfg.TokenizerModel))
		return textproc.NewExactCounter(tokenizer), nil
	}

	return textproc.NewHeuristicCounter(textCfg.TokensPerChar), nil
}

// CreateEmbeddingProcessor creates the processor used to normalize emails
// into documents bounded for the embedding model's context window.
func (f *TextProcessorFactory) CreateEmbeddingProcessor() (*textproc.EmailTextProcessor, error) {
	textCfg := f.cfg.GetText()

	method, err := textproc.ParseTruncateMethod(textCfg.TruncateMethod)
	if err != nil {
		return nil, err
	}

	counter, err := f.CreateTokenCounter()
	if err != nil {
		return nil, err
	}

	return textproc.NewEmailTextProcessor(textCfg.MaxTokens, method, counter), nil
}

// CreateJudgeProcessor creates the processor used for documents sent to the
// LLM judge. It never truncates; the provider enforces its own limits.
func (f *TextProcessorFactory) CreateJudgeProcessor() (*textproc.EmailTextProcessor, error) {
	textCfg := f.cfg.GetText()

	counter, err := f.CreateTokenCounter()
	if err != nil {
		return nil, err
	}

	return textproc.NewEmailTextProcessor(textCfg.MaxTokens, textproc.TruncateNone, counter), nil
}
