package gemini

import (
	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// Factory creates new instances of JudgeClient.
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for JudgeClient instances.
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateJudgeClient creates a judge client from the gemini configuration
// section.
func (f *Factory) CreateJudgeClient() (core.JudgeClient, error) {
	geminiCfg := f.cfg.GetGemini()
	return NewJudgeClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		f.logger,
	)
}
