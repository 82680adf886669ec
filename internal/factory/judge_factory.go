package factory

import (
	"fmt"

	"github.com/phishnet/phishbowl/internal/adapters/bedrock"
	"github.com/phishnet/phishbowl/internal/adapters/gemini"
	"github.com/phishnet/phishbowl/internal/adapters/openai"
	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// JudgeFactory creates LLM judge clients
type JudgeFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewJudgeFactory creates a new judge factory
func NewJudgeFactory(cfg *config.Config, logger *zap.Logger) *JudgeFactory {
	return &JudgeFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateJudgeClient creates a new judge client based on the configuration
func (f *JudgeFactory) CreateJudgeClient() (core.JudgeClient, error) {
	judgeConfig := f.cfg.GetJudge()

	switch judgeConfig.Provider {
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger)
		return factory.CreateJudgeClient()
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger)
		return factory.CreateJudgeClient()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger)
		return factory.CreateJudgeClient()
	default:
		return nil, fmt.Errorf("unsupported judge provider: %s", judgeConfig.Provider)
	}
}
