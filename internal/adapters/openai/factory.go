package openai

import (
	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"github.com/sashabaranov/go-openai"
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

// CreateJudgeClient creates a judge client from the openai configuration
// section. When an Azure endpoint is configured the client speaks the Azure
// OpenAI dialect.
func (f *Factory) CreateJudgeClient() (core.JudgeClient, error) {
	openaiCfg := f.cfg.GetOpenAI()

	var clientCfg openai.ClientConfig
	if openaiCfg.AzureEndpoint != "" {
		clientCfg = openai.DefaultAzureConfig(openaiCfg.APIKey, openaiCfg.AzureEndpoint)
	} else {
		clientCfg = openai.DefaultConfig(openaiCfg.APIKey)
		if openaiCfg.BaseURL != "" {
			clientCfg.BaseURL = openaiCfg.BaseURL
		}
	}
	client := openai.NewClientWithConfig(clientCfg)

	return NewJudgeClient(
		client,
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		f.logger,
	), nil
}
