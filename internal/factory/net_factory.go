package factory

import (
	"fmt"
	"net"

	"github.com/phishnet/phishbowl/internal/config"
	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/domainlist"
	"github.com/phishnet/phishbowl/internal/nets"
	"github.com/phishnet/phishbowl/internal/textproc"
	"go.uber.org/zap"
)

// NetFactory assembles the phishing nets from their dependencies
type NetFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNetFactory creates a new net factory
func NewNetFactory(cfg *config.Config, logger *zap.Logger) *NetFactory {
	return &NetFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSemanticNet creates the nearest-neighbor net over the given store
func (f *NetFactory) CreateSemanticNet(store core.VectorStore, processor *textproc.EmailTextProcessor) *nets.SemanticPhishNet {
	semanticCfg := f.cfg.GetSemantic()
	return nets.NewSemanticPhishNet(
		store,
		processor,
		semanticCfg.ComparisonSize,
		semanticCfg.ConfidenceDecay,
		semanticCfg.Epsilon,
		f.logger,
	)
}

// CreateJudgeNet creates the LLM judge net
func (f *NetFactory) CreateJudgeNet(client core.JudgeClient, processor *textproc.EmailTextProcessor) (*nets.JudgePhishNet, error) {
	judgeCfg := f.cfg.GetJudge()

	backoff, err := f.cfg.GetDuration("judge.rate_limit_backoff")
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit backoff: %w", err)
	}

	return nets.NewJudgePhishNet(
		client,
		processor,
		judgeCfg.RetryCount,
		backoff,
		f.logger,
	), nil
}

// CreateEnsembleNet combines the semantic and judge nets under the
// configured weighting strategy
func (f *NetFactory) CreateEnsembleNet(semantic, judge core.PhishNet) (*nets.EnsemblePhishNet, error) {
	ensembleCfg := f.cfg.GetEnsemble()

	weighting, err := nets.ParseWeighting(ensembleCfg.Weighting, ensembleCfg.Coefficient)
	if err != nil {
		return nil, err
	}

	return nets.NewEnsemblePhishNet(semantic, judge, weighting, f.logger), nil
}

// CreateSenderNet creates the sender reputation net using the system
// resolver and the configured spam domain list
func (f *NetFactory) CreateSenderNet() (*nets.SenderPhishNet, error) {
	spamDomains, err := domainlist.NewFromFile(f.cfg.GetString("sender.spam_domains_file"), f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load spam domain list: %w", err)
	}
	return nets.NewSenderPhishNet(net.DefaultResolver, spamDomains, f.logger), nil
}
