package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DocumentIDer derives the content-addressed id of each email's normalized
// document. Identical normalized text always yields the same id.
type DocumentIDer interface {
	ContentIDs(batch *EmailBatch) []string
}

// AnalyzerService is the orchestration layer used by the delivery surfaces.
// It fronts the ensemble net with a verdict cache keyed by content id and
// applies the phishing threshold to scores.
type AnalyzerService struct {
	net          PhishNet
	cache        VerdictCache
	ids          DocumentIDer
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	threshold    float64
}

// NewAnalyzerService creates a new analyzer service.
func NewAnalyzerService(
	net PhishNet,
	cache VerdictCache,
	ids DocumentIDer,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	threshold float64,
) *AnalyzerService {
	return &AnalyzerService{
		net:          net,
		cache:        cache,
		ids:          ids,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
		threshold:    threshold,
	}
}

// AnalyzeEmail scores a single email, consulting the verdict cache first.
// The cache key is the content id of the normalized document, so a
// re-analysis of byte-identical email content is served from cache.
func (s *AnalyzerService) AnalyzeEmail(ctx context.Context, email *Email) (*AnalysisResult, error) {
	batch := BatchFromEmails(email)
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	var contentID string
	if s.cacheEnabled {
		contentID = s.ids.ContentIDs(batch.WithoutLabels())[0]
		if result, ok := s.cache.Get(ctx, contentID); ok {
			s.logger.Debug("Verdict cache hit", zap.String("content_id", contentID))
			return result, nil
		}
	}

	results, err := s.net.Analyze(ctx, batch)
	if err != nil {
		return nil, err
	}
	result := &results[0]

	if s.cacheEnabled {
		s.cache.Set(ctx, contentID, result, s.cacheTTL)
	}
	return result, nil
}

// AnalyzeBatch scores every email in the batch. The result slice is
// positionally aligned with the batch.
func (s *AnalyzerService) AnalyzeBatch(ctx context.Context, batch *EmailBatch) ([]AnalysisResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return s.net.Analyze(ctx, batch)
}

// IsPhishing applies the configured threshold to a score.
func (s *AnalyzerService) IsPhishing(result *AnalysisResult) bool {
	return result.PhishingScore >= s.threshold
}
