package nets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/retry"
	"github.com/phishnet/phishbowl/internal/textproc"
	"go.uber.org/zap"
)

// contentFilteredReason is the fixed explanation attached to the synthetic
// verdict when the provider safety filter blocks a request. Content the
// provider deems hateful, sexual, violent or self-harm is treated as a
// phishing signal rather than a failure.
const contentFilteredReason = "email contains either hateful, sexual, violent, or self-harm content"

// contentFilteredConfidence is the judge confidence of the synthetic verdict.
const contentFilteredConfidence = 8

// JudgePhishNet scores emails by sending each one to an LLM judge with a
// fixed rubric. Calls fan out concurrently across the batch and are
// reassembled positionally. A failing email degrades to a neutral verdict
// instead of failing its siblings.
type JudgePhishNet struct {
	core.BasePhishNet
	client     core.JudgeClient
	processor  *textproc.EmailTextProcessor
	retryCount int
	backoff    time.Duration
	logger     *zap.Logger
}

// NewJudgePhishNet creates a judge net. The processor must be configured
// with no truncation: the judge receives full content and the upstream API
// enforces its own limits. backoff is the base rate-limit delay, multiplied
// by the attempt number.
func NewJudgePhishNet(
	client core.JudgeClient,
	processor *textproc.EmailTextProcessor,
	retryCount int,
	backoff time.Duration,
	logger *zap.Logger,
) *JudgePhishNet {
	return &JudgePhishNet{
		client:     client,
		processor:  processor,
		retryCount: retryCount,
		backoff:    backoff,
		logger:     logger,
	}
}

// Analyze dispatches one judge call per email concurrently and joins the
// verdicts in input order. It never returns an error for per-email
// failures; only a malformed batch fails the call.
func (n *JudgePhishNet) Analyze(ctx context.Context, batch *core.EmailBatch) ([]core.AnalysisResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	documents := n.processor.ToText(batch.WithoutLabels())
	results := make([]core.AnalysisResult, len(documents))

	var wg sync.WaitGroup
	for i, document := range documents {
		// Emails flagged unsafe at extraction time get the synthetic
		// verdict without a judge call.
		if batch.Unsafe != nil && batch.Unsafe[i] {
			results[i] = verdictResult(contentFilteredVerdict())
			continue
		}
		wg.Add(1)
		go func(i int, document string) {
			defer wg.Done()
			results[i] = verdictResult(n.judgeWithRetry(ctx, document))
		}(i, document)
	}
	wg.Wait()

	return results, nil
}

func verdictResult(verdict *core.JudgeVerdict) core.AnalysisResult {
	sign := -1.0
	if verdict.IsPhishing {
		sign = 1.0
	}
	return core.AnalysisResult{
		PhishingScore: clamp01(0.5 + 0.05*sign*float64(verdict.Confidence)),
		Impersonating: verdict.Impersonating,
		Reason:        verdict.Reason,
		AnalyzedAt:    time.Now(),
	}
}

func contentFilteredVerdict() *core.JudgeVerdict {
	return &core.JudgeVerdict{
		IsPhishing: true,
		Confidence: contentFilteredConfidence,
		Reason:     contentFilteredReason,
	}
}

// judgeWithRetry runs the retry policy for a single email: rate limits back
// off linearly, malformed responses retry immediately, a content-filter
// rejection short-circuits to the synthetic phishing verdict, and an
// exhausted budget degrades to the neutral verdict.
func (n *JudgePhishNet) judgeWithRetry(ctx context.Context, document string) *core.JudgeVerdict {
	var verdict *core.JudgeVerdict
	err := retry.Do(ctx, n.retryCount, n.classify, func(ctx context.Context) error {
		v, err := n.client.Judge(ctx, document)
		if err != nil {
			return err
		}
		verdict = v
		return nil
	})
	if err == nil {
		return verdict
	}

	if errors.Is(err, core.ErrJudgeContentFiltered) {
		n.logger.Info("Judge request blocked by content filter, treating as phishing")
		return contentFilteredVerdict()
	}

	n.logger.Warn("Judge retries exhausted, returning neutral verdict", zap.Error(err))
	return &core.JudgeVerdict{}
}

func (n *JudgePhishNet) classify(attempt int, err error) (bool, time.Duration) {
	switch {
	case errors.Is(err, core.ErrJudgeContentFiltered):
		return false, 0
	case errors.Is(err, core.ErrJudgeRateLimited):
		delay := time.Duration(attempt) * n.backoff
		n.logger.Warn("Judge rate limited, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))
		return true, delay
	case errors.Is(err, core.ErrJudgeMalformed):
		n.logger.Warn("Failed to parse judge response, retrying", zap.Int("attempt", attempt))
		return true, 0
	default:
		n.logger.Warn("Judge call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		return true, 0
	}
}
