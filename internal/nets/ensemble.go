package nets

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WeightingFunc maps the semantic net's confidence to the weight of its
// score in the final blend. The returned weight must lie in [0,1].
type WeightingFunc func(semanticConfidence float64) float64

// SqrtWeighting dampens the semantic weight with k*sqrt(confidence),
// clipped to [0,1]. With k below 1 the semantic net can never fully
// dominate, even at confidence 1.
func SqrtWeighting(k float64) WeightingFunc {
	return func(confidence float64) float64 {
		return clamp01(k * math.Sqrt(confidence))
	}
}

// MeanWeighting ignores confidence and averages both scores equally. A
// degraded mode for when confidence weighting is not wanted.
func MeanWeighting() WeightingFunc {
	return func(float64) float64 {
		return 0.5
	}
}

// ParseWeighting resolves a configured strategy name.
func ParseWeighting(strategy string, k float64) (WeightingFunc, error) {
	switch strategy {
	case "sqrt":
		return SqrtWeighting(k), nil
	case "mean":
		return MeanWeighting(), nil
	default:
		return nil, fmt.Errorf("unknown weighting strategy %q", strategy)
	}
}

// EnsemblePhishNet blends the semantic and judge nets. Both run
// concurrently over the batch; per email the final score is the convex
// combination of the two scores, weighted by the semantic confidence.
type EnsemblePhishNet struct {
	core.BasePhishNet
	semantic  core.PhishNet
	judge     core.PhishNet
	weighting WeightingFunc
	logger    *zap.Logger
}

// NewEnsemblePhishNet creates an ensemble over the given nets.
func NewEnsemblePhishNet(semantic, judge core.PhishNet, weighting WeightingFunc, logger *zap.Logger) *EnsemblePhishNet {
	return &EnsemblePhishNet{
		semantic:  semantic,
		judge:     judge,
		weighting: weighting,
		logger:    logger,
	}
}

// Analyze runs both nets concurrently and joins their results positionally.
// A failure in either branch aborts the whole batch.
func (n *EnsemblePhishNet) Analyze(ctx context.Context, batch *core.EmailBatch) ([]core.AnalysisResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	var semanticResults, judgeResults []core.AnalysisResult
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semanticResults, err = n.semantic.Analyze(ctx, batch)
		return err
	})
	g.Go(func() error {
		var err error
		judgeResults, err = n.judge.Analyze(ctx, batch)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]core.AnalysisResult, batch.Len())
	for i := range results {
		semantic := semanticResults[i]
		judge := judgeResults[i]
		weight := n.weighting(semantic.Confidence)
		results[i] = core.AnalysisResult{
			PhishingScore:      clamp01(semantic.PhishingScore*weight + judge.PhishingScore*(1-weight)),
			Impersonating:      judge.Impersonating,
			Reason:             judge.Reason,
			SemanticConfidence: semantic.Confidence,
			AnalyzedAt:         now,
		}
	}
	return results, nil
}
