// Package nets contains the phishing detectors. Every net implements the
// core.PhishNet capability and returns positionally aligned results for a
// whole batch or a single error, never a partial list.
package nets

import (
	"context"
	"math"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/textproc"
	"go.uber.org/zap"
)

// SemanticPhishNet scores emails by nearest-neighbor comparison against the
// phishbowl. The label vote of the k nearest neighbors is weighted by
// normalized inverse distance and damped by a confidence term that decays
// with the distance of the best match, so emails far from anything known
// score near zero instead of inheriting an unreliable vote.
type SemanticPhishNet struct {
	core.BasePhishNet
	store           core.VectorStore
	processor       *textproc.EmailTextProcessor
	comparisonSize  int
	confidenceDecay float64
	epsilon         float64
	logger          *zap.Logger
}

// NewSemanticPhishNet creates a semantic net. comparisonSize is the number
// of neighbors per query, confidenceDecay the positive decay constant and
// epsilon the dispersion constant of the inverse-distance weighting.
func NewSemanticPhishNet(
	store core.VectorStore,
	processor *textproc.EmailTextProcessor,
	comparisonSize int,
	confidenceDecay float64,
	epsilon float64,
	logger *zap.Logger,
) *SemanticPhishNet {
	return &SemanticPhishNet{
		store:           store,
		processor:       processor,
		comparisonSize:  comparisonSize,
		confidenceDecay: confidenceDecay,
		epsilon:         epsilon,
		logger:          logger,
	}
}

// Analyze scores each email against the bowl. An empty bowl carries no
// signal and yields score 0, confidence 0 for every email.
func (n *SemanticPhishNet) Analyze(ctx context.Context, batch *core.EmailBatch) ([]core.AnalysisResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	total, err := n.store.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	results := make([]core.AnalysisResult, batch.Len())
	if total == 0 {
		n.logger.Debug("Phishbowl is empty, returning zero signal",
			zap.Int("batch_size", batch.Len()))
		for i := range results {
			results[i].AnalyzedAt = now
		}
		return results, nil
	}

	documents := n.processor.ToText(batch.WithoutLabels())
	matches, err := n.store.Query(ctx, documents, n.comparisonSize)
	if err != nil {
		return nil, err
	}

	for i, neighbors := range matches {
		score, confidence := n.score(neighbors)
		results[i] = core.AnalysisResult{
			PhishingScore: score,
			Confidence:    confidence,
			AnalyzedAt:    now,
		}
	}
	return results, nil
}

// score converts a neighbor list (nearest first) into a phishing score and
// a confidence. Weights are normalized inverse distances, so closer
// neighbors dominate the vote; confidence is exp(-decay * d0²) where d0 is
// the nearest distance.
func (n *SemanticPhishNet) score(neighbors []core.QueryMatch) (float64, float64) {
	if len(neighbors) == 0 {
		return 0, 0
	}

	d0 := neighbors[0].Distance
	confidence := math.Exp(-n.confidenceDecay * d0 * d0)

	var weightSum float64
	weights := make([]float64, len(neighbors))
	for i, neighbor := range neighbors {
		weights[i] = 1 / (neighbor.Distance + n.epsilon)
		weightSum += weights[i]
	}

	var vote float64
	for i, neighbor := range neighbors {
		vote += weights[i] / weightSum * neighbor.Label
	}

	return clamp01(confidence * vote), confidence
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
