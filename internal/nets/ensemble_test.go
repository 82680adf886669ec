package nets

import (
	"context"
	"errors"
	"testing"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubNet returns fixed results
type stubNet struct {
	core.BasePhishNet
	results []core.AnalysisResult
	err     error
}

func (s *stubNet) Analyze(ctx context.Context, batch *core.EmailBatch) ([]core.AnalysisResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestSqrtWeighting(t *testing.T) {
	w := SqrtWeighting(0.8)

	assert.InDelta(t, 0.8, w(1), 1e-9)
	assert.InDelta(t, 0.4, w(0.25), 1e-9)
	assert.InDelta(t, 0.0, w(0), 1e-9)

	// Large coefficients are clipped to a valid weight
	assert.InDelta(t, 1.0, SqrtWeighting(2)(1), 1e-9)
}

func TestParseWeighting(t *testing.T) {
	w, err := ParseWeighting("sqrt", 0.8)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, w(1), 1e-9)

	w, err = ParseWeighting("mean", 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w(0.123), 1e-9)

	_, err = ParseWeighting("median", 0)
	assert.Error(t, err)
}

func TestEnsembleNet_ConfidenceWeightedBlend(t *testing.T) {
	semantic := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.9, Confidence: 1}}}
	judge := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.1}}}
	net := NewEnsemblePhishNet(semantic, judge, SqrtWeighting(0.8), zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	// 0.9*0.8 + 0.1*0.2
	assert.InDelta(t, 0.74, results[0].PhishingScore, 1e-9)
	assert.InDelta(t, 1.0, results[0].SemanticConfidence, 1e-9)
}

func TestEnsembleNet_ZeroConfidenceDefersToJudge(t *testing.T) {
	semantic := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.9, Confidence: 0}}}
	judge := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.2}}}
	net := NewEnsemblePhishNet(semantic, judge, SqrtWeighting(0.8), zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 0.2, results[0].PhishingScore, 1e-9)
}

func TestEnsembleNet_MeanWeighting(t *testing.T) {
	semantic := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.6, Confidence: 0.1}}}
	judge := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.2}}}
	net := NewEnsemblePhishNet(semantic, judge, MeanWeighting(), zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 0.4, results[0].PhishingScore, 1e-9)
}

func TestEnsembleNet_JudgeFieldsCarriedThrough(t *testing.T) {
	brand := "Microsoft"
	semantic := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.9, Confidence: 0.5}}}
	judge := &stubNet{results: []core.AnalysisResult{{
		PhishingScore: 0.8,
		Impersonating: &brand,
		Reason:        "fake login portal",
	}}}
	net := NewEnsemblePhishNet(semantic, judge, SqrtWeighting(0.8), zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	require.NotNil(t, results[0].Impersonating)
	assert.Equal(t, "Microsoft", *results[0].Impersonating)
	assert.Equal(t, "fake login portal", results[0].Reason)
	assert.InDelta(t, 0.5, results[0].SemanticConfidence, 1e-9)
}

func TestEnsembleNet_BranchFailureAbortsBatch(t *testing.T) {
	wantErr := errors.New("store down")
	semantic := &stubNet{err: wantErr}
	judge := &stubNet{results: []core.AnalysisResult{{PhishingScore: 0.8}}}
	net := NewEnsemblePhishNet(semantic, judge, SqrtWeighting(0.8), zap.NewNop())

	_, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	assert.ErrorIs(t, err, wantErr)
}

func TestEnsembleNet_RejectsInvalidBatch(t *testing.T) {
	net := NewEnsemblePhishNet(&stubNet{}, &stubNet{}, MeanWeighting(), zap.NewNop())

	_, err := net.Analyze(context.Background(), &core.EmailBatch{})
	var inputErr *core.InputError
	assert.ErrorAs(t, err, &inputErr)
}
