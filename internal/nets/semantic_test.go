package nets

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/textproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore serves canned neighbor lists and lets tests inject failures.
type fakeStore struct {
	count    int
	countErr error
	matches  [][]core.QueryMatch
	queryErr error
}

func (s *fakeStore) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	return nil
}

func (s *fakeStore) Query(ctx context.Context, documents []string, k int) ([][]core.QueryMatch, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.matches, nil
}

func (s *fakeStore) Delete(ctx context.Context, ids []string) error { return nil }

func (s *fakeStore) Count(ctx context.Context, where map[string]any) (int, error) {
	return s.count, s.countErr
}

func (s *fakeStore) Clear(ctx context.Context) error { return nil }

func testProcessor() *textproc.EmailTextProcessor {
	return textproc.NewEmailTextProcessor(8191, textproc.TruncateNone, textproc.NewHeuristicCounter(0.28))
}

func singleEmailBatch(body string) *core.EmailBatch {
	return &core.EmailBatch{
		Sender:  []*string{nil},
		Subject: []*string{nil},
		Body:    []string{body},
	}
}

func TestSemanticNet_EmptyBowlCarriesNoSignal(t *testing.T) {
	store := &fakeStore{count: 0}
	net := NewSemanticPhishNet(store, testProcessor(), 12, 0.8, 0.001, zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Zero(t, results[0].PhishingScore)
	assert.Zero(t, results[0].Confidence)
	assert.False(t, results[0].AnalyzedAt.IsZero())
}

func TestSemanticNet_CloserNeighborsDominate(t *testing.T) {
	store := &fakeStore{
		count: 2,
		matches: [][]core.QueryMatch{{
			{Distance: 1, Label: 1},
			{Distance: 3, Label: 0},
		}},
	}
	// Zero decay pins confidence to 1 and zero epsilon keeps the
	// inverse-distance weights exact
	net := NewSemanticPhishNet(store, testProcessor(), 2, 0, 0, zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	// Weights 1 and 1/3 give the phishing neighbor a 0.75 share
	assert.InDelta(t, 0.75, results[0].PhishingScore, 1e-9)
	assert.InDelta(t, 1.0, results[0].Confidence, 1e-9)
}

func TestSemanticNet_EqualDistancesAverageLabels(t *testing.T) {
	store := &fakeStore{
		count: 2,
		matches: [][]core.QueryMatch{{
			{Distance: 1, Label: 1},
			{Distance: 1, Label: 0},
		}},
	}
	net := NewSemanticPhishNet(store, testProcessor(), 2, 0, 0, zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, results[0].PhishingScore, 1e-9)
}

func TestSemanticNet_ConfidenceDecaysWithDistance(t *testing.T) {
	store := &fakeStore{
		count:   1,
		matches: [][]core.QueryMatch{{{Distance: 0.5, Label: 1}}},
	}
	net := NewSemanticPhishNet(store, testProcessor(), 1, 0.8, 0.001, zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	wantConfidence := math.Exp(-0.8 * 0.25)
	assert.InDelta(t, wantConfidence, results[0].Confidence, 1e-9)
	// A single phishing neighbor votes 1, so the score equals the confidence
	assert.InDelta(t, wantConfidence, results[0].PhishingScore, 1e-9)
}

func TestSemanticNet_ExactDuplicateScoresFull(t *testing.T) {
	store := &fakeStore{
		count:   1,
		matches: [][]core.QueryMatch{{{Distance: 0, Label: 1}}},
	}
	net := NewSemanticPhishNet(store, testProcessor(), 1, 0.8, 0.001, zap.NewNop())

	results, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, results[0].PhishingScore, 1e-9)
	assert.InDelta(t, 1.0, results[0].Confidence, 1e-9)
}

func TestSemanticNet_QueryErrorPropagates(t *testing.T) {
	store := &fakeStore{
		count:    5,
		queryErr: fmt.Errorf("query: %w", core.ErrStoreUnavailable),
	}
	net := NewSemanticPhishNet(store, testProcessor(), 12, 0.8, 0.001, zap.NewNop())

	_, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}

func TestSemanticNet_CountErrorPropagates(t *testing.T) {
	store := &fakeStore{
		countErr: fmt.Errorf("count: %w", core.ErrStoreUnavailable),
	}
	net := NewSemanticPhishNet(store, testProcessor(), 12, 0.8, 0.001, zap.NewNop())

	_, err := net.Analyze(context.Background(), singleEmailBatch("hello"))
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}

func TestSemanticNet_RejectsInvalidBatch(t *testing.T) {
	net := NewSemanticPhishNet(&fakeStore{}, testProcessor(), 12, 0.8, 0.001, zap.NewNop())

	_, err := net.Analyze(context.Background(), &core.EmailBatch{})
	var inputErr *core.InputError
	assert.ErrorAs(t, err, &inputErr)
}
