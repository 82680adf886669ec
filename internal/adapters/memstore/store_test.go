package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mappedEmbedder returns a fixed 1-dimensional vector per document
type mappedEmbedder struct {
	vectors map[string]float32
	err     error
}

func (e *mappedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{e.vectors[text]}
	}
	return out, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	embedder := &mappedEmbedder{vectors: map[string]float32{
		"near":  1,
		"mid":   2,
		"far":   5,
		"query": 0,
	}}
	return New(embedder, zap.NewNop())
}

func seedStore(t *testing.T, s *Store) {
	t.Helper()
	err := s.Add(context.Background(),
		[]string{"id-near", "id-mid", "id-far"},
		[]string{"near", "mid", "far"},
		[]map[string]any{
			{"label": 1.0},
			{"label": 0.0},
			{"label": 1.0},
		})
	require.NoError(t, err)
}

func TestStore_AddAndCount(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	count, err := s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_AddIsUpsertByID(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	// Re-adding an existing id changes nothing
	err := s.Add(context.Background(),
		[]string{"id-near"},
		[]string{"near"},
		[]map[string]any{{"label": 0.0}})
	require.NoError(t, err)

	count, err := s.Count(context.Background(), map[string]any{"label": 1.0})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_QueryOrdersByDistance(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	results, err := s.Query(context.Background(), []string{"query"}, 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0], 3)

	assert.InDelta(t, 1.0, results[0][0].Distance, 1e-6)
	assert.InDelta(t, 2.0, results[0][1].Distance, 1e-6)
	assert.InDelta(t, 5.0, results[0][2].Distance, 1e-6)
	assert.Equal(t, 1.0, results[0][0].Label)
	assert.Equal(t, 0.0, results[0][1].Label)
}

func TestStore_QueryHonorsK(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	results, err := s.Query(context.Background(), []string{"query"}, 2)
	require.NoError(t, err)
	assert.Len(t, results[0], 2)

	// Asking for more neighbors than stored returns what exists
	results, err = s.Query(context.Background(), []string{"query"}, 10)
	require.NoError(t, err)
	assert.Len(t, results[0], 3)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	err := s.Delete(context.Background(), []string{"id-mid", "id-unknown"})
	require.NoError(t, err)

	count, err := s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_CountWithFilter(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	tests := []struct {
		name  string
		where map[string]any
		want  int
	}{
		{"direct equality", map[string]any{"label": 1.0}, 2},
		{"gte", map[string]any{"label": map[string]any{"$gte": 0.5}}, 2},
		{"lt", map[string]any{"label": map[string]any{"$lt": 0.5}}, 1},
		{"ne", map[string]any{"label": map[string]any{"$ne": 1.0}}, 1},
		{"missing field", map[string]any{"source": "import"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := s.Count(context.Background(), tt.where)
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestStore_CountRejectsUnknownOperator(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	_, err := s.Count(context.Background(), map[string]any{"label": map[string]any{"$within": 1.0}})
	assert.Error(t, err)
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	seedStore(t, s)

	require.NoError(t, s.Clear(context.Background()))

	count, err := s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	// The store stays usable after a clear
	seedStore(t, s)
	count, err = s.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStore_EmbedderFailureIsStoreUnavailable(t *testing.T) {
	s := New(&mappedEmbedder{err: errors.New("api down")}, zap.NewNop())

	err := s.Add(context.Background(), []string{"id"}, []string{"doc"}, []map[string]any{{}})
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)

	_, err = s.Query(context.Background(), []string{"doc"}, 1)
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}
