package phishbowl

import (
	"context"
	"testing"

	"github.com/phishnet/phishbowl/internal/adapters/memstore"
	"github.com/phishnet/phishbowl/internal/anonymize"
	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/textproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lengthEmbedder derives a deterministic vector from the document length
type lengthEmbedder struct{}

func (lengthEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text))}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func newBowl(t *testing.T, batchSize int) *PhishBowl {
	t.Helper()
	store := memstore.New(lengthEmbedder{}, zap.NewNop())
	processor := textproc.NewEmailTextProcessor(8191, textproc.TruncateNone, textproc.NewHeuristicCounter(0.28))
	return New(store, processor, anonymize.NewIdentity(), batchSize, zap.NewNop())
}

func labeledBatch() *core.EmailBatch {
	return &core.EmailBatch{
		Sender:  []*string{strPtr("a@phish.example"), strPtr("b@corp.example")},
		Subject: []*string{strPtr("Urgent"), strPtr("Minutes")},
		Body:    []string{"wire the money now", "attached are the meeting notes"},
		Label:   []float64{1, 0},
	}
}

func TestPhishBowl_AddRequiresLabels(t *testing.T) {
	bowl := newBowl(t, 2048)

	batch := labeledBatch()
	batch.Label = nil

	err := bowl.Add(context.Background(), batch, false)
	var inputErr *core.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "phishbowl ingestion requires labeled emails", inputErr.Reason)
}

func TestPhishBowl_AddIsIdempotent(t *testing.T) {
	bowl := newBowl(t, 2048)
	ctx := context.Background()

	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))
	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))

	count, err := bowl.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPhishBowl_SubBatching(t *testing.T) {
	// A batch size of 1 forces one store call per email
	bowl := newBowl(t, 1)
	ctx := context.Background()

	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))

	count, err := bowl.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPhishBowl_CountByLabel(t *testing.T) {
	bowl := newBowl(t, 2048)
	ctx := context.Background()
	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))

	phishing, err := bowl.Count(ctx, map[string]any{"label": map[string]any{"$gte": 0.5}})
	require.NoError(t, err)
	assert.Equal(t, 1, phishing)
}

func TestPhishBowl_DeleteByContent(t *testing.T) {
	bowl := newBowl(t, 2048)
	ctx := context.Background()
	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))

	// Deleting the same emails removes them; ids are recomputed from content
	require.NoError(t, bowl.Delete(ctx, labeledBatch(), false))

	count, err := bowl.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPhishBowl_DeleteUnknownIsNoop(t *testing.T) {
	bowl := newBowl(t, 2048)
	ctx := context.Background()
	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))

	unknown := &core.EmailBatch{
		Sender:  []*string{nil},
		Subject: []*string{nil},
		Body:    []string{"never stored"},
		Label:   []float64{1},
	}
	require.NoError(t, bowl.Delete(ctx, unknown, false))

	count, err := bowl.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPhishBowl_Clear(t *testing.T) {
	bowl := newBowl(t, 2048)
	ctx := context.Background()
	require.NoError(t, bowl.Add(ctx, labeledBatch(), false))

	require.NoError(t, bowl.Clear(ctx))

	count, err := bowl.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPhishBowl_ProcessEmails(t *testing.T) {
	bowl := newBowl(t, 2048)

	documents, ids := bowl.ProcessEmails(labeledBatch(), false)
	require.Len(t, documents, 2)
	require.Len(t, ids, 2)

	assert.Contains(t, documents[0], "This email is phishing.\n")
	assert.Contains(t, documents[1], "This email is benign.\n")
	assert.Len(t, ids[0], 64)
	assert.NotEqual(t, ids[0], ids[1])
}
