package core

import (
	"context"
	"time"
)

// PhishNet is the common capability of every detector: score each email in
// a batch on how likely it is to be a phish. Implementations must return
// either a result slice positionally aligned with the batch or a single
// error for the whole batch, never a partial list.
type PhishNet interface {
	// Analyze scores each email in the batch.
	Analyze(ctx context.Context, batch *EmailBatch) ([]AnalysisResult, error)

	// Train feeds labeled data to the net. Nets without a training phase
	// inherit a no-op from BasePhishNet.
	Train(ctx context.Context, data *TrainData) error

	// Reset returns the net to its pre-trained state.
	Reset(ctx context.Context) error
}

// BasePhishNet provides the default no-op Train and Reset shared by nets
// that need neither. Embed it and implement Analyze.
type BasePhishNet struct{}

// Train is a no-op.
func (BasePhishNet) Train(ctx context.Context, data *TrainData) error { return nil }

// Reset is a no-op.
func (BasePhishNet) Reset(ctx context.Context) error { return nil }

// VectorStore is the collection of labeled email documents backing the
// semantic net. Documents are keyed by content-derived ids, so Add is an
// upsert and re-adding an identical document is a no-op. Distances returned
// by Query are L2: non-negative, smaller means more similar.
type VectorStore interface {
	// Add upserts documents by id. Metadatas carry at least the label.
	Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error

	// Query returns the k nearest neighbors for each query document,
	// nearest first.
	Query(ctx context.Context, documents []string, k int) ([][]QueryMatch, error)

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored documents, optionally narrowed by
	// a metadata filter (e.g. {"label": {"$gte": 0.5}}). The filter is
	// evaluated by the store; documents are not loaded.
	Count(ctx context.Context, where map[string]any) (int, error)

	// Clear removes every document and immediately recreates an empty
	// collection with the same configuration.
	Clear(ctx context.Context) error
}

// JudgeClient sends a single normalized email document to an LLM judge and
// returns its structured verdict. Implementations own the transport and the
// JSON extraction, and classify failures with the sentinel errors
// ErrJudgeRateLimited, ErrJudgeContentFiltered and ErrJudgeMalformed.
type JudgeClient interface {
	Judge(ctx context.Context, document string) (*JudgeVerdict, error)
}

// Embedder converts documents into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Anonymizer masks sensitive content in a batch before documents are built
// from it. The default implementation is a pass-through.
type Anonymizer interface {
	Anonymize(batch *EmailBatch) *EmailBatch
}

// VerdictCache stores analysis results keyed by the normalized document's
// content id.
type VerdictCache interface {
	Get(ctx context.Context, contentID string) (*AnalysisResult, bool)
	Set(ctx context.Context, contentID string, result *AnalysisResult, ttl time.Duration)
	Delete(ctx context.Context, contentID string) error
	Cleanup(ctx context.Context) error
}
