// Package phishbowl manages the corpus of labeled emails backing the
// semantic net: batched, content-addressed ingestion and maintenance over a
// vector store.
package phishbowl

import (
	"context"
	"fmt"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/textproc"
	"go.uber.org/zap"
)

// PhishBowl ingests and maintains labeled email documents in the vector
// store. Ids are derived from the normalized document text, so adding the
// same email twice is a no-op and deletes can recompute the id from the
// email content alone.
type PhishBowl struct {
	store      core.VectorStore
	processor  *textproc.EmailTextProcessor
	anonymizer core.Anonymizer
	batchSize  int
	logger     *zap.Logger
}

// New creates a phishbowl. batchSize bounds how many documents are embedded
// and upserted per store call.
func New(
	store core.VectorStore,
	processor *textproc.EmailTextProcessor,
	anonymizer core.Anonymizer,
	batchSize int,
	logger *zap.Logger,
) *PhishBowl {
	return &PhishBowl{
		store:      store,
		processor:  processor,
		anonymizer: anonymizer,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// ProcessEmails returns the normalized document and content id for each
// email, optionally anonymizing the batch first.
func (b *PhishBowl) ProcessEmails(batch *core.EmailBatch, anonymize bool) ([]string, []string) {
	if anonymize {
		batch = b.anonymizer.Anonymize(batch)
	}
	return b.processor.ToText(batch), b.processor.ContentIDs(batch)
}

// Add ingests the labeled emails in bounded sub-batches. Earlier
// sub-batches stay committed when a later one fails; the failure is
// reported for the whole call.
func (b *PhishBowl) Add(ctx context.Context, batch *core.EmailBatch, anonymize bool) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	if !batch.Labeled() {
		return &core.InputError{Reason: "phishbowl ingestion requires labeled emails"}
	}

	documents, ids := b.ProcessEmails(batch, anonymize)
	metadatas := make([]map[string]any, len(documents))
	for i, label := range batch.Label {
		metadatas[i] = map[string]any{"label": label}
	}

	for start := 0; start < len(documents); start += b.batchSize {
		end := min(start+b.batchSize, len(documents))
		if err := b.store.Add(ctx, ids[start:end], documents[start:end], metadatas[start:end]); err != nil {
			return fmt.Errorf("failed to ingest emails %d..%d: %w", start, end, err)
		}
	}

	b.logger.Info("Ingested emails into phishbowl", zap.Int("count", len(documents)))
	return nil
}

// Delete removes the emails by recomputing their content ids. The
// anonymize flag must match the one used at ingestion time for the ids to
// line up. Unknown ids are ignored by the store.
func (b *PhishBowl) Delete(ctx context.Context, batch *core.EmailBatch, anonymize bool) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	_, ids := b.ProcessEmails(batch, anonymize)
	for start := 0; start < len(ids); start += b.batchSize {
		end := min(start+b.batchSize, len(ids))
		if err := b.store.Delete(ctx, ids[start:end]); err != nil {
			return fmt.Errorf("failed to delete emails %d..%d: %w", start, end, err)
		}
	}
	return nil
}

// Count returns the number of stored emails, optionally narrowed by a
// metadata filter such as {"label": {"$gte": 0.5}}.
func (b *PhishBowl) Count(ctx context.Context, where map[string]any) (int, error) {
	return b.store.Count(ctx, where)
}

// Clear removes every email from the phishbowl. The store recreates an
// empty collection immediately, so callers never observe a missing
// collection.
func (b *PhishBowl) Clear(ctx context.Context) error {
	b.logger.Warn("Clearing the phishbowl")
	return b.store.Clear(ctx)
}
