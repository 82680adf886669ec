// Package memstore provides an in-memory vector store for development and
// tests. Documents are embedded through the configured embedder and queried
// by brute-force L2 distance.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

type entry struct {
	document string
	vector   []float32
	metadata map[string]any
}

// Store is an in-memory core.VectorStore implementation.
type Store struct {
	embedder core.Embedder
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty in-memory store.
func New(embedder core.Embedder, logger *zap.Logger) *Store {
	return &Store{
		embedder: embedder,
		logger:   logger,
		entries:  make(map[string]entry),
	}
}

// Add upserts documents by id. Existing ids keep their original entry, so
// re-adding identical content is a no-op.
func (s *Store) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) {
		return fmt.Errorf("%w: mismatched add lengths", core.ErrStoreUnavailable)
	}

	vectors, err := s.embedder.Embed(ctx, documents)
	if err != nil {
		return fmt.Errorf("%w: embedding failed: %v", core.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		if _, exists := s.entries[id]; exists {
			continue
		}
		s.entries[id] = entry{
			document: documents[i],
			vector:   vectors[i],
			metadata: metadatas[i],
		}
	}
	return nil
}

// Query returns the k nearest neighbors per query document by L2 distance,
// nearest first.
func (s *Store) Query(ctx context.Context, documents []string, k int) ([][]core.QueryMatch, error) {
	vectors, err := s.embedder.Embed(ctx, documents)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding failed: %v", core.ErrStoreUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([][]core.QueryMatch, len(documents))
	for qi, query := range vectors {
		matches := make([]core.QueryMatch, 0, len(s.entries))
		for _, e := range s.entries {
			label, _ := e.metadata["label"].(float64)
			matches = append(matches, core.QueryMatch{
				Distance: l2Distance(query, e.vector),
				Label:    label,
			})
		}
		sort.Slice(matches, func(i, j int) bool {
			return matches[i].Distance < matches[j].Distance
		})
		if len(matches) > k {
			matches = matches[:k]
		}
		results[qi] = matches
	}
	return results, nil
}

// Delete removes documents by id; unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// Count returns the number of stored documents matching the filter.
func (s *Store) Count(ctx context.Context, where map[string]any) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if where == nil {
		return len(s.entries), nil
	}

	count := 0
	for _, e := range s.entries {
		match, err := matchesFilter(e.metadata, where)
		if err != nil {
			return 0, err
		}
		if match {
			count++
		}
	}
	return count, nil
}

// Clear drops every document. The store stays usable immediately.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	return nil
}

// matchesFilter evaluates a metadata equality/comparison filter of the form
// {"label": 1.0} or {"label": {"$gte": 0.5}}.
func matchesFilter(metadata, where map[string]any) (bool, error) {
	for field, cond := range where {
		value, ok := metadata[field]
		if !ok {
			return false, nil
		}
		switch c := cond.(type) {
		case map[string]any:
			for op, operand := range c {
				match, err := compare(op, value, operand)
				if err != nil {
					return false, err
				}
				if !match {
					return false, nil
				}
			}
		default:
			if value != cond {
				return false, nil
			}
		}
	}
	return true, nil
}

func compare(op string, value, operand any) (bool, error) {
	a, aok := toFloat(value)
	b, bok := toFloat(operand)
	if !aok || !bok {
		if op == "$eq" {
			return value == operand, nil
		}
		return false, fmt.Errorf("filter operator %s requires numeric operands", op)
	}
	switch op {
	case "$eq":
		return a == b, nil
	case "$ne":
		return a != b, nil
	case "$gt":
		return a > b, nil
	case "$gte":
		return a >= b, nil
	case "$lt":
		return a < b, nil
	case "$lte":
		return a <= b, nil
	default:
		return false, fmt.Errorf("unsupported filter operator %s", op)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func l2Distance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
