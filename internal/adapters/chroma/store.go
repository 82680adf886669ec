// Package chroma implements the vector store port against a Chroma server
// over its REST API. Embeddings are computed client-side through the
// configured embedder; the collection is created with L2 distance.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// Store is a core.VectorStore backed by a Chroma collection.
type Store struct {
	baseURL    string
	collection string
	embedder   core.Embedder
	httpClient *http.Client
	logger     *zap.Logger

	ensureMu     sync.Mutex
	collectionID string
}

// New creates a store for the named collection on the given server. The
// collection is created lazily on first use.
func New(baseURL, collection string, embedder core.Embedder, logger *zap.Logger) *Store {
	return &Store{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Add upserts documents by id. Chroma's add is add-if-absent, which
// preserves the content-addressed dedupe: re-adding an existing id is a
// no-op.
func (s *Store) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	if len(ids) == 0 {
		return nil
	}
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}

	embeddings, err := s.embedder.Embed(ctx, documents)
	if err != nil {
		return fmt.Errorf("%w: embedding failed: %v", core.ErrStoreUnavailable, err)
	}

	body := map[string]any{
		"ids":        ids,
		"documents":  documents,
		"metadatas":  metadatas,
		"embeddings": embeddings,
	}
	return s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/add", collectionID), body, nil)
}

type queryResponse struct {
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// Query returns the k nearest neighbors per query document, nearest first.
func (s *Store) Query(ctx context.Context, documents []string, k int) ([][]core.QueryMatch, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return nil, err
	}

	embeddings, err := s.embedder.Embed(ctx, documents)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding failed: %v", core.ErrStoreUnavailable, err)
	}

	body := map[string]any{
		"query_embeddings": embeddings,
		"n_results":        k,
		"include":          []string{"metadatas", "distances"},
	}
	var resp queryResponse
	if err := s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/query", collectionID), body, &resp); err != nil {
		return nil, err
	}

	results := make([][]core.QueryMatch, len(documents))
	for qi := range results {
		if qi >= len(resp.Distances) || qi >= len(resp.Metadatas) {
			break
		}
		distances := resp.Distances[qi]
		metadatas := resp.Metadatas[qi]
		matches := make([]core.QueryMatch, 0, len(distances))
		for mi, distance := range distances {
			label := 0.0
			if mi < len(metadatas) {
				if v, ok := metadatas[mi]["label"].(float64); ok {
					label = v
				}
			}
			matches = append(matches, core.QueryMatch{Distance: distance, Label: label})
		}
		results[qi] = matches
	}
	return results, nil
}

// Delete removes documents by id; unknown ids are ignored by Chroma.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return err
	}
	return s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/delete", collectionID), map[string]any{"ids": ids}, nil)
}

// Count returns the collection size, or the number of documents matching
// the metadata filter. Filtered counts use a get with an empty include so
// documents and embeddings never leave the server.
func (s *Store) Count(ctx context.Context, where map[string]any) (int, error) {
	collectionID, err := s.ensureCollection(ctx)
	if err != nil {
		return 0, err
	}

	if where == nil {
		var count int
		if err := s.get(ctx, fmt.Sprintf("/api/v1/collections/%s/count", collectionID), &count); err != nil {
			return 0, err
		}
		return count, nil
	}

	var resp struct {
		IDs []string `json:"ids"`
	}
	body := map[string]any{"where": where, "include": []string{}}
	if err := s.post(ctx, fmt.Sprintf("/api/v1/collections/%s/get", collectionID), body, &resp); err != nil {
		return 0, err
	}
	return len(resp.IDs), nil
}

// Clear deletes the collection and recreates it immediately, so callers
// never observe a missing collection.
func (s *Store) Clear(ctx context.Context) error {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/api/v1/collections/%s", s.baseURL, s.collection), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	if err := s.do(req, nil); err != nil {
		return err
	}

	s.collectionID = ""
	_, err = s.createCollection(ctx)
	return err
}

// ensureCollection resolves the collection id, creating the collection on
// first use.
func (s *Store) ensureCollection(ctx context.Context) (string, error) {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	if s.collectionID != "" {
		return s.collectionID, nil
	}
	return s.createCollection(ctx)
}

// createCollection issues a get-or-create and caches the returned id.
// Callers must hold ensureMu.
func (s *Store) createCollection(ctx context.Context) (string, error) {
	body := map[string]any{
		"name":          s.collection,
		"metadata":      map[string]any{"hnsw:space": "l2"},
		"get_or_create": true,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := s.post(ctx, "/api/v1/collections", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: collection create returned no id", core.ErrStoreUnavailable)
	}
	s.collectionID = resp.ID
	s.logger.Debug("Resolved chroma collection",
		zap.String("collection", s.collection),
		zap.String("id", resp.ID))
	return resp.ID, nil
}

func (s *Store) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", core.ErrStoreUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, out)
}

func (s *Store) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return s.do(req, out)
}

func (s *Store) do(req *http.Request, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %s (%s)", core.ErrStoreUnavailable,
			req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}
