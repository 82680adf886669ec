package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubNet struct {
	BasePhishNet
	result   AnalysisResult
	err      error
	analyzed int
}

func (n *stubNet) Analyze(_ context.Context, batch *EmailBatch) ([]AnalysisResult, error) {
	n.analyzed++
	if n.err != nil {
		return nil, n.err
	}
	results := make([]AnalysisResult, len(batch.Body))
	for i := range results {
		results[i] = n.result
	}
	return results, nil
}

type fakeCache struct {
	entries map[string]*AnalysisResult
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*AnalysisResult{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, contentID string) (*AnalysisResult, bool) {
	result, ok := c.entries[contentID]
	return result, ok
}

func (c *fakeCache) Set(_ context.Context, contentID string, result *AnalysisResult, ttl time.Duration) {
	c.entries[contentID] = result
	c.ttls[contentID] = ttl
}

func (c *fakeCache) Delete(_ context.Context, contentID string) error {
	delete(c.entries, contentID)
	return nil
}

func (c *fakeCache) Cleanup(context.Context) error { return nil }

type staticIDer struct{ id string }

func (s staticIDer) ContentIDs(batch *EmailBatch) []string {
	ids := make([]string, len(batch.Body))
	for i := range ids {
		ids[i] = s.id
	}
	return ids
}

func testEmail() *Email {
	sender := "alice@example.com"
	return &Email{Sender: &sender, Body: "Please verify your account."}
}

func TestAnalyzeEmailCacheMissThenHit(t *testing.T) {
	net := &stubNet{result: AnalysisResult{PhishingScore: 0.8, Reason: "judge flagged it"}}
	cache := newFakeCache()
	service := NewAnalyzerService(net, cache, staticIDer{id: "abc123"}, zap.NewNop(), true, time.Hour, 0.5)
	ctx := context.Background()

	first, err := service.AnalyzeEmail(ctx, testEmail())
	require.NoError(t, err)
	assert.Equal(t, 0.8, first.PhishingScore)
	assert.Equal(t, 1, net.analyzed)
	assert.Equal(t, time.Hour, cache.ttls["abc123"])

	second, err := service.AnalyzeEmail(ctx, testEmail())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, net.analyzed, "cache hit must not reach the net")
}

func TestAnalyzeEmailCacheDisabled(t *testing.T) {
	net := &stubNet{result: AnalysisResult{PhishingScore: 0.3}}
	cache := newFakeCache()
	service := NewAnalyzerService(net, cache, staticIDer{id: "abc123"}, zap.NewNop(), false, time.Hour, 0.5)
	ctx := context.Background()

	_, err := service.AnalyzeEmail(ctx, testEmail())
	require.NoError(t, err)
	_, err = service.AnalyzeEmail(ctx, testEmail())
	require.NoError(t, err)

	assert.Equal(t, 2, net.analyzed)
	assert.Empty(t, cache.entries)
}

func TestAnalyzeEmailNetErrorNotCached(t *testing.T) {
	netErr := errors.New("ensemble down")
	net := &stubNet{err: netErr}
	cache := newFakeCache()
	service := NewAnalyzerService(net, cache, staticIDer{id: "abc123"}, zap.NewNop(), true, time.Hour, 0.5)

	_, err := service.AnalyzeEmail(context.Background(), testEmail())
	assert.ErrorIs(t, err, netErr)
	assert.Empty(t, cache.entries)
}

func TestAnalyzeEmailRejectsEmptyBody(t *testing.T) {
	service := NewAnalyzerService(&stubNet{}, newFakeCache(), staticIDer{id: "x"}, zap.NewNop(), true, time.Hour, 0.5)

	_, err := service.AnalyzeEmail(context.Background(), &Email{Body: ""})
	var inputErr *InputError
	assert.ErrorAs(t, err, &inputErr)
}

func TestAnalyzeBatch(t *testing.T) {
	net := &stubNet{result: AnalysisResult{PhishingScore: 0.6}}
	service := NewAnalyzerService(net, newFakeCache(), staticIDer{id: "x"}, zap.NewNop(), true, time.Hour, 0.5)

	batch := BatchFromEmails(testEmail(), testEmail())
	results, err := service.AnalyzeBatch(context.Background(), batch)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestIsPhishingThreshold(t *testing.T) {
	service := NewAnalyzerService(&stubNet{}, newFakeCache(), staticIDer{id: "x"}, zap.NewNop(), false, 0, 0.5)

	assert.True(t, service.IsPhishing(&AnalysisResult{PhishingScore: 0.5}))
	assert.True(t, service.IsPhishing(&AnalysisResult{PhishingScore: 0.9}))
	assert.False(t, service.IsPhishing(&AnalysisResult{PhishingScore: 0.49}))
}
