package nets

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/domainlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeResolver serves MX records for a fixed set of domains
type fakeResolver struct {
	domains map[string][]*net.MX
}

func (r *fakeResolver) LookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	records, ok := r.domains[name]
	if !ok {
		return nil, errors.New("no such host")
	}
	return records, nil
}

func strPtr(s string) *string { return &s }

func senderBatch(senders ...*string) *core.EmailBatch {
	batch := &core.EmailBatch{
		Sender:  senders,
		Subject: make([]*string, len(senders)),
		Body:    make([]string, len(senders)),
	}
	for i := range batch.Body {
		batch.Body[i] = "body"
	}
	return batch
}

func newSenderNet(t *testing.T, spam ...string) *SenderPhishNet {
	t.Helper()
	resolver := &fakeResolver{domains: map[string][]*net.MX{
		"example.com": {{Host: "mx.example.com", Pref: 10}},
		"shady.net":   {{Host: "mx.shady.net", Pref: 10}},
	}}
	return NewSenderPhishNet(resolver, domainlist.New(spam, zap.NewNop()), zap.NewNop())
}

func TestSenderNet_CleanSenderScoresZero(t *testing.T) {
	net := newSenderNet(t)

	results, err := net.Analyze(context.Background(), senderBatch(strPtr("alice@example.com")))
	require.NoError(t, err)
	assert.Zero(t, results[0].PhishingScore)
}

func TestSenderNet_MissingMXCountsHalf(t *testing.T) {
	net := newSenderNet(t)

	results, err := net.Analyze(context.Background(), senderBatch(strPtr("bob@nowhere.invalid")))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, results[0].PhishingScore, 1e-9)
}

func TestSenderNet_SpamDomainCountsHalf(t *testing.T) {
	net := newSenderNet(t, "shady.net")

	results, err := net.Analyze(context.Background(), senderBatch(strPtr("offers@shady.net")))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, results[0].PhishingScore, 1e-9)
}

func TestSenderNet_BothSignalsScoreFull(t *testing.T) {
	net := newSenderNet(t, "nowhere.invalid")

	results, err := net.Analyze(context.Background(), senderBatch(strPtr("bob@nowhere.invalid")))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, results[0].PhishingScore, 1e-9)
}

func TestSenderNet_UnparseableSenderScoresZero(t *testing.T) {
	net := newSenderNet(t)

	results, err := net.Analyze(context.Background(), senderBatch(nil, strPtr("not an address")))
	require.NoError(t, err)
	assert.Zero(t, results[0].PhishingScore)
	assert.Zero(t, results[1].PhishingScore)
}

func TestSenderNet_ParsesDisplayNameAddresses(t *testing.T) {
	net := newSenderNet(t, "shady.net")

	results, err := net.Analyze(context.Background(), senderBatch(strPtr("Legit Offers <offers@shady.net>")))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, results[0].PhishingScore, 1e-9)
}

func TestSplitSender(t *testing.T) {
	name, domain := splitSender(strPtr("Alice <alice.smith@corp.example.com>"))
	assert.Equal(t, "alice.smith", name)
	assert.Equal(t, "corp.example.com", domain)

	name, domain = splitSender(nil)
	assert.Empty(t, name)
	assert.Empty(t, domain)
}
