package nets

import (
	"context"
	"net"
	"regexp"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/domainlist"
	"go.uber.org/zap"
)

var (
	mailNameRe   = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+)@(?:[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)
	mailDomainRe = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)
)

// MXResolver looks up MX records for a domain. *net.Resolver satisfies it.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// SenderPhishNet scores emails with heuristics on the sender address: a
// domain without MX records and a domain on the spam blocklist each count
// against it. Emails without a parseable sender domain score zero.
type SenderPhishNet struct {
	core.BasePhishNet
	resolver    MXResolver
	spamDomains *domainlist.List
	logger      *zap.Logger
}

// NewSenderPhishNet creates a sender-heuristics net.
func NewSenderPhishNet(resolver MXResolver, spamDomains *domainlist.List, logger *zap.Logger) *SenderPhishNet {
	return &SenderPhishNet{
		resolver:    resolver,
		spamDomains: spamDomains,
		logger:      logger,
	}
}

// Analyze scores each email from its sender address alone.
func (n *SenderPhishNet) Analyze(ctx context.Context, batch *core.EmailBatch) ([]core.AnalysisResult, error) {
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	results := make([]core.AnalysisResult, batch.Len())
	for i, sender := range batch.Sender {
		results[i].AnalyzedAt = now

		_, domain := splitSender(sender)
		if domain == "" {
			continue
		}

		mxScore := n.checkMXRecord(ctx, domain)
		spamScore := 0.0
		if n.spamDomains.Contains(domain) {
			spamScore = 1.0
		}
		results[i].PhishingScore = clamp01((mxScore + spamScore) / 2)
	}
	return results, nil
}

// checkMXRecord returns 1 when the domain has no usable MX records.
func (n *SenderPhishNet) checkMXRecord(ctx context.Context, domain string) float64 {
	records, err := n.resolver.LookupMX(ctx, domain)
	if err != nil || len(records) == 0 {
		n.logger.Debug("No MX records for sender domain", zap.String("domain", domain))
		return 1
	}
	return 0
}

// splitSender extracts the mailbox name and domain from a raw sender field,
// which may include a display name around the address.
func splitSender(sender *string) (string, string) {
	if sender == nil {
		return "", ""
	}
	name := ""
	if m := mailNameRe.FindStringSubmatch(*sender); m != nil {
		name = m[1]
	}
	domain := ""
	if m := mailDomainRe.FindStringSubmatch(*sender); m != nil {
		domain = m[1]
	}
	return name, domain
}
