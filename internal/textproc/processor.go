package textproc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/phishnet/phishbowl/internal/core"
)

// TruncateMethod selects how a normalized document is fit into the token
// budget.
type TruncateMethod string

const (
	// TruncateNone performs no truncation. Used by the judge path, which
	// sends full content and lets the upstream API reject oversized input.
	TruncateNone TruncateMethod = "none"

	// TruncateEnd concatenates everything, then hard-truncates the result
	// from the tail to the token budget.
	TruncateEnd TruncateMethod = "end"

	// TruncateContent keeps the body in full and greedily adds optional
	// parts (label prefix, then sender, then subject) while they fit.
	TruncateContent TruncateMethod = "content"

	// TruncateContentEnd applies the content inclusion logic, then
	// hard-truncates the chosen result to the token budget.
	TruncateContentEnd TruncateMethod = "content-end"
)

// ParseTruncateMethod validates a configured method name.
func ParseTruncateMethod(s string) (TruncateMethod, error) {
	switch m := TruncateMethod(s); m {
	case TruncateNone, TruncateEnd, TruncateContent, TruncateContentEnd:
		return m, nil
	default:
		return "", fmt.Errorf("unknown truncate method %q", s)
	}
}

// EmailTextProcessor converts emails into normalized documents for
// embedding and judging. It is a pure function of its configuration:
// identical input always produces identical output.
type EmailTextProcessor struct {
	maxTokens int
	method    TruncateMethod
	counter   TokenCounter
}

// NewEmailTextProcessor creates a processor with the given token budget,
// truncation method and counting backend.
func NewEmailTextProcessor(maxTokens int, method TruncateMethod, counter TokenCounter) *EmailTextProcessor {
	return &EmailTextProcessor{
		maxTokens: maxTokens,
		method:    method,
		counter:   counter,
	}
}

// ToText converts each email in the batch into a single normalized
// document, order-preserving.
func (p *EmailTextProcessor) ToText(batch *core.EmailBatch) []string {
	documents := make([]string, batch.Len())
	for i := range batch.Body {
		var label *float64
		if batch.Labeled() {
			label = &batch.Label[i]
		}
		documents[i] = p.emailText(batch.Sender[i], batch.Subject[i], batch.Body[i], label)
	}
	return documents
}

// ContentIDs returns the content-addressed id of each email's normalized
// document: the hex-encoded SHA-256 of the document text.
func (p *EmailTextProcessor) ContentIDs(batch *core.EmailBatch) []string {
	documents := p.ToText(batch)
	ids := make([]string, len(documents))
	for i, document := range documents {
		sum := sha256.Sum256([]byte(document))
		ids[i] = hex.EncodeToString(sum[:])
	}
	return ids
}

func (p *EmailTextProcessor) emailText(sender, subject *string, body string, label *float64) string {
	// NFC normalization happens before counting and hashing, so byte-distinct
	// encodings of the same text share a content id.
	body = norm.NFC.String(body)
	labelPart := labelClause(label)
	senderPart := headerPart("From", sender)
	subjectPart := headerPart("Subject", subject)

	switch p.method {
	case TruncateEnd:
		return p.counter.Truncate(concat(labelPart, senderPart, subjectPart, body), p.maxTokens)
	case TruncateContent:
		return p.fitContent(labelPart, senderPart, subjectPart, body)
	case TruncateContentEnd:
		return p.counter.Truncate(p.fitContent(labelPart, senderPart, subjectPart, body), p.maxTokens)
	default:
		return concat(labelPart, senderPart, subjectPart, body)
	}
}

// fitContent keeps the body unconditionally and adds the optional parts in
// essentialness order (label prefix, then sender, then subject) as long as
// the combination still fits the budget.
func (p *EmailTextProcessor) fitContent(labelPart, senderPart, subjectPart, body string) string {
	withLabel := concat(labelPart, body)
	if p.counter.Count(withLabel) > p.maxTokens {
		return body
	}
	withSender := concat(labelPart, senderPart, body)
	if p.counter.Count(withSender) > p.maxTokens {
		return withLabel
	}
	withSubject := concat(labelPart, senderPart, subjectPart, body)
	if p.counter.Count(withSubject) > p.maxTokens {
		return withSender
	}
	return withSubject
}

func labelClause(label *float64) string {
	if label == nil {
		return ""
	}
	if *label >= 0.5 {
		return "This email is phishing.\n"
	}
	return "This email is benign.\n"
}

func headerPart(name string, value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return ""
	}
	return fmt.Sprintf("%s: %s\n", name, norm.NFC.String(*value))
}

func concat(parts ...string) string {
	var sb strings.Builder
	for _, part := range parts {
		sb.WriteString(part)
	}
	return sb.String()
}
