package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for phishing analysis
type CliFilter struct {
	service *core.AnalyzerService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.AnalyzerService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail processes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.AnalysisResult, error) {
	sender := "(unknown)"
	if email.Sender != nil {
		sender = *email.Sender
	}
	subject := "(none)"
	if email.Subject != nil {
		subject = *email.Subject
	}

	f.logger.Debug("Processing email", zap.String("sender", sender))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", sender)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Analyzing email with the phishing ensemble...\n")
	startTime := time.Now()
	result, err := f.service.AnalyzeEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		fmt.Printf("Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Is phishing: %t\n", f.service.IsPhishing(result))
	fmt.Printf("Phishing score: %.4f\n", result.PhishingScore)
	fmt.Printf("Semantic confidence: %.4f\n", result.SemanticConfidence)
	if result.Impersonating != nil {
		fmt.Printf("Impersonating: %s\n", *result.Impersonating)
	}
	fmt.Printf("Reason: %s\n", result.Reason)
	fmt.Printf("Processing time: %v\n", duration)

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
