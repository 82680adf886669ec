package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/di"
	"github.com/phishnet/phishbowl/internal/nets"
	"github.com/phishnet/phishbowl/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the analyzer
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Analyzer error: %v\n", err)
		os.Exit(1)
	}
}

// run is the analyzer entry point that gets all dependencies injected
func run(
	logger *zap.Logger,
	flags *di.CLIFlags,
	emailFilter ports.EmailFilter,
	senderNet *nets.SenderPhishNet,
	judgeClient core.JudgeClient,
) error {
	defer logger.Sync()

	email, err := readEmail(flags.InputFile, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := emailFilter.ProcessEmail(ctx, email); err != nil {
		return err
	}

	if flags.SenderCheck {
		results, err := senderNet.Analyze(ctx, core.BatchFromEmails(email))
		if err != nil {
			logger.Error("Sender check failed", zap.Error(err))
		} else {
			fmt.Printf("\n=== Sender ===\n")
			fmt.Printf("Sender reputation score: %.4f\n", results[0].PhishingScore)
		}
	}

	// Close any resources that need closing
	if closer, ok := judgeClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close judge client", zap.Error(err))
		}
	}

	return nil
}

// readEmail parses an RFC 5322 message from the given file, or stdin when
// the path is empty.
func readEmail(path string, logger *zap.Logger) (*core.Email, error) {
	var emailReader io.Reader
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", path, err)
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", path))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read email body: %w", err)
	}

	email := &core.Email{Body: string(bodyBytes)}
	if from := msg.Header.Get("From"); from != "" {
		email.Sender = &from
	}
	if subject := msg.Header.Get("Subject"); subject != "" {
		email.Subject = &subject
	}

	return email, nil
}
