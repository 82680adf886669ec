package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/phishnet/phishbowl/internal/di"
	"github.com/phishnet/phishbowl/internal/phishbowl"
	"go.uber.org/zap"
)

var (
	inputFile = flag.String("file", "", "Labeled dataset in JSONL format (one email per line)")
	clearAll  = flag.Bool("clear", false, "Clear the collection before seeding")
	anonymize = flag.Bool("anonymize", false, "Anonymize emails before ingestion")
	countOnly = flag.Bool("count", false, "Print the collection size and exit")
)

// seedRecord is one line of the JSONL dataset
type seedRecord struct {
	Sender  *string  `json:"sender"`
	Subject *string  `json:"subject"`
	Body    string   `json:"body"`
	Label   *float64 `json:"label"`
}

func main() {
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the seeder
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Seeder error: %v\n", err)
		os.Exit(1)
	}
}

// run is the seeder entry point that gets all dependencies injected
func run(logger *zap.Logger, bowl *phishbowl.PhishBowl) error {
	defer logger.Sync()

	ctx := context.Background()

	if *countOnly {
		count, err := bowl.Count(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Printf("Collection holds %d emails\n", count)
		return nil
	}

	if *clearAll {
		logger.Info("Clearing collection")
		if err := bowl.Clear(ctx); err != nil {
			return err
		}
	}

	if *inputFile == "" {
		return fmt.Errorf("no dataset given, use -file")
	}

	batch, err := loadDataset(*inputFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded dataset",
		zap.String("file", *inputFile),
		zap.Int("emails", batch.Len()))

	if err := bowl.Add(ctx, batch, *anonymize); err != nil {
		return err
	}

	count, err := bowl.Count(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d emails, collection now holds %d\n", batch.Len(), count)
	return nil
}

// loadDataset reads a JSONL dataset into a labeled batch
func loadDataset(path string) (*core.EmailBatch, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer file.Close()

	batch := &core.EmailBatch{Label: []float64{}}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var record seedRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}
		if record.Label == nil {
			return nil, fmt.Errorf("record on line %d has no label", line)
		}

		batch.Sender = append(batch.Sender, record.Sender)
		batch.Subject = append(batch.Subject, record.Subject)
		batch.Body = append(batch.Body, record.Body)
		batch.Label = append(batch.Label, *record.Label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	return batch, nil
}
