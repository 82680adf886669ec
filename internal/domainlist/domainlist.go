// Package domainlist holds a normalized set of mail domains, loaded from
// configuration or a file with one domain per line.
package domainlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// List is an immutable set of lowercase domains.
type List struct {
	domains map[string]struct{}
}

// New builds a list from the given domains, trimming and lowercasing each.
func New(domains []string, logger *zap.Logger) *List {
	set := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			set[domain] = struct{}{}
		}
	}
	if len(set) > 0 && logger != nil {
		logger.Info("Loaded domain list", zap.Int("count", len(set)))
	}
	return &List{domains: set}
}

// NewFromFile loads a list from a file with one domain per line. Blank
// lines and lines starting with # are skipped. A missing path yields an
// empty list.
func NewFromFile(path string, logger *zap.Logger) (*List, error) {
	if path == "" {
		return New(nil, logger), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain list: %w", err)
	}
	return New(domains, logger), nil
}

// Contains reports whether the domain is on the list.
func (l *List) Contains(domain string) bool {
	_, ok := l.domains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// Len returns the number of domains on the list.
func (l *List) Len() int {
	return len(l.domains)
}
