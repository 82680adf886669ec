package textproc

import (
	"fmt"
	"math"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokensPerChar is the character-length heuristic used when no exact
// tokenizer is configured. Roughly matches BPE tokenizers on English email
// text.
const DefaultTokensPerChar = 0.28

// Tokenizer converts text to and from a token sequence. Used when exact
// truncation boundaries are required.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// TokenCounter measures and truncates text under a token budget. The two
// implementations, HeuristicCounter and ExactCounter, must agree up to one
// rounding unit.
type TokenCounter interface {
	// Count returns the token count of the text.
	Count(text string) int

	// Truncate cuts the text from the tail to the last boundary that fits
	// within maxTokens.
	Truncate(text string, maxTokens int) string
}

// HeuristicCounter estimates token counts from character length with a
// fixed tokens-per-character ratio. Cheap and tokenizer-free.
type HeuristicCounter struct {
	TokensPerChar float64
}

// NewHeuristicCounter creates a heuristic counter. A non-positive ratio
// falls back to DefaultTokensPerChar.
func NewHeuristicCounter(tokensPerChar float64) *HeuristicCounter {
	if tokensPerChar <= 0 {
		tokensPerChar = DefaultTokensPerChar
	}
	return &HeuristicCounter{TokensPerChar: tokensPerChar}
}

func (c *HeuristicCounter) Count(text string) int {
	return int(math.Ceil(float64(len([]rune(text))) * c.TokensPerChar))
}

func (c *HeuristicCounter) Truncate(text string, maxTokens int) string {
	if maxTokens < 0 {
		return text
	}
	maxChars := int(float64(maxTokens) / c.TokensPerChar)
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// ExactCounter counts and truncates on exact token boundaries using a
// pluggable tokenizer.
type ExactCounter struct {
	tokenizer Tokenizer
}

// NewExactCounter creates a counter backed by the given tokenizer.
func NewExactCounter(tokenizer Tokenizer) *ExactCounter {
	return &ExactCounter{tokenizer: tokenizer}
}

func (c *ExactCounter) Count(text string) int {
	return len(c.tokenizer.Encode(text))
}

func (c *ExactCounter) Truncate(text string, maxTokens int) string {
	if maxTokens < 0 {
		return text
	}
	tokens := c.tokenizer.Encode(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return c.tokenizer.Decode(tokens[:maxTokens])
}

// TiktokenTokenizer is a Tokenizer backed by the BPE encoding of a named
// OpenAI model.
type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenTokenizer resolves the encoding for the given model name.
func NewTiktokenTokenizer(model string) (*TiktokenTokenizer, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encoding for model %q: %w", model, err)
	}
	return &TiktokenTokenizer{encoding: encoding}, nil
}

func (t *TiktokenTokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

func (t *TiktokenTokenizer) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}
