package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// JudgeClient is a core.JudgeClient backed by an OpenAI or Azure OpenAI
// chat completion endpoint.
type JudgeClient struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewJudgeClient creates a judge client for the given model. maxTokens
// bounds the verdict output, not the email input.
func NewJudgeClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	logger *zap.Logger,
) *JudgeClient {
	return &JudgeClient{
		client:    client,
		modelName: modelName,
		maxTokens: maxTokens,
		// go-openai omits a zero temperature from the request, which would
		// fall back to the provider default; the smallest positive value
		// keeps sampling effectively deterministic.
		temperature: 1e-7,
		logger:      logger,
	}
}

// Judge sends the document to the model with the fixed rubric and parses
// the structured verdict.
func (c *JudgeClient) Judge(ctx context.Context, document string) (*core.JudgeVerdict, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: core.JudgeSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(core.JudgeUserPromptFormat, document),
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, c.classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", core.ErrJudgeMalformed)
	}

	return core.ParseJudgeVerdict(resp.Choices[0].Message.Content)
}

// classifyError maps provider errors onto the judge error taxonomy: 429
// means rate limited, 400 means the safety filter rejected the request.
func (c *JudgeClient) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", core.ErrJudgeRateLimited, err)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %v", core.ErrJudgeContentFiltered, err)
		}
	}
	return fmt.Errorf("judge completion failed: %w", err)
}
