package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// JudgeClient is a core.JudgeClient backed by Google Gemini.
type JudgeClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *zap.Logger
}

// NewJudgeClient creates a Gemini judge client. The rubric is installed as
// the system instruction and sampling is pinned to temperature zero.
func NewJudgeClient(apiKey, modelName string, maxTokens int, logger *zap.Logger) (*JudgeClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(core.JudgeSystemPrompt)},
	}

	return &JudgeClient{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Close closes the underlying client.
func (c *JudgeClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Judge sends the document to the model and parses the structured verdict.
func (c *JudgeClient) Judge(ctx context.Context, document string) (*core.JudgeVerdict, error) {
	prompt := fmt.Sprintf(core.JudgeUserPromptFormat, document)
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifyError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason == genai.BlockReasonSafety {
		return nil, fmt.Errorf("%w: prompt blocked for safety", core.ErrJudgeContentFiltered)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty response", core.ErrJudgeMalformed)
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: response blocked for safety", core.ErrJudgeContentFiltered)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return core.ParseJudgeVerdict(sb.String())
}

func classifyError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", core.ErrJudgeRateLimited, err)
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", core.ErrJudgeContentFiltered, err)
	}
	return fmt.Errorf("judge generation failed: %w", err)
}
