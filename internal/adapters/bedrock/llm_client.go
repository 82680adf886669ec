package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/phishnet/phishbowl/internal/core"
	"go.uber.org/zap"
)

// JudgeClient is a core.JudgeClient backed by Anthropic Claude models on
// Amazon Bedrock.
type JudgeClient struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int
	logger    *zap.Logger
}

// NewJudgeClient creates a Bedrock judge client.
func NewJudgeClient(client *bedrockruntime.Client, modelID string, maxTokens int, logger *zap.Logger) *JudgeClient {
	return &JudgeClient{
		client:    client,
		modelID:   modelID,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Judge sends the document to the model and parses the structured verdict.
func (c *JudgeClient) Judge(ctx context.Context, document string) (*core.JudgeVerdict, error) {
	reqBody := claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        c.maxTokens,
		Temperature:      0,
		System:           core.JudgeSystemPrompt,
		Messages: []claudeMessage{
			{Role: "user", Content: fmt.Sprintf(core.JudgeUserPromptFormat, document)},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal judge request: %w", err)
	}

	out, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrJudgeMalformed, err)
	}

	text := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return core.ParseJudgeVerdict(text)
}

func classifyError(err error) error {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return fmt.Errorf("%w: %v", core.ErrJudgeRateLimited, err)
	}
	return fmt.Errorf("judge invocation failed: %w", err)
}
