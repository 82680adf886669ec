package nets

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phishnet/phishbowl/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedJudge returns the queued responses for each document in order.
// Safe for the net's concurrent fan-out.
type scriptedJudge struct {
	mu        sync.Mutex
	responses map[string][]judgeResponse
	calls     map[string]int
}

type judgeResponse struct {
	verdict *core.JudgeVerdict
	err     error
}

func newScriptedJudge() *scriptedJudge {
	return &scriptedJudge{
		responses: make(map[string][]judgeResponse),
		calls:     make(map[string]int),
	}
}

func (j *scriptedJudge) on(substr string, responses ...judgeResponse) {
	j.responses[substr] = responses
}

func (j *scriptedJudge) Judge(ctx context.Context, document string) (*core.JudgeVerdict, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for substr, queue := range j.responses {
		if strings.Contains(document, substr) {
			call := j.calls[substr]
			j.calls[substr]++
			if call >= len(queue) {
				call = len(queue) - 1
			}
			return queue[call].verdict, queue[call].err
		}
	}
	return &core.JudgeVerdict{}, nil
}

func (j *scriptedJudge) callCount(substr string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls[substr]
}

func newJudgeNet(client core.JudgeClient) *JudgePhishNet {
	return NewJudgePhishNet(client, testProcessor(), 3, time.Millisecond, zap.NewNop())
}

func TestJudgeNet_ScoreMapping(t *testing.T) {
	tests := []struct {
		name    string
		verdict *core.JudgeVerdict
		want    float64
	}{
		{"certain phishing", &core.JudgeVerdict{IsPhishing: true, Confidence: 10}, 1.0},
		{"certain benign", &core.JudgeVerdict{IsPhishing: false, Confidence: 10}, 0.0},
		{"leaning phishing", &core.JudgeVerdict{IsPhishing: true, Confidence: 4}, 0.7},
		{"no opinion", &core.JudgeVerdict{}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newScriptedJudge()
			client.on("hello", judgeResponse{verdict: tt.verdict})

			results, err := newJudgeNet(client).Analyze(context.Background(), singleEmailBatch("hello"))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, results[0].PhishingScore, 1e-9)
		})
	}
}

func TestJudgeNet_VerdictFieldsCarriedThrough(t *testing.T) {
	brand := "PayPal"
	client := newScriptedJudge()
	client.on("hello", judgeResponse{verdict: &core.JudgeVerdict{
		IsPhishing:    true,
		Confidence:    9,
		Impersonating: &brand,
		Reason:        "login lure",
	}})

	results, err := newJudgeNet(client).Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	require.NotNil(t, results[0].Impersonating)
	assert.Equal(t, "PayPal", *results[0].Impersonating)
	assert.Equal(t, "login lure", results[0].Reason)
	assert.False(t, results[0].AnalyzedAt.IsZero())
}

func TestJudgeNet_MalformedResponseRetried(t *testing.T) {
	client := newScriptedJudge()
	client.on("hello",
		judgeResponse{err: core.ErrJudgeMalformed},
		judgeResponse{err: core.ErrJudgeMalformed},
		judgeResponse{verdict: &core.JudgeVerdict{IsPhishing: true, Confidence: 10}},
	)

	results, err := newJudgeNet(client).Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, results[0].PhishingScore, 1e-9)
	assert.Equal(t, 3, client.callCount("hello"))
}

func TestJudgeNet_RateLimitBackedOffAndRetried(t *testing.T) {
	client := newScriptedJudge()
	client.on("hello",
		judgeResponse{err: core.ErrJudgeRateLimited},
		judgeResponse{verdict: &core.JudgeVerdict{IsPhishing: false, Confidence: 8}},
	)

	results, err := newJudgeNet(client).Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 0.1, results[0].PhishingScore, 1e-9)
	assert.Equal(t, 2, client.callCount("hello"))
}

func TestJudgeNet_ExhaustedRetriesDegradeToNeutral(t *testing.T) {
	client := newScriptedJudge()
	client.on("hello", judgeResponse{err: core.ErrJudgeMalformed})

	results, err := newJudgeNet(client).Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, results[0].PhishingScore, 1e-9)
	assert.Equal(t, 3, client.callCount("hello"))
}

func TestJudgeNet_ContentFilterBecomesPhishingVerdict(t *testing.T) {
	client := newScriptedJudge()
	client.on("hello", judgeResponse{err: core.ErrJudgeContentFiltered})

	results, err := newJudgeNet(client).Analyze(context.Background(), singleEmailBatch("hello"))
	require.NoError(t, err)

	// Confidence 8 phishing maps to 0.9 and the canned reason survives
	assert.InDelta(t, 0.9, results[0].PhishingScore, 1e-9)
	assert.Equal(t, "email contains either hateful, sexual, violent, or self-harm content", results[0].Reason)
	// The content filter is terminal, no retries
	assert.Equal(t, 1, client.callCount("hello"))
}

func TestJudgeNet_UnsafeEmailSkipsJudge(t *testing.T) {
	client := newScriptedJudge()

	batch := singleEmailBatch("do not send me")
	batch.Unsafe = []bool{true}

	results, err := newJudgeNet(client).Analyze(context.Background(), batch)
	require.NoError(t, err)

	assert.InDelta(t, 0.9, results[0].PhishingScore, 1e-9)
	assert.Equal(t, "email contains either hateful, sexual, violent, or self-harm content", results[0].Reason)
	assert.Equal(t, 0, client.callCount("do not send me"))
}

func TestJudgeNet_FailingEmailDoesNotPoisonSiblings(t *testing.T) {
	client := newScriptedJudge()
	client.on("first", judgeResponse{verdict: &core.JudgeVerdict{IsPhishing: true, Confidence: 10}})
	client.on("second", judgeResponse{err: core.ErrJudgeMalformed})
	client.on("third", judgeResponse{verdict: &core.JudgeVerdict{IsPhishing: false, Confidence: 10}})

	batch := &core.EmailBatch{
		Sender:  []*string{nil, nil, nil},
		Subject: []*string{nil, nil, nil},
		Body:    []string{"first", "second", "third"},
	}
	results, err := newJudgeNet(client).Analyze(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.InDelta(t, 1.0, results[0].PhishingScore, 1e-9)
	assert.InDelta(t, 0.5, results[1].PhishingScore, 1e-9)
	assert.InDelta(t, 0.0, results[2].PhishingScore, 1e-9)
}
