package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJudgeVerdict extracts the JSON verdict from a raw judge response.
// The substring between the first '{' and the last '}' is parsed, which
// tolerates minor wrapping prose around the object. Unparseable responses
// are reported as ErrJudgeMalformed.
func ParseJudgeVerdict(message string) (*JudgeVerdict, error) {
	start := strings.Index(message, "{")
	end := strings.LastIndex(message, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrJudgeMalformed)
	}

	var verdict JudgeVerdict
	if err := json.Unmarshal([]byte(message[start:end+1]), &verdict); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgeMalformed, err)
	}

	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	} else if verdict.Confidence > 10 {
		verdict.Confidence = 10
	}
	return &verdict, nil
}
