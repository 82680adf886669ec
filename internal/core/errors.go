package core

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable indicates the vector store could not be reached
	// or rejected the request. It is propagated without retry; the caller
	// owns the retry policy.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrJudgeRateLimited indicates the judge endpoint rejected the call
	// due to rate limiting. Transient; retried with backoff.
	ErrJudgeRateLimited = errors.New("judge rate limited")

	// ErrJudgeMalformed indicates the judge response contained no
	// parseable JSON verdict. Transient; retried immediately.
	ErrJudgeMalformed = errors.New("judge response malformed")

	// ErrJudgeContentFiltered indicates the provider safety filter blocked
	// the request. Not retried; mapped to a deterministic high-risk
	// verdict.
	ErrJudgeContentFiltered = errors.New("judge request content filtered")
)

// InputError reports a malformed batch. The whole batch is rejected before
// any processing happens; there are never partial results.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid email batch: %s", e.Reason)
}
