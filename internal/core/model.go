package core

import (
	"fmt"
	"time"
)

// Email represents a single email message. Sender and Subject are pointers
// because their absence carries meaning for text normalization: a nil field
// is omitted from the normalized document entirely, while an empty string is
// treated as absent after trimming.
type Email struct {
	Sender  *string
	Subject *string
	Body    string
	Label   *float64 // 1 for phishing, 0 for benign; nil when unlabeled
	Unsafe  bool     // set by upstream extraction when a content-blocked banner was seen
}

// EmailBatch is a column-oriented collection of emails. All populated
// columns must have identical length; index i across columns refers to the
// same logical email. Label and Unsafe are optional columns and may be nil
// for the whole batch.
type EmailBatch struct {
	Sender  []*string
	Subject []*string
	Body    []string
	Label   []float64
	Unsafe  []bool
}

// Len returns the number of emails in the batch.
func (b *EmailBatch) Len() int {
	return len(b.Body)
}

// Labeled reports whether the batch carries labels.
func (b *EmailBatch) Labeled() bool {
	return b.Label != nil
}

// Validate checks the batch invariants: parallel columns of equal length and
// a non-empty body for every email. Violations are reported as *InputError.
func (b *EmailBatch) Validate() error {
	n := len(b.Body)
	if n == 0 {
		return &InputError{Reason: "batch contains no emails"}
	}
	if len(b.Sender) != n {
		return &InputError{Reason: "sender column length does not match body column"}
	}
	if len(b.Subject) != n {
		return &InputError{Reason: "subject column length does not match body column"}
	}
	if b.Label != nil && len(b.Label) != n {
		return &InputError{Reason: "label column length does not match body column"}
	}
	if b.Unsafe != nil && len(b.Unsafe) != n {
		return &InputError{Reason: "unsafe column length does not match body column"}
	}
	for i, body := range b.Body {
		if body == "" {
			return &InputError{Reason: fmt.Sprintf("email %d has an empty body", i)}
		}
	}
	return nil
}

// WithoutLabels returns a shallow copy of the batch with the label column
// dropped. Inference-time documents must never carry the label prefix.
func (b *EmailBatch) WithoutLabels() *EmailBatch {
	return &EmailBatch{
		Sender:  b.Sender,
		Subject: b.Subject,
		Body:    b.Body,
		Unsafe:  b.Unsafe,
	}
}

// BatchFromEmails repacks individual emails into a column-oriented batch.
// The label column is populated only when every email carries a label.
func BatchFromEmails(emails ...*Email) *EmailBatch {
	batch := &EmailBatch{
		Sender:  make([]*string, len(emails)),
		Subject: make([]*string, len(emails)),
		Body:    make([]string, len(emails)),
	}
	labeled := len(emails) > 0
	unsafe := false
	for _, email := range emails {
		if email.Label == nil {
			labeled = false
		}
		if email.Unsafe {
			unsafe = true
		}
	}
	if labeled {
		batch.Label = make([]float64, len(emails))
	}
	if unsafe {
		batch.Unsafe = make([]bool, len(emails))
	}
	for i, email := range emails {
		batch.Sender[i] = email.Sender
		batch.Subject[i] = email.Subject
		batch.Body[i] = email.Body
		if labeled {
			batch.Label[i] = *email.Label
		}
		if unsafe {
			batch.Unsafe[i] = email.Unsafe
		}
	}
	return batch
}

// AnalysisResult is the per-email output of a net. PhishingScore is always
// populated; the remaining fields are filled by the nets that produce them
// (confidence by the semantic net, impersonation details by the judge, the
// union by the ensemble).
type AnalysisResult struct {
	PhishingScore      float64
	Confidence         float64
	Impersonating      *string
	Reason             string
	SemanticConfidence float64
	AnalyzedAt         time.Time
}

// JudgeVerdict is the structured verdict parsed from a judge response.
type JudgeVerdict struct {
	IsPhishing    bool    `json:"is_phishing"`
	Confidence    int     `json:"confidence"`
	Impersonating *string `json:"is_impersonating"`
	Reason        string  `json:"reason"`
}

// QueryMatch is a single nearest-neighbor hit returned by a vector store
// query: the embedding distance (non-negative, smaller means more similar)
// and the stored label of the matched document.
type QueryMatch struct {
	Distance float64
	Label    float64
}

// TrainData carries a labeled dataset for nets that support training.
type TrainData struct {
	Emails   *EmailBatch
	Metadata map[string]string
}
