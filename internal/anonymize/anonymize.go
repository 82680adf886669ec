// Package anonymize holds the redaction collaborator applied to email
// batches before documents are built from them. The redaction policy lives
// outside this repository; the identity implementation passes batches
// through unchanged.
package anonymize

import (
	"github.com/phishnet/phishbowl/internal/core"
)

// Identity is the pass-through anonymizer.
type Identity struct{}

// NewIdentity creates the pass-through anonymizer.
func NewIdentity() *Identity {
	return &Identity{}
}

// Anonymize returns the batch unchanged.
func (*Identity) Anonymize(batch *core.EmailBatch) *core.EmailBatch {
	return batch
}
