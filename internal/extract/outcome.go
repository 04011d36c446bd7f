package extract

import (
	"fmt"
	"time"

	"github.com/jackzampolin/mitnm/internal/signature"
	"github.com/jackzampolin/mitnm/internal/types"
)

// FailureReason classifies why a document produced no Signature.
type FailureReason string

const (
	ReasonTimeout     FailureReason = "timeout"
	ReasonTransport   FailureReason = "transport_error"
	ReasonInvalidJSON FailureReason = "invalid_json"
	ReasonCanceled    FailureReason = "canceled"
)

// Failure is the per-document error value. It is data, not a Go error
// return: a batch keeps going after one.
type Failure struct {
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
	Partial string        `json:"partial,omitempty"` // Raw model text, when any was received
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Message)
}

// Outcome is the result of one document through the pipeline: either a
// Signature (possibly with repaired anomalies) or a Failure.
type Outcome struct {
	DocumentID types.DocumentID    `json:"document_id"`
	RequestID  string              `json:"request_id,omitempty"`
	Signature  signature.Signature `json:"signature"`
	Anomalies  []signature.Anomaly `json:"anomalies,omitempty"`
	Failure    *Failure            `json:"failure,omitempty"`
	Attempts   int                 `json:"attempts"`
	Elapsed    time.Duration       `json:"elapsed"`
}

// OK reports whether the outcome holds a Signature.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Failed builds a failure outcome.
func Failed(id types.DocumentID, reason FailureReason, message string) Outcome {
	return Outcome{
		DocumentID: id,
		Failure:    &Failure{Reason: reason, Message: message},
	}
}
