package ai

import (
	"errors"
	"fmt"
)

// ErrEmptyRequest is returned when a screening request misses the job
// description or the resume text. Such requests never reach the oracle.
var ErrEmptyRequest = errors.New("job description and resume text must not be empty")

// Outcome is the result of one oracle assessment. A degraded outcome still
// carries a complete Result built from fallback values; Reason tells why.
type Outcome struct {
	Result Result
	Reason error
}

// Success wraps a result that came from the oracle's structured output.
func Success(result Result) Outcome {
	return Outcome{Result: result}
}

// Degraded wraps a fallback result together with the failure that produced it.
func Degraded(result Result, reason error) Outcome {
	if reason == nil {
		reason = errors.New("degraded without reason")
	}
	return Outcome{Result: result, Reason: reason}
}

// IsDegraded reports whether the result is a fallback.
func (o Outcome) IsDegraded() bool { return o.Reason != nil }

// ParseError reports an oracle response that does not match the schema.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse oracle response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError reports a failure talking to the oracle provider.
type TransportError struct {
	Model string
	Err   error
}

func (e *TransportError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("oracle call failed: %v", e.Err)
	}
	return fmt.Sprintf("oracle call to %s failed: %v", e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
