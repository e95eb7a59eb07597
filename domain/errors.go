package domain

import "errors"

// ErrSummaryFinalized is returned by the backend gateway when a summary is
// already in DONE status. Retrying reproduces the same conflict.
var ErrSummaryFinalized = errors.New("summary has already been set and cannot be modified")

// PipelineError classifies a failure for the message layer: retryable errors
// are left unacked so the broker redelivers, fatal errors are dead-lettered.
type PipelineError struct {
	Msg       string
	Retryable bool
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return e.Msg + ": " + e.Cause.Error()
	}
	return e.Msg
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// FatalError marks a failure that cannot succeed on redelivery.
func FatalError(msg string, cause error) error {
	return &PipelineError{Msg: msg, Retryable: false, Cause: cause}
}

// RetryableError marks a transient failure worth redelivering.
func RetryableError(msg string, cause error) error {
	return &PipelineError{Msg: msg, Retryable: true, Cause: cause}
}

// IsFatal reports whether err should be dead-lettered instead of redelivered.
// Unclassified errors default to retryable so the broker's redrive policy has
// the final say.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSummaryFinalized) {
		return true
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return !pe.Retryable
	}
	return false
}
