package model

import (
	"context"
	"errors"
	"fmt"
)

// FaultKind is the closed failure taxonomy of the pipeline. Every
// failure surfaces as a PipelineError carrying one of these kinds;
// the pipeline never substitutes empty text for a failure.
type FaultKind string

const (
	FaultMissingCredential  FaultKind = "missing_credential"
	FaultCapabilityMismatch FaultKind = "capability_mismatch"
	FaultProvider           FaultKind = "provider_error"
	FaultTransport          FaultKind = "transport_error"
	// FaultCancelled marks a user-initiated abort. It is a no-result
	// outcome rather than an error condition: callers discard it
	// without surfacing anything to the user.
	FaultCancelled FaultKind = "cancelled"
)

// PipelineError is the typed failure value returned by the router and
// the orchestrator.
type PipelineError struct {
	Kind    FaultKind
	Message string
	// Status is the remote HTTP status when the provider reported one.
	Status int
	Err    error
}

func (e *PipelineError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func NewMissingCredential(family ProviderFamily) *PipelineError {
	return &PipelineError{
		Kind:    FaultMissingCredential,
		Message: fmt.Sprintf("no credential configured for the %s provider", family),
	}
}

func NewCapabilityMismatch(message string) *PipelineError {
	return &PipelineError{Kind: FaultCapabilityMismatch, Message: message}
}

func NewProviderError(status int, message string, err error) *PipelineError {
	return &PipelineError{Kind: FaultProvider, Message: message, Status: status, Err: err}
}

func NewTransportError(err error) *PipelineError {
	message := "network transport failed"
	if err != nil {
		message = err.Error()
	}
	return &PipelineError{Kind: FaultTransport, Message: message, Err: err}
}

func NewCancelled() *PipelineError {
	return &PipelineError{Kind: FaultCancelled, Message: "request cancelled by caller", Err: context.Canceled}
}

// KindOf extracts the fault kind from an error chain. Unclassified
// errors report as transport faults, the most conservative kind.
func KindOf(err error) FaultKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return FaultTransport
}

// IsKind reports whether err carries the given fault kind.
func IsKind(err error, kind FaultKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// ClassifyCallError converts an arbitrary provider-call error into a
// PipelineError. Context cancellation becomes FaultCancelled, deadline
// expiry becomes a transport fault, and anything already typed passes
// through untouched.
func ClassifyCallError(err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return NewCancelled()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransportError(err)
	}
	return NewTransportError(err)
}
