package ai

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed provider call at the network boundary.
// Upstream code switches on the kind and never inspects message text.
type FailureKind string

const (
	KindRateLimited FailureKind = "rate_limited"
	KindTransient   FailureKind = "transient"
	KindMalformed   FailureKind = "malformed"
)

// ProviderError is a classified failure from a single provider call. Every
// kind is retryable with a rotated credential; the kind survives for logs,
// metrics, and user-facing messages.
type ProviderError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, e.Message)
}

func errRateLimited(status int, message string) *ProviderError {
	return &ProviderError{Kind: KindRateLimited, StatusCode: status, Message: message}
}

func errTransient(status int, message string) *ProviderError {
	return &ProviderError{Kind: KindTransient, StatusCode: status, Message: message}
}

func errMalformed(message string) *ProviderError {
	return &ProviderError{Kind: KindMalformed, Message: message}
}

// ExhaustedError reports that a call spent its whole attempt budget. It is
// terminal for one pipeline step only; the pipeline substitutes that step's
// static fallback and continues.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("provider exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// IsExhausted reports whether err wraps a spent retry budget.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}

// Classify extracts the failure kind from any error in err's chain,
// defaulting to transient for unclassified errors.
func Classify(err error) FailureKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindTransient
}
