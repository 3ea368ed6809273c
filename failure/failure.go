// Package failure implements the exhaustive FailureKind taxonomy the core
// maps every error into. The Router's retry predicate matches on Kind
// alone, never on a message string.
package failure

import "fmt"

// Kind is the closed set of failure categories.
type Kind string

const (
	// Protocol: malformed 402 body, empty accepts, malformed receipt fields.
	Protocol Kind = "protocol"
	// Unsupported: network tag not served by any provider.
	Unsupported Kind = "unsupported"
	// PriceCeiling: posted price exceeds the caller's max.
	PriceCeiling Kind = "price_ceiling"
	// InsufficientFunds: signer balance below the requested amount.
	InsufficientFunds Kind = "insufficient_funds"
	// Transient: HTTP 5xx, timeouts, connection resets, RPC rate limits,
	// transaction-not-yet-finalized past deadline.
	Transient Kind = "transient"
	// Verification: Verifier.Verify returned a bad verdict.
	Verification Kind = "verification"
	// Internal: precondition violations (uninitialized wallet, nil adapter).
	// These are bugs, not recoverable conditions.
	Internal Kind = "internal"
)

// Retryable reports whether the Router's retry loop may retry a failure of
// this kind. Transient and Internal are retryable; everything else reflects
// a condition another attempt cannot change (a rejected price, an
// unsupported network, a bad verdict) and gets exactly one attempt.
func (k Kind) Retryable() bool {
	switch k {
	case Transient, Internal:
		return true
	default:
		return false
	}
}

// Error is the typed failure every core operation returns on the failure
// path. It wraps an optional underlying cause as a structured field,
// rather than with fmt.Errorf("...: %w", err), so the Router can switch on
// Kind without string matching.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a failure.Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a failure.Error carrying an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it (or something it wraps) is a
// *Error, defaulting to Internal for anything else — an un-categorized
// error reaching the Router is itself a bug.
func KindOf(err error) Kind {
	var fe *Error
	if asError(err, &fe) {
		return fe.Kind
	}
	return Internal
}

func asError(err error, target **Error) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok {
			*target = fe
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
