// Package errors provides the error taxonomy for Wayfarer generation.
//
// Every failure produced by the generation core is an *Error carrying a Kind.
// Retryability is a static property of the kind (and, for an unavailable
// resource, of the unavailability reason). Presentation to users goes through
// Present, never through ad-hoc strings.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Kinds
// ============================================================

// Kind is the internal classification of a generation failure.
type Kind int

const (
	// KindUnknown is anything the classifier does not recognize.
	KindUnknown Kind = iota

	// KindResourceUnavailable means the generative resource cannot be used right now.
	KindResourceUnavailable

	// KindAlreadyGenerating means another generation holds the session.
	KindAlreadyGenerating

	// KindContextTooLarge means the prompt exceeds the resource's input window.
	KindContextTooLarge

	// KindUnsupportedLanguage means the resource rejected the language.
	KindUnsupportedLanguage

	// KindContentPolicyViolation means the resource refused on policy grounds.
	KindContentPolicyViolation

	// KindGenerationFailed is a generic inference failure.
	KindGenerationFailed

	// KindExternalToolFailed means a tool invoked by the model failed.
	KindExternalToolFailed

	// KindOutputValidationFailed means input or output broke the schema or business rules.
	KindOutputValidationFailed

	// KindTimeout means an attempt exceeded its time budget.
	KindTimeout

	// KindSessionNotReady means the session handle could not be used yet.
	KindSessionNotReady

	// KindCancelled means the caller's context was cancelled.
	KindCancelled

	// KindRateLimited means a caller-side rate limiter refused the request.
	KindRateLimited

	kindCount
)

var kindCodes = [...]string{
	KindUnknown:                "UNKNOWN",
	KindResourceUnavailable:    "RESOURCE_UNAVAILABLE",
	KindAlreadyGenerating:      "ALREADY_GENERATING",
	KindContextTooLarge:        "CONTEXT_TOO_LARGE",
	KindUnsupportedLanguage:    "UNSUPPORTED_LANGUAGE",
	KindContentPolicyViolation: "CONTENT_POLICY_VIOLATION",
	KindGenerationFailed:       "GENERATION_FAILED",
	KindExternalToolFailed:     "EXTERNAL_TOOL_FAILED",
	KindOutputValidationFailed: "OUTPUT_VALIDATION_FAILED",
	KindTimeout:                "TIMEOUT",
	KindSessionNotReady:        "SESSION_NOT_READY",
	KindCancelled:              "CANCELLED",
	KindRateLimited:            "RATE_LIMITED",
}

// String returns the stable error code of the kind.
func (k Kind) String() string {
	if !k.valid() {
		return kindCodes[KindUnknown]
	}
	return kindCodes[k]
}

func (k Kind) valid() bool {
	return k >= KindUnknown && k < kindCount
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindUnknown; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Reason categorizes why the generative resource is unavailable.
type Reason int

const (
	// ReasonUnknown is the forward-compatible catch-all.
	ReasonUnknown Reason = iota

	// ReasonNotEnabled means the user or config turned the resource off.
	ReasonNotEnabled

	// ReasonDeviceIneligible means this device can never run the resource.
	ReasonDeviceIneligible

	// ReasonNotReady means the resource exists but is still loading.
	ReasonNotReady
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNotEnabled:
		return "not_enabled"
	case ReasonDeviceIneligible:
		return "device_ineligible"
	case ReasonNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// ============================================================
// Error
// ============================================================

// Error is the error type for all generation failures.
type Error struct {
	// Kind determines retry and presentation behavior
	Kind Kind

	// Reason is set for KindResourceUnavailable
	Reason Reason

	// Detail is a short machine-oriented description (validation reason, etc.)
	Detail string

	// Tool names the failing tool for KindExternalToolFailed
	Tool string

	// RetryAfter is the suggested wait for KindRateLimited
	RetryAfter time.Duration

	// Inner is the underlying error
	Inner error
}

// Error returns the error message.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(e.Kind.String())
	sb.WriteString("]")

	switch {
	case e.Kind == KindResourceUnavailable:
		sb.WriteString(" ")
		sb.WriteString(e.Reason.String())
	case e.Tool != "":
		sb.WriteString(" ")
		sb.WriteString(e.Tool)
	}

	if e.Detail != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Detail)
	}

	if e.Inner != nil {
		if msg := e.Inner.Error(); msg != "" && msg != e.Detail {
			sb.WriteString(": ")
			sb.WriteString(msg)
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an *Error of the same kind.
// A target with a non-zero Reason also has to match the reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonUnknown || t.Reason == e.Reason
}

// Retryable reports whether an operation failing with e may be attempted again.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindResourceUnavailable:
		return e.Reason == ReasonNotReady
	case KindGenerationFailed, KindExternalToolFailed, KindTimeout,
		KindSessionNotReady, KindUnknown, KindRateLimited:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrAlreadyGenerating = &Error{Kind: KindAlreadyGenerating}
	ErrUnavailable       = &Error{Kind: KindResourceUnavailable}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrCancelled         = &Error{Kind: KindCancelled}
)

// ============================================================
// Constructors
// ============================================================

// Unavailable creates a resource-unavailable error.
func Unavailable(reason Reason) *Error {
	return &Error{Kind: KindResourceUnavailable, Reason: reason}
}

// AlreadyGenerating creates the single-flight rejection error.
func AlreadyGenerating() *Error {
	return &Error{Kind: KindAlreadyGenerating, Detail: "a generation is already in progress"}
}

// ContextTooLarge wraps a context-window overflow.
func ContextTooLarge(inner error) *Error {
	return &Error{Kind: KindContextTooLarge, Inner: inner}
}

// UnsupportedLanguage wraps a language rejection.
func UnsupportedLanguage(inner error) *Error {
	return &Error{Kind: KindUnsupportedLanguage, Inner: inner}
}

// PolicyViolation wraps a content-policy refusal.
func PolicyViolation(inner error) *Error {
	return &Error{Kind: KindContentPolicyViolation, Inner: inner}
}

// GenerationFailed wraps a generic inference failure.
func GenerationFailed(inner error) *Error {
	return &Error{Kind: KindGenerationFailed, Inner: inner}
}

// ToolFailed wraps a failure of a tool invoked by the model.
func ToolFailed(name string, inner error) *Error {
	return &Error{Kind: KindExternalToolFailed, Tool: name, Inner: inner}
}

// Validation creates an output validation error with a reason.
func Validation(reason string) *Error {
	return &Error{Kind: KindOutputValidationFailed, Detail: reason}
}

// Validationf creates an output validation error with a formatted reason.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// Timeout wraps an expired attempt deadline.
func Timeout(inner error) *Error {
	return &Error{Kind: KindTimeout, Inner: inner}
}

// SessionNotReady wraps a failure to create or use the session.
func SessionNotReady(inner error) *Error {
	return &Error{Kind: KindSessionNotReady, Inner: inner}
}

// Cancelled wraps a caller cancellation.
func Cancelled(inner error) *Error {
	return &Error{Kind: KindCancelled, Inner: inner}
}

// RateLimited creates a caller-side throttling error.
func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, RetryAfter: retryAfter}
}

// Unknown wraps an unclassified error.
func Unknown(inner error) *Error {
	return &Error{Kind: KindUnknown, Inner: inner}
}

// ============================================================
// Helpers
// ============================================================

// Classify folds any error into an *Error.
// Context errors map to Cancelled/Timeout; unrecognized errors become Unknown.
// Returns nil for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		if !e.Kind.valid() {
			return Unknown(err)
		}
		return e
	}

	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled(err)
	case errors.Is(err, context.DeadlineExceeded):
		return Timeout(err)
	}

	return Unknown(err)
}

// KindOf returns the kind of err, KindUnknown for unrecognized errors.
func KindOf(err error) Kind {
	if e := Classify(err); e != nil {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable checks if an error is retryable.
// Unknown errors are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable()
}

// fromContext converts a finished context into Cancelled or Timeout,
// keeping the last operation error as detail when there is one.
func fromContext(ctxErr, last error) *Error {
	inner := ctxErr
	if last != nil {
		inner = fmt.Errorf("%w (last error: %v)", ctxErr, last)
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return Timeout(inner)
	}
	return Cancelled(inner)
}

// FromContext converts the error of a finished context into Cancelled or
// Timeout.
func FromContext(ctxErr error) *Error {
	return fromContext(ctxErr, nil)
}
