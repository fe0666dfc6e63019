package services

import (
	"errors"
	"fmt"
)

// ModelErrorKind is the closed set of failures a model call can surface.
type ModelErrorKind int

const (
	KindUnknown ModelErrorKind = iota
	KindMissingCredential
	KindNetworkFailure
	KindServerFailure
	KindRateLimited
	KindInvalidResponse
	KindParseFailure
)

func (k ModelErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindNetworkFailure:
		return "network_failure"
	case KindServerFailure:
		return "server_failure"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidResponse:
		return "invalid_response"
	case KindParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// ModelError is returned by ModelClient implementations.
type ModelError struct {
	Kind    ModelErrorKind
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Message == "" {
		return "model call failed: " + e.Kind.String()
	}
	return fmt.Sprintf("model call failed: %s: %s", e.Kind, e.Message)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Is matches any ModelError of the same kind, so the Err* values below work
// with errors.Is.
func (e *ModelError) Is(target error) bool {
	var t *ModelError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks against each kind.
var (
	ErrMissingCredential = &ModelError{Kind: KindMissingCredential}
	ErrNetworkFailure    = &ModelError{Kind: KindNetworkFailure}
	ErrServerFailure     = &ModelError{Kind: KindServerFailure}
	ErrRateLimited       = &ModelError{Kind: KindRateLimited}
	ErrInvalidResponse   = &ModelError{Kind: KindInvalidResponse}
	ErrParseFailure      = &ModelError{Kind: KindParseFailure}
	ErrUnknown           = &ModelError{Kind: KindUnknown}
)

// KindOf extracts the ModelErrorKind of err; errors outside the taxonomy are KindUnknown.
func KindOf(err error) ModelErrorKind {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

var (
	// ErrEmptyThought is returned when the submitted text is blank.
	ErrEmptyThought = errors.New("thought cannot be empty")
	// ErrRequestInFlight is returned when the owner already has a request outstanding.
	ErrRequestInFlight = errors.New("a request is already in progress for this user")
	// ErrNotConversationOwner is returned when replying to somebody else's conversation.
	ErrNotConversationOwner = errors.New("conversation belongs to another user")
)
