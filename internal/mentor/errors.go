package mentor

import (
	"errors"
	"fmt"
)

// Kind classifies a failed completion request.
type Kind string

// Error kinds.
const (
	KindInvalidCredential Kind = "invalid_credential"
	KindNotConfigured     Kind = "not_configured"
	KindRateLimited       Kind = "rate_limited"
	KindUnknown           Kind = "unknown"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = &Error{Kind: KindNotConfigured, Err: errors.New("no API key configured")}

// Error is a classified completion failure.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mentor %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("mentor %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrNotConfigured) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func classify(status int, err error) *Error {
	switch status {
	case 401, 403:
		return &Error{Kind: KindInvalidCredential, Status: status, Err: err}
	case 429:
		return &Error{Kind: KindRateLimited, Status: status, Err: err}
	default:
		return &Error{Kind: KindUnknown, Status: status, Err: err}
	}
}

// KindOf returns the kind of err, or KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

// UserMessage turns err into text suitable for a chat bubble.
func UserMessage(err error) string {
	const prefix = "Sorry, I had trouble thinking of a response."
	switch KindOf(err) {
	case KindInvalidCredential:
		return prefix + " Your API key seems invalid. Please double-check it (it should start with gsk_)."
	case KindNotConfigured:
		return prefix + " The mentor is not configured. Set GROQ_API_KEY or an API key in settings."
	case KindRateLimited:
		return prefix + " The rate limit was reached. Please wait a moment and try again."
	default:
		return prefix + " Detail: " + err.Error()
	}
}
