package domain

import "errors"

// Error taxonomy shared by every service. Callers branch with errors.Is;
// services wrap these with fmt.Errorf to attach detail.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("access forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidContent    = errors.New("invalid content")
	ErrSelfChatForbidden = errors.New("cannot chat with self")
	ErrConflict          = errors.New("conflict")
	ErrTransient         = errors.New("transient failure")
	ErrRateLimited       = errors.New("rate limited")
)

// Stable error codes returned to clients.
const (
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeInvalidContent    = "invalid_content"
	CodeSelfChatForbidden = "cannot_chat_with_self"
	CodeConflict          = "conflict"
	CodeTransient         = "transient"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal_error"
)

// Code maps an error chain to its stable client-facing code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrSelfChatForbidden):
		return CodeSelfChatForbidden
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidContent):
		return CodeInvalidContent
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrTransient):
		return CodeTransient
	default:
		return CodeInternal
	}
}
