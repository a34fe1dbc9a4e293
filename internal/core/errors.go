package core

import "errors"

var (
	// ErrEmptyMessage rejects a request whose message is empty after
	// trimming. Returned to the caller before any side effect.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrConversationNotFound signals an operation on an unknown
	// conversation id. At the session-store level this is a caller bug:
	// the context must be created before messages are appended.
	ErrConversationNotFound = errors.New("conversation not found")
)
