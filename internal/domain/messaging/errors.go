package messaging

import "errors"

var (
	// ErrNoActiveConversation is returned when an operation requires a
	// selected conversation and the session is idle.
	ErrNoActiveConversation = errors.New("no active conversation")
	// ErrHistoryLoading is returned when sending while the transcript fetch
	// is still in flight.
	ErrHistoryLoading = errors.New("conversation history still loading")
	// ErrConversationMismatch is returned when an incoming message does not
	// belong to the session's conversation.
	ErrConversationMismatch = errors.New("message does not belong to the active conversation")
	// ErrContactNotFound is returned when opening a contact the caller is not
	// eligible to message.
	ErrContactNotFound = errors.New("contact not found in directory")
	// ErrClientNotAttached is returned when operating on a user with no
	// attached messaging client.
	ErrClientNotAttached = errors.New("messaging client not attached")
	// ErrClientAlreadyAttached is returned when attaching a user twice.
	ErrClientAlreadyAttached = errors.New("messaging client already attached")
)
