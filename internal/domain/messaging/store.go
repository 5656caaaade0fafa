package messaging

import "context"

// Store is the durable conversation/message row store. The subsystem owns no
// durable truth of its own; everything here is rebuilt from the store on
// attach and kept live via the Feed.
type Store interface {
	// ListOpenConversations returns every open conversation selfID participates in.
	ListOpenConversations(ctx context.Context, selfID string) ([]*Conversation, error)

	// GetConversation retrieves a conversation by ID.
	GetConversation(ctx context.Context, id string) (*Conversation, error)

	// ListMessages returns all messages of a conversation ordered by
	// createdAt ascending.
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// CreateConversation opens a conversation between two profiles and assigns
	// its protocol label. Idempotent: if an open conversation already exists
	// for the unordered pair, the existing row is returned.
	CreateConversation(ctx context.Context, participantA, participantB string) (*Conversation, error)

	// InsertMessage appends a message to a conversation.
	InsertMessage(ctx context.Context, conversationID, senderID, content string) (*Message, error)

	// MarkMessageRead marks a single message as read. Used for messages
	// arriving while their conversation is focused.
	MarkMessageRead(ctx context.Context, messageID string) error

	// MarkConversationRead bulk-marks every message in the conversation not
	// sent by exceptSenderID as read.
	MarkConversationRead(ctx context.Context, conversationID, exceptSenderID string) error

	// CountUnread counts unread messages in the conversation not sent by
	// exceptSenderID.
	CountUnread(ctx context.Context, conversationID, exceptSenderID string) (int, error)
}

// Feed is the global change feed of inserted message rows. Events for the
// same conversation are delivered in insert order; cross-conversation
// ordering is not guaranteed.
type Feed interface {
	// Subscribe registers a handler for every new message and returns an
	// unsubscribe function. The subscription is the one scoped resource of a
	// client and must be released on every exit path.
	Subscribe(handler func(*Message)) (func(), error)
}

// Directory yields the profiles a caller is eligible to contact, filtered by
// the caller's role. Owned by the identity collaborator.
type Directory interface {
	GetProfile(ctx context.Context, id string) (*Profile, error)
	ListEligibleContacts(ctx context.Context, self *Profile) ([]*Profile, error)
}
