package messaging

import "time"

// Role is the directory role of a profile.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// Profile is an identity record owned by the identity collaborator.
// Immutable from this subsystem's viewpoint.
type Profile struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	Role           Role   `json:"role"`
	Sector         string `json:"sector,omitempty"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// ConversationStatus is the lifecycle status of a conversation.
type ConversationStatus string

const (
	ConversationOpen   ConversationStatus = "open"
	ConversationClosed ConversationStatus = "closed"
)

// Conversation is the channel between an unordered pair of profiles.
// At most one open conversation exists per pair at any time.
type Conversation struct {
	ID           string             `json:"id"`
	Protocol     string             `json:"protocol"`
	Status       ConversationStatus `json:"status"`
	ParticipantA string             `json:"participant_a"`
	ParticipantB string             `json:"participant_b"`
	CreatedAt    time.Time          `json:"created_at"`
}

// HasParticipant reports whether the given profile is one of the two participants.
func (c *Conversation) HasParticipant(profileID string) bool {
	return c.ParticipantA == profileID || c.ParticipantB == profileID
}

// Counterpart returns the other participant for selfID. The second return
// value is false when selfID is not a participant at all.
func (c *Conversation) Counterpart(selfID string) (string, bool) {
	switch selfID {
	case c.ParticipantA:
		return c.ParticipantB, true
	case c.ParticipantB:
		return c.ParticipantA, true
	default:
		return "", false
	}
}

// Message is a single message row. IsRead is meaningful only for the
// recipient and transitions false -> true exactly once, via reconciliation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ContactView is the derived, in-memory row shown in the contact list.
// Never persisted; recomputed whenever its inputs change.
type ContactView struct {
	Profile          Profile       `json:"profile"`
	OpenConversation *Conversation `json:"open_conversation,omitempty"`
	UnreadCount      int           `json:"unread_count"`
}
