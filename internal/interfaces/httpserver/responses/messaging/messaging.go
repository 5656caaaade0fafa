// Package messaging contains HTTP response DTOs for messaging endpoints.
package messaging

import (
	"time"

	domain "github.com/iuridev/sge-messaging-api/internal/domain/messaging"
)

// ContactResponse is one row of the ordered contact list.
type ContactResponse struct {
	ID             string                `json:"id"`
	DisplayName    string                `json:"display_name"`
	Role           string                `json:"role"`
	Sector         string                `json:"sector,omitempty"`
	OrganizationID string                `json:"organization_id,omitempty"`
	Conversation   *ConversationResponse `json:"conversation,omitempty"`
	UnreadCount    int                   `json:"unread_count"`
}

// ContactListResponse wraps the ordered contact list.
type ContactListResponse struct {
	Contacts []ContactResponse `json:"contacts"`
}

// ConversationResponse describes a conversation row.
type ConversationResponse struct {
	ID          string    `json:"id"`
	Protocol    string    `json:"protocol"`
	Status      string    `json:"status"`
	Counterpart string    `json:"counterpart_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MessageResponse describes a message row.
type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionResponse describes the current conversation session.
type SessionResponse struct {
	State        string                `json:"state"`
	Protocol     string                `json:"protocol,omitempty"`
	Conversation *ConversationResponse `json:"conversation,omitempty"`
	Transcript   []MessageResponse     `json:"transcript"`
}

// UnreadResponse reports unread tallies keyed by conversation ID.
type UnreadResponse struct {
	Unread map[string]int `json:"unread"`
	Total  int            `json:"total"`
}

// AttachResponse confirms a client attach or detach.
type AttachResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// NewContactListResponse maps derived contact views to the wire format.
func NewContactListResponse(selfID string, contacts []domain.ContactView) ContactListResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		out = append(out, ContactResponse{
			ID:             contact.Profile.ID,
			DisplayName:    contact.Profile.DisplayName,
			Role:           string(contact.Profile.Role),
			Sector:         contact.Profile.Sector,
			OrganizationID: contact.Profile.OrganizationID,
			Conversation:   NewConversationResponse(selfID, contact.OpenConversation),
			UnreadCount:    contact.UnreadCount,
		})
	}
	return ContactListResponse{Contacts: out}
}

// NewConversationResponse maps a conversation, resolving the counterpart for
// the viewing user. Returns nil for a nil conversation.
func NewConversationResponse(selfID string, conv *domain.Conversation) *ConversationResponse {
	if conv == nil {
		return nil
	}
	counterpart, _ := conv.Counterpart(selfID)
	return &ConversationResponse{
		ID:          conv.ID,
		Protocol:    conv.Protocol,
		Status:      string(conv.Status),
		Counterpart: counterpart,
		CreatedAt:   conv.CreatedAt,
	}
}

// NewMessageResponse maps a message row.
func NewMessageResponse(msg *domain.Message) MessageResponse {
	return MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		CreatedAt:      msg.CreatedAt,
	}
}

// NewSessionResponse maps a session snapshot.
func NewSessionResponse(selfID string, state domain.SessionState, conv *domain.Conversation, protocol string, transcript []*domain.Message) SessionResponse {
	messages := make([]MessageResponse, 0, len(transcript))
	for _, msg := range transcript {
		messages = append(messages, NewMessageResponse(msg))
	}
	return SessionResponse{
		State:        string(state),
		Protocol:     protocol,
		Conversation: NewConversationResponse(selfID, conv),
		Transcript:   messages,
	}
}

// NewUnreadResponse maps the unread tallies.
func NewUnreadResponse(tallies map[string]int) UnreadResponse {
	total := 0
	for _, n := range tallies {
		total += n
	}
	return UnreadResponse{Unread: tallies, Total: total}
}
