// Package messaging contains HTTP request DTOs for messaging endpoints.
package messaging

// OpenConversationRequest selects a contact to converse with.
type OpenConversationRequest struct {
	ContactID string `json:"contact_id" binding:"required"`
}

// SendMessageRequest carries the message body for the current conversation.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
