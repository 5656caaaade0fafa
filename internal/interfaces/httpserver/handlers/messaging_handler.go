package handlers

import (
	"context"

	"github.com/iuridev/sge-messaging-api/internal/domain/messaging"
)

// MessagingHandler exposes the per-user messaging core over the registry.
type MessagingHandler struct {
	registry *messaging.Registry
}

// NewMessagingHandler creates a new messaging handler.
func NewMessagingHandler(registry *messaging.Registry) *MessagingHandler {
	return &MessagingHandler{registry: registry}
}

// Attach creates and starts the messaging client for userID.
func (h *MessagingHandler) Attach(ctx context.Context, userID string) error {
	_, err := h.registry.Attach(ctx, userID)
	return err
}

// Detach stops and removes the messaging client for userID.
func (h *MessagingHandler) Detach(userID string) error {
	return h.registry.Detach(userID)
}

// Resync re-bootstraps the unread snapshot after a feed reconnect.
func (h *MessagingHandler) Resync(ctx context.Context, userID string) error {
	client, err := h.registry.Get(userID)
	if err != nil {
		return err
	}
	return client.Resync(ctx)
}

// Contacts returns the ordered contact list for userID.
func (h *MessagingHandler) Contacts(ctx context.Context, userID string) ([]messaging.ContactView, error) {
	client, err := h.registry.Get(userID)
	if err != nil {
		return nil, err
	}
	return client.Contacts(ctx)
}

// OpenConversation selects a contact and returns the resulting session snapshot.
func (h *MessagingHandler) OpenConversation(ctx context.Context, userID, contactID string) (*messaging.Client, error) {
	client, err := h.registry.Get(userID)
	if err != nil {
		return nil, err
	}
	if err := client.OpenContact(ctx, contactID); err != nil {
		return nil, err
	}
	return client, nil
}

// CloseConversation returns the session to idle.
func (h *MessagingHandler) CloseConversation(userID string) error {
	client, err := h.registry.Get(userID)
	if err != nil {
		return err
	}
	client.CloseConversation()
	return nil
}

// Send inserts a message on the current conversation.
func (h *MessagingHandler) Send(ctx context.Context, userID, content string) (*messaging.Message, error) {
	client, err := h.registry.Get(userID)
	if err != nil {
		return nil, err
	}
	return client.Send(ctx, content)
}

// Session returns the client for snapshot access.
func (h *MessagingHandler) Session(userID string) (*messaging.Client, error) {
	return h.registry.Get(userID)
}

// Unread returns the current unread tallies for userID.
func (h *MessagingHandler) Unread(userID string) (map[string]int, error) {
	client, err := h.registry.Get(userID)
	if err != nil {
		return nil, err
	}
	return client.Unread(), nil
}
