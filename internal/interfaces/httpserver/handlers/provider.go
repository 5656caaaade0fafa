package handlers

import (
	"github.com/google/wire"

	"github.com/iuridev/sge-messaging-api/internal/domain/messaging"
)

// Provider holds all HTTP handlers.
type Provider struct {
	Messaging *MessagingHandler
}

// NewProvider creates a new handler provider.
func NewProvider(registry *messaging.Registry) *Provider {
	return &Provider{
		Messaging: NewMessagingHandler(registry),
	}
}

// HandlerProvider provides all handlers for wire.
var HandlerProvider = wire.NewSet(
	NewMessagingHandler,
	NewProvider,
)
