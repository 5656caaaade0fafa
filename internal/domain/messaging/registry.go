package messaging

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Registry tracks one attached Client per user. Attach is the only place a
// feed subscription is acquired; Detach and StopAll release them.
type Registry struct {
	store     Store
	directory Directory
	feed      Feed
	log       zerolog.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewRegistry creates an empty client registry.
func NewRegistry(store Store, directory Directory, feed Feed, log zerolog.Logger) *Registry {
	return &Registry{
		store:     store,
		directory: directory,
		feed:      feed,
		log:       log.With().Str("component", "client-registry").Logger(),
		clients:   make(map[string]*Client),
	}
}

// Attach creates and starts a client for userID. Attaching twice fails with
// ErrClientAlreadyAttached; a failed start leaves nothing registered.
func (r *Registry) Attach(ctx context.Context, userID string) (*Client, error) {
	r.mu.Lock()
	if _, exists := r.clients[userID]; exists {
		r.mu.Unlock()
		return nil, ErrClientAlreadyAttached
	}
	r.mu.Unlock()

	profile, err := r.directory.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	client := NewClient(profile, r.store, r.directory, r.feed, r.log)
	if err := client.Start(ctx); err != nil {
		client.Stop()
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.clients[userID]; exists {
		r.mu.Unlock()
		client.Stop()
		return nil, ErrClientAlreadyAttached
	}
	r.clients[userID] = client
	r.mu.Unlock()

	return client, nil
}

// Get returns the attached client for userID.
func (r *Registry) Get(userID string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[userID]
	if !ok {
		return nil, ErrClientNotAttached
	}
	return client, nil
}

// Detach stops and removes the client for userID.
func (r *Registry) Detach(userID string) error {
	r.mu.Lock()
	client, ok := r.clients[userID]
	delete(r.clients, userID)
	r.mu.Unlock()

	if !ok {
		return ErrClientNotAttached
	}
	client.Stop()
	return nil
}

// StopAll detaches every client. Called on shutdown.
func (r *Registry) StopAll() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, client := range clients {
		client.Stop()
	}
}
