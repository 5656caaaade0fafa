package messaging

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iuridev/sge-messaging-api/internal/infrastructure/metrics"
)

// Client is the per-user messaging core: the session, the unread tracker and
// the router, plus the single feed subscription that feeds them. The
// subscription is acquired once in Start and released in Stop - and on every
// failed Start path - so a remount never leaks a duplicate.
type Client struct {
	self      *Profile
	store     Store
	directory Directory
	feed      Feed
	log       zerolog.Logger

	session *Session
	tracker *UnreadTracker
	router  *Router

	mu          sync.Mutex
	unsubscribe func()
}

// NewClient builds an unstarted client for the given profile.
func NewClient(self *Profile, store Store, directory Directory, feed Feed, log zerolog.Logger) *Client {
	tracker := NewUnreadTracker(self.ID, store, log)
	session := NewSession(self.ID, store, tracker, log)
	return &Client{
		self:      self,
		store:     store,
		directory: directory,
		feed:      feed,
		log:       log.With().Str("component", "messaging-client").Str("user_id", self.ID).Logger(),
		session:   session,
		tracker:   tracker,
	}
}

// Start rebuilds the derived state from the store (open conversations and the
// unread snapshot) and subscribes to the change feed.
func (c *Client) Start(ctx context.Context) error {
	open, err := c.store.ListOpenConversations(ctx, c.self.ID)
	if err != nil {
		return err
	}

	c.router = NewRouter(c.self.ID, c.store, c.session, c.tracker, open, c.log)

	if err := c.tracker.Bootstrap(ctx, open); err != nil {
		return err
	}

	unsubscribe, err := c.feed.Subscribe(func(msg *Message) {
		c.router.Route(context.Background(), msg)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	metrics.RecordClientAttached()
	c.log.Info().Int("open_conversations", len(open)).Msg("messaging client attached")
	return nil
}

// Resync re-bootstraps the unread snapshot from the store. Safe to run after
// a feed reconnect: replayed events are absorbed by message-ID idempotency.
func (c *Client) Resync(ctx context.Context) error {
	return c.tracker.Bootstrap(ctx, c.router.KnownConversations())
}

// Stop releases the feed subscription and closes the session. Idempotent.
func (c *Client) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
		metrics.RecordClientDetached()
	}
	c.session.Close()
	c.log.Info().Msg("messaging client detached")
}

// Contacts builds the ordered contact list from the directory, the known open
// conversations and the unread tallies.
func (c *Client) Contacts(ctx context.Context) ([]ContactView, error) {
	profiles, err := c.directory.ListEligibleContacts(ctx, c.self)
	if err != nil {
		return nil, err
	}
	return BuildContacts(c.self.ID, profiles, c.router.KnownConversations(), c.tracker.Tallies()), nil
}

// OpenContact selects the contact with the given profile ID. Selecting a
// contact the caller is not eligible to message fails with ErrContactNotFound.
func (c *Client) OpenContact(ctx context.Context, contactID string) error {
	contacts, err := c.Contacts(ctx)
	if err != nil {
		return err
	}
	for _, contact := range contacts {
		if contact.Profile.ID == contactID {
			return c.session.Open(ctx, contact)
		}
	}
	return ErrContactNotFound
}

// Send inserts a message on the current conversation. A draft send creates
// the conversation row first and registers it in the known-open set so the
// contact list reflects it immediately.
func (c *Client) Send(ctx context.Context, content string) (*Message, error) {
	msg, err := c.session.Send(ctx, content)
	if err != nil {
		return nil, err
	}
	if _, conv, _, _ := c.session.Snapshot(); conv != nil {
		c.router.AddConversation(conv)
	}
	return msg, nil
}

// CloseConversation returns the session to idle.
func (c *Client) CloseConversation() {
	c.session.Close()
}

// Session exposes the session for read access by the transport layer.
func (c *Client) Session() *Session {
	return c.session
}

// Unread returns the current unread tallies keyed by conversation ID.
func (c *Client) Unread() map[string]int {
	return c.tracker.Tallies()
}
