package messaging

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// UnreadTracker is the authoritative in-memory count of unread incoming
// messages per open conversation, independent of which conversation is
// displayed. It is rebuilt from the store on attach and mutated only by the
// router (Increment) and by opening a conversation (Reconcile).
type UnreadTracker struct {
	mu      sync.Mutex
	selfID  string
	store   Store
	tallies map[string]int
	counted map[string]struct{} // message IDs already tallied, for replay safety
	log     zerolog.Logger
}

// NewUnreadTracker creates an empty tracker for selfID.
func NewUnreadTracker(selfID string, store Store, log zerolog.Logger) *UnreadTracker {
	return &UnreadTracker{
		selfID:  selfID,
		store:   store,
		tallies: make(map[string]int),
		counted: make(map[string]struct{}),
		log:     log.With().Str("component", "unread-tracker").Logger(),
	}
}

// Bootstrap takes the startup snapshot: one unread count per open
// conversation, straight from the store. Called once on attach and again
// after a feed reconnect; the store is the tie-breaker at those points.
func (t *UnreadTracker) Bootstrap(ctx context.Context, conversations []*Conversation) error {
	snapshot := make(map[string]int, len(conversations))
	for _, conv := range conversations {
		count, err := t.store.CountUnread(ctx, conv.ID, t.selfID)
		if err != nil {
			return err
		}
		snapshot[conv.ID] = count
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.tallies = snapshot
	return nil
}

// Increment bumps the tally for a conversation by one. Pure counter bump, no
// store access. Keyed by message ID so a feed replay is absorbed; returns
// false when the message was already counted.
func (t *UnreadTracker) Increment(conversationID, messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.counted[messageID]; dup {
		return false
	}
	t.counted[messageID] = struct{}{}
	t.tallies[conversationID]++
	return true
}

// Reconcile bulk-marks the conversation's incoming messages as read and only
// then clears the tally. A failed write leaves the tally untouched so the UI
// never shows zero unread for messages still unread server-side.
//
// The tally is decremented by its value at call time rather than zeroed: a
// message routed while the write is in flight was inserted after the bulk
// update and must stay counted. The converse overlap, a message routed after
// the snapshot but inserted before the bulk update, stays counted even though
// the store marked it read; that over-count lasts until the next reconcile or
// resync rebuilds the tally from the store.
func (t *UnreadTracker) Reconcile(ctx context.Context, conversationID string) error {
	t.mu.Lock()
	before := t.tallies[conversationID]
	t.mu.Unlock()

	if err := t.store.MarkConversationRead(ctx, conversationID, t.selfID); err != nil {
		t.log.Warn().Err(err).Str("conversation_id", conversationID).Msg("read reconciliation failed")
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.tallies[conversationID] -= before
	if t.tallies[conversationID] <= 0 {
		delete(t.tallies, conversationID)
	}
	return nil
}

// MarkCounted records a message ID as accounted for without touching any
// tally. Used for messages that went straight into the focused transcript.
func (t *UnreadTracker) MarkCounted(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.counted[messageID]; dup {
		return false
	}
	t.counted[messageID] = struct{}{}
	return true
}

// Tally returns the current tally for one conversation.
func (t *UnreadTracker) Tally(conversationID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tallies[conversationID]
}

// Tallies returns a copy of all non-zero tallies keyed by conversation ID.
func (t *UnreadTracker) Tallies() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]int, len(t.tallies))
	for id, n := range t.tallies {
		out[id] = n
	}
	return out
}
