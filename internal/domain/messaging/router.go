package messaging

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iuridev/sge-messaging-api/internal/infrastructure/metrics"
)

// Router consumes the single change feed of new messages for one user and
// routes each event exactly once: to the active session transcript, to the
// unread tracker, or - for a conversation first opened by the counterpart -
// into the known-open set. Every action is keyed by message ID, so a feed
// replay after reconnect is safe to apply twice.
type Router struct {
	selfID  string
	store   Store
	session *Session
	tracker *UnreadTracker
	log     zerolog.Logger

	mu    sync.Mutex
	known map[string]*Conversation // open conversations by ID
}

// NewRouter creates a router seeded with the user's open conversations.
func NewRouter(selfID string, store Store, session *Session, tracker *UnreadTracker, openConversations []*Conversation, log zerolog.Logger) *Router {
	known := make(map[string]*Conversation, len(openConversations))
	for _, conv := range openConversations {
		known[conv.ID] = conv
	}
	return &Router{
		selfID:  selfID,
		store:   store,
		session: session,
		tracker: tracker,
		known:   known,
		log:     log.With().Str("component", "realtime-router").Logger(),
	}
}

// Route dispatches one feed event. Events for the same conversation arrive
// in insert order; the caller must not invoke Route concurrently for them.
func (r *Router) Route(ctx context.Context, msg *Message) {
	// Echo of a message this client sent itself: the optimistic append in
	// Session.Send already represents it.
	if msg.SenderID == r.selfID {
		metrics.RecordRoute(metrics.RouteSelfEcho)
		return
	}

	// The session checks focus and conversation match under its own lock, so
	// the append is offered first rather than guarded by a separate focus
	// check that could go stale before the append runs.
	switch err := r.session.AppendIncoming(ctx, msg); {
	case err == nil:
		// Accounted for in the transcript; a later replay must not reach the
		// unread tally either.
		r.tracker.MarkCounted(msg.ID)
		metrics.RecordRoute(metrics.RouteTranscript)
		return
	case !errors.Is(err, ErrConversationMismatch):
		// The message is in the transcript; only the read receipt failed and
		// the next bulk reconcile covers it.
		r.log.Warn().Err(err).Str("message_id", msg.ID).Msg("append to focused transcript failed")
		r.tracker.MarkCounted(msg.ID)
		metrics.RecordRoute(metrics.RouteTranscript)
		return
	}

	r.mu.Lock()
	_, knownConv := r.known[msg.ConversationID]
	r.mu.Unlock()

	if knownConv {
		if r.tracker.Increment(msg.ConversationID, msg.ID) {
			metrics.RecordRoute(metrics.RouteUnread)
		} else {
			metrics.RecordRoute(metrics.RouteDuplicate)
		}
		return
	}

	r.adopt(ctx, msg)
}

// adopt handles a message for a conversation not known locally, i.e. one the
// counterpart just opened. The row is fetched to validate it before the
// conversation joins the known-open set with a tally of one.
func (r *Router) adopt(ctx context.Context, msg *Message) {
	conv, err := r.store.GetConversation(ctx, msg.ConversationID)
	if err != nil {
		r.log.Warn().Err(err).
			Str("conversation_id", msg.ConversationID).
			Str("message_id", msg.ID).
			Msg("failed to resolve unknown conversation, dropping event")
		metrics.RecordRoute(metrics.RouteDropped)
		return
	}

	// Data integrity fault: a routed message must reference a conversation
	// this user participates in. Logged and dropped, never routed.
	if !conv.HasParticipant(r.selfID) {
		r.log.Error().
			Str("conversation_id", conv.ID).
			Str("sender_id", msg.SenderID).
			Msg("message references a conversation without this participant")
		metrics.RecordRoute(metrics.RouteIntegrityFault)
		return
	}

	r.mu.Lock()
	if _, dup := r.known[conv.ID]; !dup {
		r.known[conv.ID] = conv
	}
	r.mu.Unlock()

	if r.tracker.Increment(conv.ID, msg.ID) {
		metrics.RecordRoute(metrics.RouteAdopted)
		r.log.Info().
			Str("conversation_id", conv.ID).
			Str("protocol", conv.Protocol).
			Msg("adopted conversation opened by counterpart")
	} else {
		metrics.RecordRoute(metrics.RouteDuplicate)
	}
}

// AddConversation records a conversation this client itself just created, so
// the contact list shows it open on the next rebuild.
func (r *Router) AddConversation(conv *Conversation) {
	if conv == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[conv.ID] = conv
}

// KnownConversations returns the current known-open set.
func (r *Router) KnownConversations() []*Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Conversation, 0, len(r.known))
	for _, conv := range r.known {
		out = append(out, conv)
	}
	return out
}
