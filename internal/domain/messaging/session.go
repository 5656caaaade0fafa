package messaging

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/iuridev/sge-messaging-api/internal/infrastructure/metrics"
)

// SessionState is the tagged state of the conversation currently shown to
// the user.
type SessionState string

const (
	// StateIdle means nothing is selected.
	StateIdle SessionState = "idle"
	// StateDraft means a contact without an open conversation is selected;
	// no row exists until the first send.
	StateDraft SessionState = "draft"
	// StateLoading means an existing conversation is selected and its history
	// fetch is in flight.
	StateLoading SessionState = "loading"
	// StateActive means the transcript is loaded and live.
	StateActive SessionState = "active"
)

// DraftProtocol is the placeholder ticket label shown before the first send
// assigns a real one.
const DraftProtocol = "pending"

// Session owns the lifecycle of the conversation currently displayed to one
// user. A newer Open supersedes an older in-flight one: the session adopts
// the latest target and discards results of the superseded fetch even if they
// arrive later. Store errors leave the session in its prior state.
type Session struct {
	mu      sync.Mutex
	selfID  string
	store   Store
	tracker *UnreadTracker
	log     zerolog.Logger

	state        SessionState
	epoch        uint64
	conversation *Conversation
	counterpart  string
	transcript   []*Message
	present      map[string]struct{} // message IDs in the transcript
}

// NewSession creates an idle session for selfID.
func NewSession(selfID string, store Store, tracker *UnreadTracker, log zerolog.Logger) *Session {
	return &Session{
		selfID:  selfID,
		store:   store,
		tracker: tracker,
		log:     log.With().Str("component", "conversation-session").Logger(),
		state:   StateIdle,
		present: make(map[string]struct{}),
	}
}

// Open selects a contact. Without an open conversation the session becomes a
// draft with an empty transcript and no store access. With one, the history
// is fetched and the session becomes active; if the contact had unread
// messages the tracker reconciles them. The returned error is recoverable:
// on a failed fetch the session is restored to its pre-Open state.
func (s *Session) Open(ctx context.Context, contact ContactView) error {
	s.mu.Lock()
	s.epoch++
	myEpoch := s.epoch

	prevState := s.state
	prevConversation := s.conversation
	prevCounterpart := s.counterpart
	prevTranscript := s.transcript
	prevPresent := s.present

	if contact.OpenConversation == nil {
		s.state = StateDraft
		s.conversation = nil
		s.counterpart = contact.Profile.ID
		s.transcript = nil
		s.present = make(map[string]struct{})
		s.mu.Unlock()
		return nil
	}

	conv := contact.OpenConversation
	s.state = StateLoading
	s.conversation = conv
	s.counterpart = contact.Profile.ID
	s.transcript = nil
	s.present = make(map[string]struct{})
	s.mu.Unlock()

	timer := metrics.StartHistoryFetch()
	history, err := s.store.ListMessages(ctx, conv.ID)
	timer.Done(err == nil)

	s.mu.Lock()
	if s.epoch != myEpoch {
		// Superseded while fetching; the newer Open owns the session now.
		s.mu.Unlock()
		s.log.Debug().Str("conversation_id", conv.ID).Msg("history fetch superseded, discarding")
		return nil
	}

	if err != nil {
		s.state = prevState
		s.conversation = prevConversation
		s.counterpart = prevCounterpart
		s.transcript = prevTranscript
		s.present = prevPresent
		s.mu.Unlock()
		return err
	}

	s.transcript = history
	s.present = make(map[string]struct{}, len(history))
	for _, m := range history {
		s.present[m.ID] = struct{}{}
	}
	s.state = StateActive
	s.mu.Unlock()

	s.log.Info().
		Str("conversation_id", conv.ID).
		Str("protocol", conv.Protocol).
		Int("messages", len(history)).
		Msg("conversation opened")

	// The transcript is usable even if reconciliation fails; the tally stays
	// and the error surfaces to the caller.
	if contact.UnreadCount > 0 {
		return s.tracker.Reconcile(ctx, conv.ID)
	}
	return nil
}

// Send inserts a message on the current conversation. In draft state the
// conversation row is created first; the message is then appended to the
// local transcript optimistically, so sender-authored messages are visible
// without waiting for the feed echo.
func (s *Session) Send(ctx context.Context, content string) (*Message, error) {
	s.mu.Lock()
	state := s.state
	epoch := s.epoch
	conv := s.conversation
	counterpart := s.counterpart
	s.mu.Unlock()

	switch state {
	case StateIdle:
		return nil, ErrNoActiveConversation
	case StateLoading:
		return nil, ErrHistoryLoading
	case StateDraft:
		created, err := s.store.CreateConversation(ctx, s.selfID, counterpart)
		if err != nil {
			return nil, err
		}
		conv = created
	case StateActive:
	}

	msg, err := s.store.InsertMessage(ctx, conv.ID, s.selfID, content)
	if err != nil {
		return nil, err
	}
	metrics.RecordMessageSent()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// The user switched away mid-send; the rows exist, only the local
		// transcript of the superseded target is left alone.
		return msg, nil
	}
	if state == StateDraft {
		s.conversation = conv
		s.state = StateActive
	}
	if _, dup := s.present[msg.ID]; !dup {
		s.present[msg.ID] = struct{}{}
		s.transcript = append(s.transcript, msg)
	}
	return msg, nil
}

// AppendIncoming appends a routed message to the transcript, idempotent by
// message ID, and marks it read in the store since the user is looking at it.
// Only valid while active and for the session's own conversation.
func (s *Session) AppendIncoming(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	if s.state != StateActive || s.conversation == nil || s.conversation.ID != msg.ConversationID {
		s.mu.Unlock()
		return ErrConversationMismatch
	}
	if _, dup := s.present[msg.ID]; dup {
		s.mu.Unlock()
		return nil
	}
	s.present[msg.ID] = struct{}{}
	s.transcript = append(s.transcript, msg)
	s.mu.Unlock()

	if err := s.store.MarkMessageRead(ctx, msg.ID); err != nil {
		// The message stays in the transcript; the read receipt is retried
		// by the next bulk reconcile of this conversation.
		s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("focused read receipt failed")
		return err
	}
	return nil
}

// Close returns the session to idle. Switching contacts is atomic for the
// caller: Open on a new contact implies closing the previous one.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.state = StateIdle
	s.conversation = nil
	s.counterpart = ""
	s.transcript = nil
	s.present = make(map[string]struct{})
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the displayed state: session state, conversation (nil for
// drafts), protocol label and a copy of the transcript.
func (s *Session) Snapshot() (SessionState, *Conversation, string, []*Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	protocol := ""
	switch {
	case s.state == StateDraft:
		protocol = DraftProtocol
	case s.conversation != nil:
		protocol = s.conversation.Protocol
	}

	transcript := make([]*Message, len(s.transcript))
	copy(transcript, s.transcript)
	return s.state, s.conversation, protocol, transcript
}
