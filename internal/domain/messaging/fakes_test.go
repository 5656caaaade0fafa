package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// fakeStore is an in-memory Store with error and latency injection.
type fakeStore struct {
	mu sync.Mutex

	conversations map[string]*Conversation
	messages      map[string][]*Message

	nextMessageSeq int

	listMessagesErr  error
	listMessagesGate chan struct{} // when set, ListMessages blocks until it closes

	getConversationErr      error
	createConversationErr   error
	insertMessageErr        error
	markMessageReadErr      error
	markConversationReadErr error

	markConversationReadCalls int
	markMessageReadIDs        []string

	onMarkConversationRead func() // runs inside MarkConversationRead, before it returns
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]*Message),
	}
}

func (s *fakeStore) addConversation(conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
}

func (s *fakeStore) addMessage(msg *Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
}

func (s *fakeStore) ListOpenConversations(ctx context.Context, selfID string) ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Conversation
	for _, conv := range s.conversations {
		if conv.Status == ConversationOpen && conv.HasParticipant(selfID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (s *fakeStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getConversationErr != nil {
		return nil, s.getConversationErr
	}
	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	return conv, nil
}

func (s *fakeStore) ListMessages(ctx context.Context, conversationID string) ([]*Message, error) {
	s.mu.Lock()
	gate := s.listMessagesGate
	err := s.listMessagesErr
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	out := make([]*Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *fakeStore) CreateConversation(ctx context.Context, participantA, participantB string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createConversationErr != nil {
		return nil, s.createConversationErr
	}
	for _, conv := range s.conversations {
		if conv.Status == ConversationOpen && conv.HasParticipant(participantA) && conv.HasParticipant(participantB) {
			return conv, nil
		}
	}
	conv := &Conversation{
		ID:           fmt.Sprintf("conv_%d", len(s.conversations)+1),
		Protocol:     fmt.Sprintf("TKT-20260830-%06d", len(s.conversations)+1),
		Status:       ConversationOpen,
		ParticipantA: participantA,
		ParticipantB: participantB,
		CreatedAt:    time.Now(),
	}
	s.conversations[conv.ID] = conv
	return conv, nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, conversationID, senderID, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertMessageErr != nil {
		return nil, s.insertMessageErr
	}
	s.nextMessageSeq++
	msg := &Message{
		ID:             fmt.Sprintf("msg_%d", s.nextMessageSeq),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	return msg, nil
}

func (s *fakeStore) MarkMessageRead(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.markMessageReadErr != nil {
		return s.markMessageReadErr
	}
	s.markMessageReadIDs = append(s.markMessageReadIDs, messageID)
	for _, msgs := range s.messages {
		for _, msg := range msgs {
			if msg.ID == messageID {
				msg.IsRead = true
			}
		}
	}
	return nil
}

func (s *fakeStore) MarkConversationRead(ctx context.Context, conversationID, exceptSenderID string) error {
	s.mu.Lock()
	s.markConversationReadCalls++
	hook := s.onMarkConversationRead
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markConversationReadErr != nil {
		return s.markConversationReadErr
	}
	for _, msg := range s.messages[conversationID] {
		if msg.SenderID != exceptSenderID {
			msg.IsRead = true
		}
	}
	return nil
}

func (s *fakeStore) CountUnread(ctx context.Context, conversationID, exceptSenderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, msg := range s.messages[conversationID] {
		if msg.SenderID != exceptSenderID && !msg.IsRead {
			count++
		}
	}
	return count, nil
}

// fakeFeed delivers messages synchronously to subscribers.
type fakeFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(*Message)

	subscribeErr error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[int]func(*Message))}
}

func (f *fakeFeed) Subscribe(handler func(*Message)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = handler
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}, nil
}

func (f *fakeFeed) publish(msg *Message) {
	f.mu.Lock()
	handlers := make([]func(*Message), 0, len(f.subs))
	for _, h := range f.subs {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (f *fakeFeed) subscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// fakeDirectory serves a fixed profile set in slice order.
type fakeDirectory struct {
	profiles []*Profile
}

func (d *fakeDirectory) GetProfile(ctx context.Context, id string) (*Profile, error) {
	for _, p := range d.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("profile %s not found", id)
}

func (d *fakeDirectory) ListEligibleContacts(ctx context.Context, self *Profile) ([]*Profile, error) {
	var out []*Profile
	for _, p := range d.profiles {
		if p.ID != self.ID {
			out = append(out, p)
		}
	}
	return out, nil
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
