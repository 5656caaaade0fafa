package messaging

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestRouter(store *fakeStore, open []*Conversation) (*Router, *Session, *UnreadTracker) {
	tracker := NewUnreadTracker("me", store, testLogger())
	sess := NewSession("me", store, tracker, testLogger())
	router := NewRouter("me", store, sess, tracker, open, testLogger())
	return router, sess, tracker
}

func TestRouter_DropsOwnEcho(t *testing.T) {
	store := newFakeStore()
	conv := openConv("c1", "me", "ana")
	store.addConversation(conv)
	router, _, tracker := newTestRouter(store, []*Conversation{conv})

	router.Route(context.Background(), &Message{ID: "m1", ConversationID: "c1", SenderID: "me"})

	if tracker.Tally("c1") != 0 {
		t.Fatal("own echo must not reach the unread tally")
	}
}

func TestRouter_RoutesToFocusedTranscript(t *testing.T) {
	store := newFakeStore()
	conv := openConv("c1", "me", "ana")
	store.addConversation(conv)
	router, sess, tracker := newTestRouter(store, []*Conversation{conv})

	if err := sess.Open(context.Background(), contactWith(conv, 0)); err != nil {
		t.Fatalf("open: %v", err)
	}

	msg := &Message{ID: "m1", ConversationID: "c1", SenderID: "ana", CreatedAt: time.Now()}
	router.Route(context.Background(), msg)

	_, _, _, transcript := sess.Snapshot()
	if len(transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1", len(transcript))
	}
	if tracker.Tally("c1") != 0 {
		t.Fatal("focused message must not count as unread")
	}

	// Replay after closing the session: the message is already accounted for
	// and must not surface as unread.
	sess.Close()
	router.Route(context.Background(), msg)
	if tracker.Tally("c1") != 0 {
		t.Fatal("replayed transcript message must not count as unread")
	}
}

func TestRouter_RoutesToUnreadTally(t *testing.T) {
	store := newFakeStore()
	conv := openConv("c1", "me", "ana")
	store.addConversation(conv)
	router, _, tracker := newTestRouter(store, []*Conversation{conv})

	msg := &Message{ID: "m1", ConversationID: "c1", SenderID: "ana", CreatedAt: time.Now()}
	router.Route(context.Background(), msg)
	router.Route(context.Background(), msg) // replay

	if got := tracker.Tally("c1"); got != 1 {
		t.Fatalf("tally = %d, want 1 after replay", got)
	}
}

func TestRouter_CountsUnreadWhenSessionDeclinesAppend(t *testing.T) {
	store := newFakeStore()
	focused := openConv("ca", "me", "ana")
	other := openConv("cb", "me", "bia")
	store.addConversation(focused)
	store.addConversation(other)
	router, sess, tracker := newTestRouter(store, []*Conversation{focused, other})

	if err := sess.Open(context.Background(), contactWith(focused, 0)); err != nil {
		t.Fatalf("open: %v", err)
	}

	// The session is focused elsewhere, so the append is declined and the
	// message must land in the unread tally, not vanish.
	msg := &Message{ID: "m1", ConversationID: "cb", SenderID: "bia", CreatedAt: time.Now()}
	router.Route(context.Background(), msg)

	if got := tracker.Tally("cb"); got != 1 {
		t.Fatalf("tally = %d, want 1 when the session declines the append", got)
	}
	_, _, _, transcript := sess.Snapshot()
	if len(transcript) != 0 {
		t.Fatal("declined message must not enter the focused transcript")
	}

	router.Route(context.Background(), msg) // replay
	if got := tracker.Tally("cb"); got != 1 {
		t.Fatalf("tally = %d, want 1 after replay", got)
	}
}

func TestRouter_TranscriptAppendWithFailedReceiptStaysCounted(t *testing.T) {
	store := newFakeStore()
	conv := openConv("c1", "me", "ana")
	store.addConversation(conv)
	router, sess, tracker := newTestRouter(store, []*Conversation{conv})

	if err := sess.Open(context.Background(), contactWith(conv, 0)); err != nil {
		t.Fatalf("open: %v", err)
	}

	store.mu.Lock()
	store.markMessageReadErr = errors.New("receipt failed")
	store.mu.Unlock()

	msg := &Message{ID: "m1", ConversationID: "c1", SenderID: "ana", CreatedAt: time.Now()}
	router.Route(context.Background(), msg)

	_, _, _, transcript := sess.Snapshot()
	if len(transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1 despite failed receipt", len(transcript))
	}

	// The message is in the transcript, so a replay after closing must not
	// surface it as unread.
	sess.Close()
	router.Route(context.Background(), msg)
	if tracker.Tally("c1") != 0 {
		t.Fatal("replayed transcript message must not count as unread")
	}
}

func TestRouter_AdoptsConversationOpenedByCounterpart(t *testing.T) {
	store := newFakeStore()
	conv := openConv("c9", "me", "bia")
	store.addConversation(conv)
	router, _, tracker := newTestRouter(store, nil)

	router.Route(context.Background(), &Message{ID: "m1", ConversationID: "c9", SenderID: "bia", CreatedAt: time.Now()})

	if got := tracker.Tally("c9"); got != 1 {
		t.Fatalf("tally = %d, want 1 for adopted conversation", got)
	}
	known := router.KnownConversations()
	if len(known) != 1 || known[0].ID != "c9" {
		t.Fatal("adopted conversation must join the known-open set")
	}
}

func TestRouter_DropsMessageWithoutParticipation(t *testing.T) {
	store := newFakeStore()
	foreign := openConv("cx", "bia", "carla")
	store.addConversation(foreign)
	router, _, tracker := newTestRouter(store, nil)

	router.Route(context.Background(), &Message{ID: "m1", ConversationID: "cx", SenderID: "bia", CreatedAt: time.Now()})

	if tracker.Tally("cx") != 0 {
		t.Fatal("integrity fault must not be tallied")
	}
	if len(router.KnownConversations()) != 0 {
		t.Fatal("integrity fault must not be adopted")
	}
}

func TestRouter_DropsWhenResolveFails(t *testing.T) {
	store := newFakeStore()
	store.getConversationErr = errors.New("lookup failed")
	router, _, tracker := newTestRouter(store, nil)

	router.Route(context.Background(), &Message{ID: "m1", ConversationID: "c?", SenderID: "ana", CreatedAt: time.Now()})

	if len(tracker.Tallies()) != 0 || len(router.KnownConversations()) != 0 {
		t.Fatal("unresolvable event must be dropped entirely")
	}
}
