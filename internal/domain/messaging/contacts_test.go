package messaging

import "testing"

func profile(id, name string) *Profile {
	return &Profile{ID: id, DisplayName: name, Role: RoleManager}
}

func openConv(id, a, b string) *Conversation {
	return &Conversation{ID: id, Protocol: "TKT-20260830-" + id, Status: ConversationOpen, ParticipantA: a, ParticipantB: b}
}

func TestBuildContacts_Ordering(t *testing.T) {
	profiles := []*Profile{
		profile("x", "Xavier"),
		profile("y", "Yara"),
		profile("z", "Zilda"),
	}
	convX := openConv("cx", "me", "x")
	convY := openConv("cy", "me", "y")

	tests := []struct {
		name      string
		convs     []*Conversation
		unread    map[string]int
		wantOrder []string
	}{
		{
			name:      "no conversations keeps directory order",
			convs:     nil,
			unread:    nil,
			wantOrder: []string{"x", "y", "z"},
		},
		{
			name:      "open conversations rank above the rest",
			convs:     []*Conversation{convY},
			unread:    map[string]int{},
			wantOrder: []string{"y", "x", "z"},
		},
		{
			name:      "unread ranks above open, descending by count",
			convs:     []*Conversation{convX, convY},
			unread:    map[string]int{"cx": 1, "cy": 3},
			wantOrder: []string{"y", "x", "z"},
		},
		{
			name:      "equal unread keeps directory order",
			convs:     []*Conversation{convX, convY},
			unread:    map[string]int{"cx": 2, "cy": 2},
			wantOrder: []string{"x", "y", "z"},
		},
		{
			name:      "closed conversations are ignored",
			convs:     []*Conversation{{ID: "cc", Status: ConversationClosed, ParticipantA: "me", ParticipantB: "z"}},
			unread:    nil,
			wantOrder: []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildContacts("me", profiles, tt.convs, tt.unread)
			if len(got) != len(tt.wantOrder) {
				t.Fatalf("got %d contacts, want %d", len(got), len(tt.wantOrder))
			}
			for i, want := range tt.wantOrder {
				if got[i].Profile.ID != want {
					t.Errorf("position %d: got %s, want %s", i, got[i].Profile.ID, want)
				}
			}
		})
	}
}

func TestBuildContacts_StableWithinUnreadBand(t *testing.T) {
	// Ana and Bia both have unread conversations. Bumping Bia to the same
	// count as Ana must not reorder them; only a higher count moves her up.
	profiles := []*Profile{
		profile("ana", "Ana"),
		profile("bia", "Bia"),
	}
	convA := openConv("ca", "me", "ana")
	convB := openConv("cb", "me", "bia")
	convs := []*Conversation{convA, convB}

	got := BuildContacts("me", profiles, convs, map[string]int{"ca": 2, "cb": 1})
	if got[0].Profile.ID != "ana" || got[1].Profile.ID != "bia" {
		t.Fatalf("want ana before bia, got %s, %s", got[0].Profile.ID, got[1].Profile.ID)
	}

	got = BuildContacts("me", profiles, convs, map[string]int{"ca": 2, "cb": 2})
	if got[0].Profile.ID != "ana" || got[1].Profile.ID != "bia" {
		t.Fatalf("tie must keep directory order, got %s, %s", got[0].Profile.ID, got[1].Profile.ID)
	}

	got = BuildContacts("me", profiles, convs, map[string]int{"ca": 2, "cb": 3})
	if got[0].Profile.ID != "bia" || got[1].Profile.ID != "ana" {
		t.Fatalf("higher count must move bia up, got %s, %s", got[0].Profile.ID, got[1].Profile.ID)
	}
}

func TestBuildContacts_AttachesConversationAndUnread(t *testing.T) {
	profiles := []*Profile{profile("x", "Xavier")}
	conv := openConv("cx", "me", "x")

	got := BuildContacts("me", profiles, []*Conversation{conv}, map[string]int{"cx": 4})
	if len(got) != 1 {
		t.Fatalf("got %d contacts, want 1", len(got))
	}
	if got[0].OpenConversation == nil || got[0].OpenConversation.ID != "cx" {
		t.Errorf("open conversation not attached")
	}
	if got[0].UnreadCount != 4 {
		t.Errorf("unread count = %d, want 4", got[0].UnreadCount)
	}
}
