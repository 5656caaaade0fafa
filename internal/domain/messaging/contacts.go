package messaging

import "sort"

// contact sort bands. Only crossing a band boundary may move a row; unread
// churn inside a band keeps directory order so the list does not jitter.
const (
	bandUnread = iota
	bandOpen
	bandRest
)

// BuildContacts merges the eligible profiles with the known open conversations
// and unread tallies into the ordered contact list. Pure function of its
// inputs; profiles are expected to exclude the caller and arrive in directory
// order.
//
// Ordering: contacts with unread messages first (unread descending, ties in
// directory order), then contacts with an open conversation, then the rest,
// both in directory order.
func BuildContacts(selfID string, profiles []*Profile, openConversations []*Conversation, unreadByConversation map[string]int) []ContactView {
	byCounterpart := make(map[string]*Conversation, len(openConversations))
	for _, conv := range openConversations {
		if conv.Status != ConversationOpen {
			continue
		}
		if counterpart, ok := conv.Counterpart(selfID); ok {
			byCounterpart[counterpart] = conv
		}
	}

	contacts := make([]ContactView, 0, len(profiles))
	for _, p := range profiles {
		view := ContactView{Profile: *p}
		if conv, ok := byCounterpart[p.ID]; ok {
			view.OpenConversation = conv
			view.UnreadCount = unreadByConversation[conv.ID]
		}
		contacts = append(contacts, view)
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		bi, bj := band(contacts[i]), band(contacts[j])
		if bi != bj {
			return bi < bj
		}
		if bi == bandUnread && contacts[i].UnreadCount != contacts[j].UnreadCount {
			return contacts[i].UnreadCount > contacts[j].UnreadCount
		}
		return false // stable sort preserves directory order
	})

	return contacts
}

func band(c ContactView) int {
	switch {
	case c.UnreadCount > 0:
		return bandUnread
	case c.OpenConversation != nil:
		return bandOpen
	default:
		return bandRest
	}
}
