package domain

// NotificationCounts is derived, never stored: recompute it from the
// conversation list after every mutation.
type NotificationCounts struct {
	Messages int `json:"messages"`
	Groups   int `json:"groups"`
	Total    int `json:"total"`
}

// ComputeCounts aggregates unread badges over the conversation list.
// Messages sums every conversation's unread count, Groups counts group
// conversations with anything unread, and Total mirrors Messages (the group
// badge is a subset, not an addend).
func ComputeCounts(conversations []*Conversation) NotificationCounts {
	var counts NotificationCounts
	for _, conv := range conversations {
		counts.Messages += conv.UnreadCount
		if conv.IsGroup() && conv.UnreadCount > 0 {
			counts.Groups++
		}
	}
	counts.Total = counts.Messages
	return counts
}
