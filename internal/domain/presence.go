package domain

import (
	"fmt"
	"time"
)

// Status is a user's live presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusOffline:
		return true
	}
	return false
}

// StatusLabel returns the display label for a presence status. Unknown
// statuses render as offline.
func StatusLabel(s Status) string {
	switch s {
	case StatusOnline:
		return "Online"
	case StatusAway:
		return "Away"
	case StatusBusy:
		return "Busy"
	default:
		return "Offline"
	}
}

// LastSeenLabel formats a user's last-seen time relative to now. Online users
// are always "Online" regardless of the timestamp; users with no recorded
// last-seen time fall back to their status label.
func LastSeenLabel(status Status, lastSeen, now time.Time) string {
	if status == StatusOnline {
		return "Online"
	}
	if lastSeen.IsZero() {
		return StatusLabel(status)
	}

	elapsed := now.Sub(lastSeen)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	default:
		return lastSeen.Format("Jan 2, 2006")
	}
}
