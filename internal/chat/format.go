package chat

import (
	"fmt"
	"time"
)

const (
	titleMaxRunes   = 50
	previewMaxRunes = 100
	ellipsis        = "..."
	untitled        = "New conversation"
)

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + ellipsis
}

// RelativeLabel renders t relative to now the way the history list shows it.
func RelativeLabel(now, t time.Time) string {
	days := int(now.Sub(t) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("02/01/06")
	}
}
