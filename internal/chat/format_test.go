package chat

import (
	"strings"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := Truncate("exactly10!", 10); got != "exactly10!" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := Truncate("0123456789abc", 10); got != "0123456789..." {
		t.Fatalf("unexpected: %q", got)
	}
	// runes, not bytes
	long := strings.Repeat("é", 12)
	if got := Truncate(long, 10); got != strings.Repeat("é", 10)+"..." {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestRelativeLabel(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	cases := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-time.Hour), "Today"},
		{now.Add(time.Hour), "Today"},
		{now.Add(-25 * time.Hour), "Yesterday"},
		{now.Add(-3 * 24 * time.Hour), "3 days ago"},
		{now.Add(-6*24*time.Hour - time.Hour), "6 days ago"},
		{time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC), "14/02/25"},
	}
	for _, tc := range cases {
		if got := RelativeLabel(now, tc.t); got != tc.want {
			t.Fatalf("RelativeLabel(%s) = %q, want %q", tc.t, got, tc.want)
		}
	}
}
