package common

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewULID_UniqueAndParseable(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewULID()
		if len(id) != 26 {
			t.Fatalf("unexpected length %d for %q", len(id), id)
		}
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("parse %q: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewULID_TimePrefixOrders(t *testing.T) {
	a := NewULID()
	time.Sleep(2 * time.Millisecond)
	b := NewULID()
	if !(a < b) {
		t.Fatalf("expected %q < %q", a, b)
	}
}
