package chat

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	sets       int
	failSet    bool
	failDelete bool
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(ctx context.Context, key, value string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("disk full")
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(ctx context.Context, key string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return errors.New("read-only substrate")
	}
	delete(m.data, key)
	return nil
}

type recordingNotifier struct {
	events []HistoryEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, ev HistoryEvent) error {
	_ = ctx
	n.events = append(n.events, ev)
	return nil
}

// stepClock returns strictly increasing times one second apart.
func stepClock() func() time.Time {
	t := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func msgs(pairs ...string) []Message {
	out := make([]Message, 0, len(pairs))
	for i, p := range pairs {
		sender := SenderUser
		if i%2 == 1 {
			sender = SenderAgent
		}
		out = append(out, Message{
			ID:        string(rune('a' + i)),
			Content:   p,
			Sender:    sender,
			Timestamp: time.Date(2025, 3, 1, 10, 0, i, 0, time.UTC),
		})
	}
	return out
}
