package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	DefaultHistoryKey = "chatHistory"
	DefaultMaxRecords = 50
)

// KV is the persistence substrate: an opaque key -> string store.
type KV interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Ledger is the bounded, persisted list of conversation records, most recent first.
// It is the only writer of its key in the substrate.
type Ledger struct {
	mu       sync.Mutex
	kv       KV
	key      string
	max      int
	notifier Notifier
	now      func() time.Time

	records []ConversationRecord
}

type LedgerOption func(*Ledger)

func WithHistoryKey(key string) LedgerOption {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

func WithMaxRecords(n int) LedgerOption {
	return func(l *Ledger) {
		if n > 0 {
			l.max = n
		}
	}
}

func WithNotifier(n Notifier) LedgerOption {
	return func(l *Ledger) { l.notifier = n }
}

func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLedger(kv KV, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		kv:  kv,
		key: DefaultHistoryKey,
		max: DefaultMaxRecords,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordID derives the record id for a session.
func RecordID(agentID int, sessionID string) string {
	return fmt.Sprintf("%d-%s", agentID, sessionID)
}

// Load replaces the in-memory list with what the substrate holds. A malformed payload
// is treated as empty history; only substrate read failures are returned.
func (l *Ledger) Load(ctx context.Context) error {
	raw, found, err := l.kv.Get(ctx, l.key)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !found || strings.TrimSpace(raw) == "" {
		l.records = nil
		return nil
	}
	records, skipped, err := decodeRecords([]byte(raw))
	if err != nil {
		log.Printf("[Ledger] malformed history key=%s err=%v, starting empty", l.key, err)
		l.records = nil
		return nil
	}
	if skipped > 0 {
		log.Printf("[Ledger] skipped %d malformed records key=%s", skipped, l.key)
	}
	l.records = l.normalize(records)
	return nil
}

// Upsert creates or replaces the record for sessionID and moves it to the front.
// An empty transcript leaves the ledger untouched and returns nil.
func (l *Ledger) Upsert(ctx context.Context, agentID int, sessionID string, msgs []Message) (*ConversationRecord, error) {
	if len(msgs) == 0 {
		return nil, nil
	}

	rec := ConversationRecord{
		ID:          RecordID(agentID, sessionID),
		Title:       titleFor(msgs),
		AgentID:     agentID,
		LastMessage: Truncate(msgs[len(msgs)-1].Content, previewMaxRunes),
		Timestamp:   l.now(),
		Messages:    append([]Message(nil), msgs...),
		SessionID:   sessionID,
	}

	l.mu.Lock()
	next := make([]ConversationRecord, 0, len(l.records)+1)
	next = append(next, rec)
	for _, r := range l.records {
		if r.SessionID != sessionID {
			next = append(next, r)
		}
	}
	if len(next) > l.max {
		next = next[:l.max]
	}
	err := l.persistLocked(ctx, next)
	if err == nil {
		l.records = next
	}
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := rec.clone()
	l.notify(ctx, HistoryEvent{Type: EventUpserted, RecordID: rec.ID, Record: &out, At: rec.Timestamp})
	return &out, nil
}

// List returns copies of all records, most recent first.
func (l *Ledger) List() []ConversationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ConversationRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r.clone())
	}
	return out
}

func (l *Ledger) Get(id string) (ConversationRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.ID == id {
			return r.clone(), true
		}
	}
	return ConversationRecord{}, false
}

func (l *Ledger) FindSession(sessionID string) (ConversationRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.SessionID == sessionID {
			return r.clone(), true
		}
	}
	return ConversationRecord{}, false
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Remove deletes the record with the given id; absent ids are a no-op.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	idx := -1
	for i, r := range l.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return nil
	}
	next := make([]ConversationRecord, 0, len(l.records)-1)
	next = append(next, l.records[:idx]...)
	next = append(next, l.records[idx+1:]...)
	err := l.persistLocked(ctx, next)
	if err == nil {
		l.records = next
	}
	l.mu.Unlock()
	if err != nil {
		return err
	}

	l.notify(ctx, HistoryEvent{Type: EventRemoved, RecordID: id, At: l.now()})
	return nil
}

// Clear deletes the persisted representation, then empties the ledger.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	err := l.kv.Delete(ctx, l.key)
	if err == nil {
		l.records = nil
	}
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	l.notify(ctx, HistoryEvent{Type: EventCleared, At: l.now()})
	return nil
}

// persistLocked writes records to the substrate. Callers swap them in only on success,
// so memory never shows a state the substrate does not hold.
func (l *Ledger) persistLocked(ctx context.Context, records []ConversationRecord) error {
	if records == nil {
		records = []ConversationRecord{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := l.kv.Set(ctx, l.key, string(b)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (l *Ledger) notify(ctx context.Context, ev HistoryEvent) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[Ledger] notify failed type=%s record=%s err=%v", ev.Type, ev.RecordID, err)
	}
}

// normalize orders loaded records most recent first, keeps one record per session and
// applies the cap.
func (l *Ledger) normalize(records []ConversationRecord) []ConversationRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	seen := make(map[string]struct{}, len(records))
	out := make([]ConversationRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.SessionID]; dup {
			continue
		}
		seen[r.SessionID] = struct{}{}
		out = append(out, r)
		if len(out) == l.max {
			break
		}
	}
	return out
}

func titleFor(msgs []Message) string {
	for _, m := range msgs {
		if m.Sender == SenderUser {
			return Truncate(m.Content, titleMaxRunes)
		}
	}
	return untitled
}

// Persisted payloads may come from older writers, so timestamps are taken as raw JSON
// and parsed leniently.
type storedMessage struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Sender    Sender          `json:"sender"`
	Timestamp json.RawMessage `json:"timestamp"`
}

type storedRecord struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	AgentID     int             `json:"agentId"`
	LastMessage string          `json:"lastMessage"`
	Timestamp   json.RawMessage `json:"timestamp"`
	Messages    []storedMessage `json:"messages"`
	SessionID   string          `json:"sessionId"`
}

func decodeRecords(data []byte) (records []ConversationRecord, skipped int, err error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, err
	}
	for _, raw := range raws {
		var sr storedRecord
		if err := json.Unmarshal(raw, &sr); err != nil || strings.TrimSpace(sr.SessionID) == "" {
			skipped++
			continue
		}
		rec := ConversationRecord{
			ID:          sr.ID,
			Title:       sr.Title,
			AgentID:     sr.AgentID,
			LastMessage: sr.LastMessage,
			Timestamp:   parseTimestamp(sr.Timestamp),
			Messages:    make([]Message, 0, len(sr.Messages)),
			SessionID:   sr.SessionID,
		}
		if rec.ID == "" {
			rec.ID = RecordID(rec.AgentID, rec.SessionID)
		}
		for _, sm := range sr.Messages {
			rec.Messages = append(rec.Messages, Message{
				ID:        sm.ID,
				Content:   sm.Content,
				Sender:    sm.Sender,
				Timestamp: parseTimestamp(sm.Timestamp),
			})
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp accepts ISO/RFC3339 text or epoch milliseconds; anything else is zero.
func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms)
	}
	return time.Time{}
}
