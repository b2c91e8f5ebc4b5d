package chat

import "time"

type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is immutable once created.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRecord is the persisted summary of one session's transcript.
// At most one record exists per SessionID.
type ConversationRecord struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AgentID     int       `json:"agentId"`
	LastMessage string    `json:"lastMessage"`
	Timestamp   time.Time `json:"timestamp"`
	Messages    []Message `json:"messages"`
	SessionID   string    `json:"sessionId"`
}

func (r ConversationRecord) clone() ConversationRecord {
	r.Messages = append([]Message(nil), r.Messages...)
	return r
}
