package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/suPer8Hu/agent-chat/internal/agent"
	"github.com/suPer8Hu/agent-chat/internal/common"
	"github.com/suPer8Hu/agent-chat/internal/webhook"
)

var (
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrNoSession      = errors.New("session id required")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrRecordNotFound = errors.New("conversation not found")
)

// Poster delivers one message to an agent webhook.
type Poster interface {
	Post(ctx context.Context, endpoint string, in webhook.Request) (*webhook.Reply, error)
}

// Service is the application state: the live transcripts, the active session per agent
// and the history ledger, plus the dispatcher that ties them to the agent webhooks.
type Service struct {
	registry *agent.Registry
	store    *ConversationStore
	ledger   *Ledger
	poster   Poster
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int]string

	// persistMu orders transcript snapshots with their ledger upserts, so a later
	// upsert of a session always carries a superset of the earlier one.
	persistMu sync.Mutex
}

func NewService(registry *agent.Registry, ledger *Ledger, poster Poster) *Service {
	return &Service{
		registry: registry,
		store:    NewConversationStore(registry.IDs()),
		ledger:   ledger,
		poster:   poster,
		now:      time.Now,
		sessions: make(map[int]string),
	}
}

// NewSessionID mints a session token.
func NewSessionID() string {
	return common.NewULID()
}

func (s *Service) Registry() *agent.Registry { return s.registry }

// SelectAgent returns the agent's active session, minting one on first selection.
func (s *Service) SelectAgent(agentID int) (string, error) {
	if _, ok := s.registry.Get(agentID); !ok {
		return "", ErrUnknownAgent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sid, ok := s.sessions[agentID]
	if !ok {
		sid = NewSessionID()
		s.sessions[agentID] = sid
	}
	return sid, nil
}

// NewConversation drops the agent's live transcript and mints a replacement session.
// Anything already persisted for the old session stays in the ledger.
func (s *Service) NewConversation(agentID int) (string, error) {
	if _, ok := s.registry.Get(agentID); !ok {
		return "", ErrUnknownAgent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset(agentID)
	sid := NewSessionID()
	s.sessions[agentID] = sid
	return sid, nil
}

// CurrentSession returns the agent's active session, or "" if none was started.
func (s *Service) CurrentSession(agentID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[agentID]
}

// Transcript returns the active session and live transcript for an agent.
func (s *Service) Transcript(agentID int) (string, []Message, error) {
	if _, ok := s.registry.Get(agentID); !ok {
		return "", nil, ErrUnknownAgent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[agentID], s.store.Messages(agentID), nil
}

// LoadConversation rebuilds the agent's live transcript from a stored record and adopts
// its session, so further sends update the same record.
func (s *Service) LoadConversation(recordID string) (*ConversationRecord, error) {
	rec, ok := s.ledger.Get(recordID)
	if !ok {
		return nil, ErrRecordNotFound
	}
	if _, ok := s.registry.Get(rec.AgentID); !ok {
		return nil, ErrUnknownAgent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Reset(rec.AgentID)
	s.store.Append(rec.AgentID, rec.Messages...)
	s.sessions[rec.AgentID] = rec.SessionID
	return &rec, nil
}

func (s *Service) History() []ConversationRecord {
	return s.ledger.List()
}

func (s *Service) DeleteConversation(ctx context.Context, recordID string) error {
	return s.ledger.Remove(ctx, recordID)
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.ledger.Clear(ctx)
}

// Exchange is the outcome of one Send.
type Exchange struct {
	AgentID     int                 `json:"agent_id"`
	SessionID   string              `json:"session_id"`
	UserMessage Message             `json:"user_message"`
	Reply       Message             `json:"reply"`
	Delivered   bool                `json:"delivered"`
	Record      *ConversationRecord `json:"-"`
}

// Send posts text to the agent's webhook and records both sides of the exchange.
//
// Validation failures return an error and change nothing. Webhook failures are not
// errors: they become the agent's reply, so the transcript stays linear and every
// accepted call upserts the session's record exactly once.
func (s *Service) Send(ctx context.Context, agentID int, sessionID, text string) (*Exchange, error) {
	a, ok := s.registry.Get(agentID)
	if !ok {
		return nil, ErrUnknownAgent
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNoSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	// 1) user message is visible before the round-trip
	userMsg := s.newMessage(text, SenderUser)
	transcript := s.appendToSession(agentID, sessionID, nil, userMsg)

	// 2) call the webhook
	start := time.Now()
	var content string
	delivered := false
	reply, err := s.poster.Post(ctx, a.Endpoint, webhook.Request{Message: text, ID: sessionID})
	switch {
	case err != nil:
		log.Printf("[Dispatcher] webhook failed agent=%d session=%s cost=%s err=%v", agentID, sessionID, time.Since(start), err)
		content = webhook.FailureContent(err)
	case !reply.OK():
		log.Printf("[Dispatcher] webhook status agent=%d session=%s status=%d cost=%s", agentID, sessionID, reply.StatusCode, time.Since(start))
		content = reply.Content()
	default:
		delivered = true
		content = reply.Content()
	}

	// 3) agent message, then one ledger upsert with the session's full transcript
	agentMsg := s.newMessage(content, SenderAgent)
	s.persistMu.Lock()
	transcript = s.appendToSession(agentID, sessionID, transcript, agentMsg)
	rec, err := s.ledger.Upsert(ctx, agentID, sessionID, transcript)
	s.persistMu.Unlock()
	if err != nil {
		log.Printf("[Dispatcher] history upsert failed agent=%d session=%s err=%v", agentID, sessionID, err)
	}

	return &Exchange{
		AgentID:     agentID,
		SessionID:   sessionID,
		UserMessage: userMsg,
		Reply:       agentMsg,
		Delivered:   delivered,
		Record:      rec,
	}, nil
}

// appendToSession adds msg to the session's transcript and returns the result. While the
// session is the agent's active one the live store is the source of truth. A session the
// user has navigated away from is rebuilt from its ledger record, plus whatever of prev
// that record does not hold yet.
func (s *Service) appendToSession(agentID int, sessionID string, prev []Message, msg Message) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[agentID] == sessionID {
		s.store.Append(agentID, msg)
		return s.store.Messages(agentID)
	}
	var base []Message
	if rec, ok := s.ledger.FindSession(sessionID); ok && rec.AgentID == agentID {
		base = rec.Messages
	}
	return append(mergeByID(base, prev), msg)
}

// mergeByID returns base followed by the messages of extra whose ids base lacks.
func mergeByID(base, extra []Message) []Message {
	out := append([]Message(nil), base...)
	seen := make(map[string]struct{}, len(base))
	for _, m := range base {
		seen[m.ID] = struct{}{}
	}
	for _, m := range extra {
		if _, dup := seen[m.ID]; !dup {
			out = append(out, m)
		}
	}
	return out
}

func (s *Service) newMessage(content string, sender Sender) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		Timestamp: s.now(),
	}
}
