package chat

import "sync"

// ConversationStore holds the live transcript per agent. Only agent ids given at
// construction are tracked; anything else reads as empty and ignores writes.
type ConversationStore struct {
	mu   sync.RWMutex
	msgs map[int][]Message
}

func NewConversationStore(agentIDs []int) *ConversationStore {
	s := &ConversationStore{msgs: make(map[int][]Message, len(agentIDs))}
	for _, id := range agentIDs {
		s.msgs[id] = nil
	}
	return s
}

// Messages returns a copy of the agent's transcript in order.
func (s *ConversationStore) Messages(agentID int) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message{}, s.msgs[agentID]...)
}

func (s *ConversationStore) Append(agentID int, msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.msgs[agentID]
	if !ok {
		return
	}
	s.msgs[agentID] = append(cur, msgs...)
}

func (s *ConversationStore) Reset(agentID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.msgs[agentID]; ok {
		s.msgs[agentID] = nil
	}
}
