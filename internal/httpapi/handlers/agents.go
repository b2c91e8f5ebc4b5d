package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/agent-chat/internal/agent"
	"github.com/suPer8Hu/agent-chat/internal/chat"
	"github.com/suPer8Hu/agent-chat/internal/common"
)

type agentView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SessionID   string `json:"session_id,omitempty"`
}

func (h *Handler) ListAgents(c *gin.Context) {
	agents := h.Chat.Registry().List()
	out := make([]agentView, 0, len(agents))
	for _, a := range agents {
		out = append(out, toAgentView(a, h.Chat.CurrentSession(a.ID)))
	}
	common.OK(c, gin.H{"agents": out})
}

// SelectAgent makes the agent active, minting its session on first selection.
func (h *Handler) SelectAgent(c *gin.Context) {
	id, okk := agentIDParam(c)
	if !okk {
		return
	}
	if _, err := h.Chat.SelectAgent(id); err != nil {
		failErr(c, "SelectAgent", err)
		return
	}
	h.writeTranscript(c, id)
}

func (h *Handler) NewConversation(c *gin.Context) {
	id, okk := agentIDParam(c)
	if !okk {
		return
	}
	sid, err := h.Chat.NewConversation(id)
	if err != nil {
		failErr(c, "NewConversation", err)
		return
	}
	common.OK(c, gin.H{"agent_id": id, "session_id": sid, "messages": []chat.Message{}})
}

func (h *Handler) ListAgentMessages(c *gin.Context) {
	id, okk := agentIDParam(c)
	if !okk {
		return
	}
	h.writeTranscript(c, id)
}

func (h *Handler) writeTranscript(c *gin.Context, agentID int) {
	sid, msgs, err := h.Chat.Transcript(agentID)
	if err != nil {
		failErr(c, "Transcript", err)
		return
	}
	common.OK(c, gin.H{"agent_id": agentID, "session_id": sid, "messages": msgs})
}

func toAgentView(a agent.Agent, sid string) agentView {
	return agentView{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Icon:        a.Icon,
		SessionID:   sid,
	}
}
