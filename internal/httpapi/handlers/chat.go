package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/agent-chat/internal/common"
)

type sendMessageReq struct {
	AgentID   int    `json:"agent_id"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// SendChatMessage posts to the agent's webhook and answers with both sides of the
// exchange. Webhook failures still answer 200: the failure text is the agent's reply.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	// no session given: continue the agent's active one
	sid := strings.TrimSpace(req.SessionID)
	if sid == "" {
		var err error
		if sid, err = h.Chat.SelectAgent(req.AgentID); err != nil {
			failErr(c, "SendChatMessage", err)
			return
		}
	}

	ex, err := h.Chat.Send(c.Request.Context(), req.AgentID, sid, req.Message)
	if err != nil {
		failErr(c, "SendChatMessage", err)
		return
	}

	common.OK(c, gin.H{
		"agent_id":     ex.AgentID,
		"session_id":   ex.SessionID,
		"user_message": ex.UserMessage,
		"reply":        ex.Reply,
		"delivered":    ex.Delivered,
	})
}
