package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/agent-chat/internal/chat"
	"github.com/suPer8Hu/agent-chat/internal/common"
)

type historyItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	AgentID      int       `json:"agent_id"`
	AgentName    string    `json:"agent_name"`
	AgentIcon    string    `json:"agent_icon"`
	LastMessage  string    `json:"last_message"`
	Timestamp    time.Time `json:"timestamp"`
	When         string    `json:"when"`
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
}

func (h *Handler) ListHistory(c *gin.Context) {
	reg := h.Chat.Registry()
	now := h.Now()
	records := h.Chat.History()
	items := make([]historyItem, 0, len(records))
	for _, r := range records {
		items = append(items, historyItem{
			ID:           r.ID,
			Title:        r.Title,
			AgentID:      r.AgentID,
			AgentName:    reg.DisplayName(r.AgentID),
			AgentIcon:    reg.Icon(r.AgentID),
			LastMessage:  r.LastMessage,
			Timestamp:    r.Timestamp,
			When:         chat.RelativeLabel(now, r.Timestamp),
			SessionID:    r.SessionID,
			MessageCount: len(r.Messages),
		})
	}
	common.OK(c, gin.H{"records": items})
}

// LoadHistory makes a stored conversation the active one for its agent.
func (h *Handler) LoadHistory(c *gin.Context) {
	rec, err := h.Chat.LoadConversation(c.Param("id"))
	if err != nil {
		failErr(c, "LoadHistory", err)
		return
	}
	common.OK(c, gin.H{
		"agent_id":   rec.AgentID,
		"session_id": rec.SessionID,
		"title":      rec.Title,
		"messages":   rec.Messages,
	})
}

func (h *Handler) DeleteHistory(c *gin.Context) {
	id := c.Param("id")
	if err := h.Chat.DeleteConversation(c.Request.Context(), id); err != nil {
		failErr(c, "DeleteHistory", err)
		return
	}
	common.OK(c, gin.H{"id": id})
}

func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.Chat.ClearHistory(c.Request.Context()); err != nil {
		failErr(c, "ClearHistory", err)
		return
	}
	common.OK(c, gin.H{"cleared": true})
}

// ListArchive pages the server-side archive: ?agent_id=&limit=&before=<RFC3339>.
func (h *Handler) ListArchive(c *gin.Context) {
	if h.Archive == nil {
		common.Fail(c, http.StatusNotFound, 40403, "archive disabled")
		return
	}

	agentID, _ := strconv.Atoi(c.Query("agent_id"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	var before time.Time
	if v := c.Query("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, 10005, "invalid before, want RFC3339")
			return
		}
		before = t
	}

	rows, err := h.Archive.ListArchived(c.Request.Context(), agentID, limit, before)
	if err != nil {
		failErr(c, "ListArchive", err)
		return
	}

	var nextBefore string
	if len(rows) > 0 {
		nextBefore = rows[len(rows)-1].LastActivity.Format(time.RFC3339Nano)
	}
	common.OK(c, gin.H{
		"conversations": rows,
		"next_before":   nextBefore,
	})
}
