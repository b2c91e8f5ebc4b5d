package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/agent-chat/internal/chat"
	"github.com/suPer8Hu/agent-chat/internal/common"
	"github.com/suPer8Hu/agent-chat/internal/httpapi/middleware"
)

type Handler struct {
	Chat    *chat.Service
	Archive *chat.Repo // nil unless the archive is enabled
	Now     func() time.Time
}

func NewHandler(svc *chat.Service, archive *chat.Repo) *Handler {
	return &Handler{Chat: svc, Archive: archive, Now: time.Now}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

func agentIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("agent_id"))
	if err != nil || id <= 0 {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid agent_id")
		return 0, false
	}
	return id, true
}

// failErr maps service errors onto the response envelope.
func failErr(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, chat.ErrUnknownAgent):
		common.Fail(c, http.StatusNotFound, 40401, "agent not found")
	case errors.Is(err, chat.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, 40402, "conversation not found")
	case errors.Is(err, chat.ErrEmptyMessage):
		common.Fail(c, http.StatusBadRequest, 10002, "message required")
	case errors.Is(err, chat.ErrNoSession):
		common.Fail(c, http.StatusBadRequest, 10003, "session_id required")
	default:
		log.Printf("[%s] failed request_id=%s err=%v", op, c.GetString(middleware.RequestIDKey), err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
